// Package dhttests contains the DHT contract tests themselves and their supporting API.
//
// Each test case publishes one command through the hub and waits, within a fixed window,
// for the first frame that mentions the case's response topic. That frame must match the
// case's expected pattern.
//
// Test harness infrastructure that is not specific to the hub, such as test scopes, results
// and loggers, is in the lower-level framework package.
package dhttests
