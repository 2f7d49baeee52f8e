// Package framework contains the low-level implementation of test harness infrastructure
// that does not depend on the hub protocol.
//
// The general model is:
//
// 1. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// 2. Every test that is started produces exactly one TestResult, in the order the tests
// were started. Tests that are excluded by a filter are recorded as skipped.
//
// 3. Progress is reported through a TestLogger, which can write to the console, to a JUnit
// XML file, or both.
//
// The domain-specific code that knows what is being tested is responsible for the
// connection to the hub and for deciding what makes a test pass.
package framework
