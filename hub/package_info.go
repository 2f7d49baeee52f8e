// Package hub is the harness's side of the DHT transport: a single WebSocket connection that
// carries published commands out and arbitrary hub traffic back.
package hub
