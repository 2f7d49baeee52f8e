package dhttests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wp3-solutions/dht-contract-tests/framework"
	"github.com/wp3-solutions/dht-contract-tests/servicedef"
)

// HubConnection is the part of the hub connection that the tests use. *hub.Conn implements
// it. Receive must return hub.ErrReceiveTimeout if no frame arrives within the timeout.
type HubConnection interface {
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context, timeout time.Duration) (string, error)
}

type environment struct {
	ctx         context.Context
	conn        HubConnection
	window      time.Duration
	now         func() time.Time
	debugLogger framework.Logger
}

// T represents a test in our DHT test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an environment that is
// outside of the Go test runner. Those features are provided by our lower-level framework
// package.
//
// It also provides functionality that is specific to the hub: publishing a command and
// waiting for the response. Anything that goes wrong with the connection itself, rather than
// with the response, aborts the whole run instead of failing one test.
//
// To make test assertions, you can use the assert and require packages, passing the *T as if
// it were a *testing.T.
type T struct {
	context *framework.Context
	env     *environment
}

func newTestScope(c *framework.Context, env *environment) *T {
	return &T{context: c, env: env}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.env))
	})
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.debugLogger().Printf(format, args...)
}

func (t *T) debugLogger() framework.Logger {
	return framework.MultiLogger(t.context.DebugLogger(), t.env.debugLogger)
}

// PublishCommand sends exactly one publish request for message on topic. A send failure
// aborts the run.
func (t *T) PublishCommand(topic, message string) {
	data, err := json.Marshal(servicedef.NewCommandEnvelope(topic, message))
	if err != nil {
		t.context.Abort(fmt.Errorf("could not encode command: %w", err))
	}
	t.debugLogger().Printf("Publishing on %s: %s", topic, string(data))
	if err := t.env.conn.Send(t.env.ctx, data); err != nil {
		t.context.Abort(fmt.Errorf("could not publish on %s: %w", topic, err))
	}
}

// RequireResponse waits up to window for the first frame containing topic and returns it.
//
// The test fails as a timeout and immediately exits if no such frame arrives in time. A
// connection error or an interrupt aborts the run.
func (t *T) RequireResponse(topic string, window time.Duration) string {
	frame, err := awaitMatchingFrame(t.env.ctx, t.env.conn, topic, window, t.env.now, t.debugLogger())
	if errors.Is(err, errNoMatchingFrame) {
		t.context.TimedOut("no response on %q within %s", topic, window)
	}
	if err != nil {
		t.context.Abort(err)
	}
	return frame
}
