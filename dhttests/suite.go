package dhttests

import (
	"context"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wp3-solutions/dht-contract-tests/framework"
)

// SuiteConfig contains options for a test run.
type SuiteConfig struct {
	Cases []TestCase

	// Window is the wait for each case's response; DefaultWindow if zero.
	Window time.Duration

	Filter     framework.Filter
	TestLogger framework.TestLogger

	// DebugLogger receives debug output as it happens, in addition to each test's
	// captured output.
	DebugLogger framework.Logger

	now func() time.Time
}

// RunTestSuite runs every case in order over conn. A failed case never stops the run; only
// an error on the connection, or cancellation of ctx, does, and that error is returned
// along with the results recorded so far.
func RunTestSuite(
	ctx context.Context,
	conn HubConnection,
	config SuiteConfig,
) (framework.Results, error) {
	env := &environment{
		ctx:         ctx,
		conn:        conn,
		window:      config.Window,
		now:         config.now,
		debugLogger: config.DebugLogger,
	}
	if env.window <= 0 {
		env.window = DefaultWindow
	}
	if env.now == nil {
		env.now = time.Now
	}
	if env.debugLogger == nil {
		env.debugLogger = framework.NullLogger()
	}

	return framework.Run(config.Filter, config.TestLogger, func(c *framework.Context) {
		t := newTestScope(c, env)
		for _, tc := range config.Cases {
			tc := tc
			t.Run(tc.Target, func(t *T) {
				DoTestCase(t, tc)
			})
		}
	})
}

// DoTestCase publishes the case's command and checks the response against its pattern.
func DoTestCase(t *T, tc TestCase) {
	t.PublishCommand(tc.OutgoingTopic, tc.Message)
	frame := t.RequireResponse(tc.IncomingTopic, tc.Window(t.env.window))
	t.Debug("Checking response against %q", tc.Expected.String())
	assert.Regexp(t, tc.Expected, frame, "response on %q did not match the expected pattern", tc.IncomingTopic)
}
