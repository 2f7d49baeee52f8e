package framework

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

type environment struct {
	results    Results
	testLogger TestLogger
	filter     Filter
	abortErr   error
}

// Context is a test scope, similar to Go's *testing.T. It implements the TestingT interfaces
// of testify's assert and require packages, so those assertions can be used against it.
//
// A failure inside a test only affects that test. Abort is different: it ends the whole run,
// and no further tests are started.
type Context struct {
	env         *environment
	id          TestID
	debugLogger CapturingLogger
	failed      bool
	timedOut    bool
	skipped     bool
	aborted     bool
	skipReason  string
	errors      []error
}

// Run starts a top-level test scope and returns the results of every test that was started
// within it. The returned error is non-nil only if a test called Abort.
func Run(
	filter Filter,
	testLogger TestLogger,
	action func(*Context),
) (Results, error) {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{
		filter:     filter,
		testLogger: testLogger,
	}
	c := &Context{env: env}
	c.run(action)
	return env.results, env.abortErr
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil {
			if c.skipped || c.aborted {
				return
			}
			c.failed = true
			var addError error
			if _, ok := r.(*Context); ok {
				if len(c.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				c.errors = append(c.errors, addError)
				c.env.testLogger.TestError(c.id, addError)
			}
		}
	}()

	action(c)
}

func (c *Context) outcome() Outcome {
	switch {
	case c.skipped:
		return OutcomeSkipped
	case c.timedOut:
		return OutcomeTimedOut
	case c.failed:
		return OutcomeFailed
	default:
		return OutcomePassed
	}
}

func (e *environment) record(result TestResult) TestResult {
	result.Index = len(e.results.Tests)
	e.results.Tests = append(e.results.Tests, result)
	if result.Outcome.Failed() {
		e.results.Failures = append(e.results.Failures, result)
	}
	return result
}

// Run runs a subtest. Tests excluded by the filter are still recorded, with OutcomeSkipped,
// so that every declared test has exactly one entry in the results. Once the run has been
// aborted, Run does nothing.
func (c *Context) Run(name string, action func(*Context)) {
	if c.env.abortErr != nil {
		return
	}
	id := TestID{Path: append(append([]string(nil), c.id.Path...), name)}

	c.env.testLogger.TestStarted(id)
	if c.env.filter != nil && !c.env.filter(id) {
		c.env.record(TestResult{TestID: id, Outcome: OutcomeSkipped})
		c.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	c1 := &Context{
		id:  id,
		env: c.env,
	}
	startTime := time.Now()
	c1.run(action)
	if c1.aborted {
		return
	}
	result := c.env.record(TestResult{
		TestID:   id,
		Outcome:  c1.outcome(),
		Errors:   c1.errors,
		Duration: time.Since(startTime),
	})
	if c1.skipped {
		c.env.testLogger.TestSkipped(id, c1.skipReason)
	} else {
		c.env.testLogger.TestFinished(id, result, c1.debugLogger.Output())
	}
}

func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := reformatError(fmt.Errorf(format, args...))
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, err)
}

func (c *Context) FailNow() {
	panic(c)
}

// TimedOut fails the test as a timeout rather than as a mismatch, and exits the test.
func (c *Context) TimedOut(format string, args ...interface{}) {
	c.timedOut = true
	c.Errorf(format, args...)
	c.FailNow()
}

// Abort stops the test without recording a result and ends the whole run; the top-level
// Run returns err wrapped in a TestFailure.
func (c *Context) Abort(err error) {
	c.aborted = true
	c.env.abortErr = TestFailure{ID: c.id, Err: err}
	panic(c)
}

func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}
