package framework

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextExitsImmediatelyOnFailNow(t *testing.T) {
	executed1 := false
	executed2 := false
	executed3 := false
	_, _ = Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) {
			executed1 = true
			c.FailNow()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestContextExitsImmediatelyOnSkip(t *testing.T) {
	executed1 := false
	executed2 := false
	executed3 := false
	_, _ = Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) {
			executed1 = true
			c.Skip()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestContextResultsAreInOrderWithIndexes(t *testing.T) {
	results, err := Run(nil, nil, func(c *Context) {
		c.Run("first", func(c *Context) {})
		c.Run("second", func(c *Context) {
			c.Errorf("failed because %s", "reasons")
			c.Errorf("and failed some more")
		})
		c.Run("third", func(c *Context) {})
	})
	require.NoError(t, err)

	require.Len(t, results.Tests, 3)
	assert.False(t, results.OK())
	require.Len(t, results.Failures, 1)

	for i, name := range []string{"first", "second", "third"} {
		assert.Equal(t, TestID{Path: []string{name}}, results.Tests[i].TestID)
		assert.Equal(t, i, results.Tests[i].Index)
	}
	assert.Equal(t, OutcomePassed, results.Tests[0].Outcome)
	assert.Equal(t, OutcomeFailed, results.Tests[1].Outcome)
	assert.Equal(t, OutcomePassed, results.Tests[2].Outcome)

	require.Len(t, results.Tests[1].Errors, 2)
	assert.Equal(t, "failed because reasons", results.Tests[1].Errors[0].Error())
	assert.Equal(t, "and failed some more", results.Tests[1].Errors[1].Error())
	assert.Equal(t, results.Tests[1], results.Failures[0])
}

func TestContextTimedOutResult(t *testing.T) {
	results, err := Run(nil, nil, func(c *Context) {
		c.Run("slow", func(c *Context) {
			c.TimedOut("no response within %s", "6s")
		})
	})
	require.NoError(t, err)
	require.Len(t, results.Tests, 1)
	assert.Equal(t, OutcomeTimedOut, results.Tests[0].Outcome)
	require.Len(t, results.Tests[0].Errors, 1)
	assert.Equal(t, "no response within 6s", results.Tests[0].Errors[0].Error())
	assert.Len(t, results.Failures, 1)
}

func TestContextSkippedResult(t *testing.T) {
	results, err := Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) {
			c.SkipWithReason("why not")
		})
	})
	require.NoError(t, err)
	assert.True(t, results.OK())
	require.Len(t, results.Tests, 1)
	assert.Equal(t, OutcomeSkipped, results.Tests[0].Outcome)
}

func TestContextFilteredTestsAreRecordedAsSkipped(t *testing.T) {
	var ran []string
	filter := func(id TestID) bool { return id.Name() != "b" }
	logger := &recordingTestLogger{}
	results, err := Run(filter, logger, func(c *Context) {
		for _, name := range []string{"a", "b", "c"} {
			name := name
			c.Run(name, func(c *Context) {
				ran = append(ran, name)
			})
		}
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, ran)
	require.Len(t, results.Tests, 3)
	assert.Equal(t, OutcomePassed, results.Tests[0].Outcome)
	assert.Equal(t, OutcomeSkipped, results.Tests[1].Outcome)
	assert.Equal(t, 1, results.Tests[1].Index)
	assert.Equal(t, OutcomePassed, results.Tests[2].Outcome)
	assert.Equal(t, []string{"a", "c"}, logger.finished)
	assert.Equal(t, []string{"b"}, logger.skipped)
}

func TestContextUnexpectedPanicFailsTest(t *testing.T) {
	results, err := Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) {
			panic("oops")
		})
	})
	require.NoError(t, err)
	require.Len(t, results.Tests, 1)
	assert.Equal(t, OutcomeFailed, results.Tests[0].Outcome)
	require.Len(t, results.Tests[0].Errors, 1)
	assert.Contains(t, results.Tests[0].Errors[0].Error(), "unexpected panic in test: oops")
}

func TestContextAbortStopsRun(t *testing.T) {
	cause := errors.New("connection lost")
	executedAfterAbort := false
	results, err := Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) {})
		c.Run("b", func(c *Context) {
			c.Abort(cause)
			executedAfterAbort = true
		})
		c.Run("c", func(c *Context) {
			executedAfterAbort = true
		})
	})
	require.Error(t, err)
	assert.False(t, executedAfterAbort)
	assert.True(t, errors.Is(err, cause))

	var failure TestFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "b", failure.ID.Name())

	require.Len(t, results.Tests, 1)
	assert.Equal(t, "a", results.Tests[0].TestID.Name())
}

func TestContextDebugOutputIsCaptured(t *testing.T) {
	logger := &recordingTestLogger{}
	_, _ = Run(nil, logger, func(c *Context) {
		c.Run("a", func(c *Context) {
			c.Debug("hello %s", "there")
		})
	})
	require.Len(t, logger.debugOutput, 1)
	require.Len(t, logger.debugOutput[0], 1)
	assert.Equal(t, "hello there", logger.debugOutput[0][0].Message)
}

type recordingTestLogger struct {
	finished    []string
	skipped     []string
	debugOutput []CapturedOutput
}

func (r *recordingTestLogger) TestStarted(TestID)      {}
func (r *recordingTestLogger) TestError(TestID, error) {}
func (r *recordingTestLogger) TestFinished(id TestID, result TestResult, debugOutput CapturedOutput) {
	r.finished = append(r.finished, id.Name())
	r.debugOutput = append(r.debugOutput, debugOutput)
}
func (r *recordingTestLogger) TestSkipped(id TestID, reason string) {
	r.skipped = append(r.skipped, id.Name())
}
func (r *recordingTestLogger) EndLog(Results) error { return nil }
