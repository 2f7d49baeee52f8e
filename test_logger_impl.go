package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/wp3-solutions/dht-contract-tests/framework"
)

var consolePassColor = color.New(color.FgGreen)                //nolint:gochecknoglobals
var consoleFailColor = color.New(color.FgRed)                  //nolint:gochecknoglobals
var consoleTestErrorColor = color.New(color.FgYellow)          //nolint:gochecknoglobals
var consoleSkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)           //nolint:gochecknoglobals

// ConsoleTestLogger prints one line per test: the target label and a colored outcome.
// Failure details and captured debug output are printed underneath when enabled.
type ConsoleTestLogger struct {
	Out                  io.Writer
	ShowErrors           bool
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleTestLogger) TestStarted(id framework.TestID) {}

// Errors are printed with the outcome line in TestFinished, so that each test's line is
// not split by messages that arrive while it is running.
func (c ConsoleTestLogger) TestError(id framework.TestID, err error) {}

func (c ConsoleTestLogger) TestFinished(
	id framework.TestID,
	result framework.TestResult,
	debugOutput framework.CapturedOutput,
) {
	failed := result.Outcome.Failed()
	fmt.Fprintf(c.Out, "Test %s: ", id.Name())
	if failed {
		_, _ = consoleFailColor.Fprintln(c.Out, result.Outcome)
	} else {
		_, _ = consolePassColor.Fprintln(c.Out, result.Outcome)
	}
	if failed && c.ShowErrors {
		for _, err := range result.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				_, _ = consoleTestErrorColor.Fprintf(c.Out, "  %s\n", line)
			}
		}
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Fprintln(c.Out, debugOutput.ToString("    DEBUG "))
	}
}

func (c ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	fmt.Fprintf(c.Out, "Test %s: ", id.Name())
	if reason == "" {
		_, _ = consoleSkippedColor.Fprintln(c.Out, "SKIPPED")
	} else {
		_, _ = consoleSkippedColor.Fprintf(c.Out, "SKIPPED (%s)\n", reason)
	}
}

func (c ConsoleTestLogger) EndLog(results framework.Results) error {
	fmt.Fprintln(c.Out)
	if results.OK() {
		_, _ = consolePassColor.Fprintln(c.Out, "All tests passed")
		return nil
	}
	_, _ = consoleFailColor.Fprintf(c.Out, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		_, _ = consoleFailColor.Fprintf(c.Out, "  * %s: %s\n", f.TestID, f.Outcome)
	}
	return nil
}
