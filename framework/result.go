package framework

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the final state of a single test.
type Outcome int

const (
	OutcomePassed Outcome = iota
	OutcomeFailed
	OutcomeTimedOut
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "PASS"
	case OutcomeFailed:
		return "FAIL"
	case OutcomeTimedOut:
		return "FAIL (timeout)"
	case OutcomeSkipped:
		return "SKIPPED"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Failed is true for both kinds of failure; a skipped test is not a failure.
func (o Outcome) Failed() bool {
	return o == OutcomeFailed || o == OutcomeTimedOut
}

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID   TestID
	Index    int
	Outcome  Outcome
	Errors   []error
	Duration time.Duration
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// ExitCode maps the results onto the process exit status: 0 if nothing failed, otherwise
// one more than the index of the first failing test.
func (r Results) ExitCode() int {
	for _, t := range r.Tests {
		if t.Outcome.Failed() {
			return t.Index + 1
		}
	}
	return 0
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// Name returns the last path component, which for a top-level test is its target label.
func (t TestID) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

func (f TestFailure) Unwrap() error {
	return f.Err
}
