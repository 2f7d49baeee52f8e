package dhttests

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"

	"github.com/wp3-solutions/dht-contract-tests/servicedef"
)

// LoadError provides details about a suite file that could not be used.
type LoadError struct {
	// File is the path of the suite file, if it was loaded from disk.
	File string

	// Case is the index of the offending case, or -1 if the problem is not with one case.
	Case int

	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Case >= 0 {
		msg = fmt.Sprintf("case %d: %s", e.Case, msg)
	}
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Suite is a parsed suite file.
type Suite struct {
	// Window is zero if the file did not set a timeout.
	Window time.Duration
	Cases  []TestCase
}

// ParseSuite parses and validates a suite from YAML bytes. Every case needs a target label,
// both topics, and a pattern that compiles; labels must be unique because they identify the
// tests in filters and reports. A case without a message publishes DefaultMessage.
func ParseSuite(data []byte) (*Suite, error) {
	var params servicedef.SuiteParams
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, &LoadError{Case: -1, Message: "failed to parse YAML", Cause: err}
	}
	if len(params.Cases) == 0 {
		return nil, &LoadError{Case: -1, Message: "suite must have at least one case"}
	}

	suite := &Suite{}
	if params.Timeout != "" {
		window, err := time.ParseDuration(params.Timeout)
		if err != nil {
			return nil, &LoadError{Case: -1, Message: "invalid timeout", Cause: err}
		}
		if window <= 0 {
			return nil, &LoadError{Case: -1, Message: "timeout must be positive"}
		}
		suite.Window = window
	}

	seen := make(map[string]bool)
	for i, p := range params.Cases {
		switch {
		case p.Target == "":
			return nil, &LoadError{Case: i, Message: "target is required"}
		case seen[p.Target]:
			return nil, &LoadError{Case: i, Message: fmt.Sprintf("duplicate target %q", p.Target)}
		case p.OutgoingTopic == "":
			return nil, &LoadError{Case: i, Message: "outgoingTopic is required"}
		case p.IncomingTopic == "":
			return nil, &LoadError{Case: i, Message: "incomingTopic is required"}
		case p.Expect == "":
			return nil, &LoadError{Case: i, Message: "expect is required"}
		case p.TimeoutMS != nil && *p.TimeoutMS <= 0:
			return nil, &LoadError{Case: i, Message: "timeoutMs must be positive"}
		}
		seen[p.Target] = true

		expected, err := regexp.Compile(p.Expect)
		if err != nil {
			return nil, &LoadError{Case: i, Message: "invalid expect pattern", Cause: err}
		}
		message := p.Message
		if message == "" {
			message = DefaultMessage
		}
		suite.Cases = append(suite.Cases, TestCase{
			Index:         i,
			Target:        p.Target,
			OutgoingTopic: p.OutgoingTopic,
			IncomingTopic: p.IncomingTopic,
			Message:       message,
			Expected:      expected,
			TimeoutMS:     ldvalue.NewOptionalIntFromPointer(p.TimeoutMS),
		})
	}
	return suite, nil
}

// LoadSuite reads and parses a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Case: -1, Message: "failed to read file", Cause: err}
	}
	suite, err := ParseSuite(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, err
	}
	return suite, nil
}
