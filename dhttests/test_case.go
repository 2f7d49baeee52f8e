package dhttests

import (
	"regexp"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// DefaultWindow is how long each test case waits for its response.
const DefaultWindow = time.Second * 6

// DefaultMessage is the payload published by every built-in test case.
const DefaultMessage = "on"

// TestCase is one command/response/validation triple. Test cases are built before the run
// starts and are not modified afterward.
type TestCase struct {
	Index         int
	Target        string
	OutgoingTopic string
	IncomingTopic string
	Message       string
	Expected      *regexp.Regexp

	// TimeoutMS, if defined, replaces the suite's window for this case.
	TimeoutMS ldvalue.OptionalInt
}

// Window returns how long this case waits for a response.
func (tc TestCase) Window(suiteWindow time.Duration) time.Duration {
	if tc.TimeoutMS.IsDefined() {
		return time.Duration(tc.TimeoutMS.IntValue()) * time.Millisecond
	}
	return suiteWindow
}

// DefaultTestCases returns the built-in suite for the group OSCORE, CoAP and EDHOC clients.
func DefaultTestCases() []TestCase {
	return []TestCase{
		{
			Index:         0,
			Target:        "Group OSCORE Client",
			OutgoingTopic: "command_dev2",
			IncomingTopic: "output_dev2",
			Message:       DefaultMessage,
			Expected: regexp.MustCompile(
				"Response #1.*Payload: ON.*Response #2.*Payload: ON.*Response #3.*Payload: ON"),
		},
		{
			Index:         1,
			Target:        "CoAP Client",
			OutgoingTopic: "command_co",
			IncomingTopic: "output_co",
			Message:       DefaultMessage,
			Expected:      regexp.MustCompile("Response #1.*UNAUTHORIZED"),
		},
		{
			Index:         2,
			Target:        "EDHOC Client",
			OutgoingTopic: "command_ed",
			IncomingTopic: "output_ed",
			Message:       DefaultMessage,
			Expected:      regexp.MustCompile("Response #1.*Payload: Turning on light"),
		},
	}
}
