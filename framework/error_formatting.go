package framework

import (
	"errors"
	"strings"
)

// Puts the message from a testify/assert failure first and drops the trace lines that only
// point into the test framework itself.
func reformatError(err error) error {
	if err == nil {
		return nil
	}
	traces, messages, ok := parseTestifyFailureMessage(err.Error())
	if !ok {
		return err
	}
	out := append([]string(nil), messages...)
	var kept []string
	for _, line := range traces {
		if strings.Contains(line, "context.go") {
			break
		}
		kept = append(kept, "  "+line)
	}
	if len(kept) > 0 {
		out = append(out, "Error trace:")
		out = append(out, kept...)
	}
	return errors.New(strings.Join(out, "\n"))
}

func parseTestifyFailureMessage(msg string) ([]string, []string, bool) {
	if !strings.Contains(msg, "Error Trace:") {
		return nil, nil, false
	}
	var traces []string
	var messages []string
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case len(messages) > 0:
			messages = append(messages, line)
		case len(traces) > 0:
			if strings.HasPrefix(line, "Error:") {
				messages = append(messages, strings.TrimSpace(strings.TrimPrefix(line, "Error:")))
			} else {
				traces = append(traces, line)
			}
		default:
			if strings.HasPrefix(line, "Error Trace:") {
				traces = append(traces, strings.TrimSpace(strings.TrimPrefix(line, "Error Trace:")))
			}
		}
	}
	return traces, messages, len(traces) > 0 && len(messages) > 0
}
