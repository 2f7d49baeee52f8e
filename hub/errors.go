package hub

import (
	"errors"
	"fmt"
	"syscall"
)

// ConnectError means the initial connection to the hub could not be established.
type ConnectError struct {
	URL string

	// StatusCode is the HTTP status of a rejected WebSocket handshake, or 0 if the hub
	// was never reached.
	StatusCode int

	Err error
}

func (e *ConnectError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("could not connect to hub at %s (HTTP status %d): %s", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("could not connect to hub at %s: %s", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// IsConnectionRefused returns true if err was caused by the remote end refusing a TCP
// connection.
func IsConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
