package dhttests

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wp3-solutions/dht-contract-tests/framework"
	"github.com/wp3-solutions/dht-contract-tests/hub"
)

var errNoMatchingFrame = errors.New("no matching frame before the deadline")

// awaitMatchingFrame returns the first frame that contains topic. The deadline is fixed when
// the wait starts: every receive is given only the time that is left, so frames on other
// topics are discarded without extending the wait.
func awaitMatchingFrame(
	ctx context.Context,
	conn HubConnection,
	topic string,
	window time.Duration,
	now func() time.Time,
	logger framework.Logger,
) (string, error) {
	deadline := now().Add(window)
	for {
		remaining := deadline.Sub(now())
		if remaining <= 0 {
			return "", errNoMatchingFrame
		}
		frame, err := conn.Receive(ctx, remaining)
		if err != nil {
			if errors.Is(err, hub.ErrReceiveTimeout) {
				continue
			}
			return "", err
		}
		if !strings.Contains(frame, topic) {
			logger.Printf("Skipping frame without %q: %s", topic, frame)
			continue
		}
		logger.Printf("Response: %s", frame)
		return frame, nil
	}
}
