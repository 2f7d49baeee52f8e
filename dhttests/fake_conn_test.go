package dhttests

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wp3-solutions/dht-contract-tests/hub"
	"github.com/wp3-solutions/dht-contract-tests/servicedef"
)

type fakeClock struct {
	now  time.Time
	lock sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.lock.Lock()
	c.now = c.now.Add(d)
	c.lock.Unlock()
}

type fakeFrame struct {
	after time.Duration
	text  string
}

// fakeConn simulates the hub on a fake clock. Each queued frame arrives after its delay,
// measured from the previous receive; a receive that has nothing to deliver in time uses up
// its whole timeout.
type fakeConn struct {
	clock      *fakeClock
	frames     []fakeFrame
	replies    map[string][]fakeFrame
	sent       [][]byte
	timeouts   []time.Duration
	sendErr    error
	receiveErr error

	// earlyTimeouts is the number of receives that give up after one second, even when
	// they were allowed to wait longer.
	earlyTimeouts int
}

func newFakeConn(clock *fakeClock) *fakeConn {
	return &fakeConn{clock: clock, replies: make(map[string][]fakeFrame)}
}

func (f *fakeConn) queue(after time.Duration, texts ...string) {
	for _, text := range texts {
		f.frames = append(f.frames, fakeFrame{after: after, text: text})
	}
}

func (f *fakeConn) Send(ctx context.Context, data []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, data)
	var cmd servicedef.CommandEnvelope
	if err := json.Unmarshal(data, &cmd); err == nil {
		f.frames = append(f.frames, f.replies[cmd.Topic()]...)
	}
	return nil
}

func (f *fakeConn) Receive(ctx context.Context, timeout time.Duration) (string, error) {
	f.timeouts = append(f.timeouts, timeout)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.receiveErr != nil {
		return "", f.receiveErr
	}
	if f.earlyTimeouts > 0 && timeout > time.Second {
		f.earlyTimeouts--
		f.clock.advance(time.Second)
		return "", hub.ErrReceiveTimeout
	}
	if len(f.frames) == 0 || f.frames[0].after > timeout {
		if len(f.frames) > 0 {
			f.frames[0].after -= timeout
		}
		f.clock.advance(timeout)
		return "", hub.ErrReceiveTimeout
	}
	next := f.frames[0]
	f.frames = f.frames[1:]
	f.clock.advance(next.after)
	return next.text, nil
}

func outputFrame(topic, message string) string {
	data, _ := json.Marshal(servicedef.NewCommandEnvelope(topic, message))
	return string(data)
}
