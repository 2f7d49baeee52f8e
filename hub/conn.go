package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wp3-solutions/dht-contract-tests/framework"
)

const (
	defaultHandshakeTimeout = time.Second * 10
	closeWriteTimeout       = time.Second
	frameBufferSize         = 100
)

// ErrReceiveTimeout is returned by Receive when no frame arrived within the timeout. The
// connection is still usable afterward.
var ErrReceiveTimeout = errors.New("timed out waiting for a frame from the hub")

// ErrConnectionClosed is returned by Receive once the hub has closed the connection and all
// buffered frames have been consumed.
var ErrConnectionClosed = errors.New("connection to the hub was closed")

// Conn is a WebSocket connection to the hub. A single goroutine reads frames into a buffer,
// so that a Receive that times out does not disturb the underlying socket.
type Conn struct {
	ws        *websocket.Conn
	url       string
	logger    framework.Logger
	items     chan frameItem
	done      chan struct{}
	closeOnce sync.Once
	writeLock sync.Mutex
}

type frameItem struct {
	frame string
	err   error
}

// Dial opens a connection to the hub at url. If the hub cannot be reached the error is a
// *ConnectError.
func Dial(ctx context.Context, url string, logger framework.Logger) (*Conn, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: defaultHandshakeTimeout,
	}
	logger.Printf("Connecting to %s", url)
	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		status := 0
		if resp != nil {
			status = resp.StatusCode
			if resp.Body != nil {
				_ = resp.Body.Close()
			}
		}
		return nil, &ConnectError{URL: url, StatusCode: status, Err: err}
	}
	logger.Printf("Connected to %s", url)

	c := &Conn{
		ws:     ws,
		url:    url,
		logger: logger,
		items:  make(chan frameItem, frameBufferSize),
		done:   make(chan struct{}),
	}
	go c.readFrames()
	return c, nil
}

// URL returns the address this connection was opened with.
func (c *Conn) URL() string {
	return c.url
}

func (c *Conn) readFrames() {
	defer close(c.items)
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = ErrConnectionClosed
			} else {
				err = fmt.Errorf("I/O error reading from hub: %w", err)
			}
			c.push(frameItem{err: err})
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		c.logger.Printf("Received: %s", string(data))
		if !c.push(frameItem{frame: string(data)}) {
			return
		}
	}
}

func (c *Conn) push(item frameItem) bool {
	select {
	case c.items <- item:
		return true
	case <-c.done:
		return false
	}
}

// Send writes a single text frame.
func (c *Conn) Send(ctx context.Context, data []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.ws.SetWriteDeadline(deadline)
		defer func() { _ = c.ws.SetWriteDeadline(time.Time{}) }()
	}
	c.logger.Printf("Sending: %s", string(data))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("I/O error writing to hub: %w", err)
	}
	return nil
}

// Receive waits up to timeout for the next inbound frame. A timeout of zero or less checks
// only for a frame that has already arrived. It returns ErrReceiveTimeout if nothing arrived,
// ctx.Err() if the context was cancelled first, or the error that ended the connection.
func (c *Conn) Receive(ctx context.Context, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if timeout <= 0 {
		select {
		case item, ok := <-c.items:
			return unwrapItem(item, ok)
		default:
			return "", ErrReceiveTimeout
		}
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case item, ok := <-c.items:
		return unwrapItem(item, ok)
	case <-deadline.C:
		return "", ErrReceiveTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func unwrapItem(item frameItem, ok bool) (string, error) {
	if !ok {
		return "", ErrConnectionClosed
	}
	if item.err != nil {
		return "", item.err
	}
	return item.frame, nil
}

// Close sends a close frame and releases the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeLock.Lock()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout),
		)
		c.writeLock.Unlock()
		err = c.ws.Close()
		c.logger.Printf("Closed connection to %s", c.url)
	})
	return err
}
