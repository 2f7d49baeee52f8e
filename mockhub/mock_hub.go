package mockhub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wp3-solutions/dht-contract-tests/framework"
	"github.com/wp3-solutions/dht-contract-tests/servicedef"
)

const (
	hubPath         = "/ws"
	commandBuffer   = 100
	writeTimeout    = time.Second * 5
	maxPendingConns = 10
)

// Server is a simulation of the DHT hub that is instrumented for tests. It accepts WebSocket
// connections, records every publish request it receives, and can answer a command on a
// given topic with canned frames. Tests can also push arbitrary frames at any time.
//
// Server does not route anything between devices. Only one connection is expected at a
// time; a second concurrent connection is reported on Errors.
type Server struct {
	httpServer *httptest.Server
	URL        string
	Errors     chan error
	logger     framework.Logger
	upgrader   websocket.Upgrader
	commands   chan servicedef.CommandEnvelope
	cxnCh      chan *IncomingConnection
	responders map[string][]reply
	activeCxn  *IncomingConnection
	lock       sync.Mutex
}

// IncomingConnection is one WebSocket session opened by the harness.
type IncomingConnection struct {
	headers   http.Header
	data      chan chunk
	closed    chan struct{}
	closeOnce sync.Once
}

type chunk struct {
	data        []byte
	delayBefore time.Duration
}

type reply struct {
	frame string
	delay time.Duration
}

// NewServer starts a mock hub on a local port. The WebSocket endpoint is at URL.
func NewServer(logger framework.Logger) *Server {
	if logger == nil {
		logger = framework.NullLogger()
	}
	s := &Server{
		Errors:     make(chan error, 10),
		logger:     framework.LoggerWithPrefix(logger, "[mock hub] "),
		commands:   make(chan servicedef.CommandEnvelope, commandBuffer),
		cxnCh:      make(chan *IncomingConnection, maxPendingConns),
		responders: make(map[string][]reply),
	}
	s.httpServer = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	s.URL = "ws" + strings.TrimPrefix(s.httpServer.URL, "http") + hubPath
	return s
}

// Respond makes the hub answer every command published on topic with the given frames,
// in order.
func (s *Server) Respond(topic string, frames ...string) {
	s.RespondAfter(topic, 0, frames...)
}

// RespondAfter is like Respond, but waits for delay before sending each frame.
func (s *Server) RespondAfter(topic string, delay time.Duration, frames ...string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, f := range frames {
		s.responders[topic] = append(s.responders[topic], reply{frame: f, delay: delay})
	}
}

// AwaitConnection waits until the harness has connected.
func (s *Server) AwaitConnection(timeout time.Duration) (*IncomingConnection, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case cxn := <-s.cxnCh:
		return cxn, nil
	case err := <-s.Errors:
		return nil, err
	case <-deadline.C:
		return nil, errors.New("timed out waiting for the harness to connect to the mock hub")
	}
}

// AwaitCommand waits for the next publish request from the harness.
func (s *Server) AwaitCommand(timeout time.Duration) (servicedef.CommandEnvelope, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case cmd := <-s.commands:
		return cmd, nil
	case <-deadline.C:
		return servicedef.CommandEnvelope{}, errors.New("timed out waiting for a command on the mock hub")
	}
}

// SendFrame sends a text frame on the active connection, if there is one.
func (s *Server) SendFrame(frame string) {
	s.SendFrameAfter(0, frame)
}

// SendFrameAfter sends a text frame after waiting for delay. Frames are written in the order
// they were queued, so the delay also holds back any frames queued after this one.
func (s *Server) SendFrameAfter(delay time.Duration, frame string) {
	s.lock.Lock()
	cxn := s.activeCxn
	s.lock.Unlock()
	if cxn == nil {
		s.logger.Printf("Not sending frame, no active connection: %s", frame)
		return
	}
	cxn.send(chunk{data: []byte(frame), delayBefore: delay})
}

// Interrupt drops the current connection from the hub side.
func (s *Server) Interrupt() {
	s.lock.Lock()
	cxn := s.activeCxn
	s.lock.Unlock()
	if cxn != nil {
		s.logger.Printf("Deliberately breaking hub connection")
		cxn.close()
	}
}

// Close drops any active connection and stops the server.
func (s *Server) Close() {
	s.Interrupt()
	s.httpServer.Close()
}

func (s *Server) serveHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != hubPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	ws, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.reportError(fmt.Errorf("WebSocket upgrade failed: %w", err))
		return
	}
	defer ws.Close()

	cxn := &IncomingConnection{
		headers: req.Header,
		data:    make(chan chunk, commandBuffer),
		closed:  make(chan struct{}),
	}
	s.lock.Lock()
	if s.activeCxn != nil {
		s.lock.Unlock()
		s.reportError(errors.New("unexpectedly received a connection while the previous connection was still open"))
		return
	}
	s.activeCxn = cxn
	s.lock.Unlock()
	s.logger.Printf("Got connection from harness")
	select { // non-blocking push
	case s.cxnCh <- cxn:
	default:
		s.logger.Printf("Incoming connection channel was full")
	}

	readerDone := make(chan struct{})
	go s.readCommands(ws, cxn, readerDone)

Loop:
	for {
		select {
		case c := <-cxn.data:
			if c.delayBefore > 0 {
				select {
				case <-time.After(c.delayBefore):
				case <-cxn.closed:
					break Loop
				}
			}
			s.logger.Printf("<< sending: %s", string(c.data))
			_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, c.data); err != nil {
				s.reportError(err)
				break Loop
			}
		case <-cxn.closed:
			break Loop
		case <-readerDone:
			break Loop
		}
	}

	s.lock.Lock()
	if s.activeCxn == cxn {
		s.activeCxn = nil
	}
	s.lock.Unlock()
	cxn.close()
}

func (s *Server) readCommands(ws *websocket.Conn, cxn *IncomingConnection, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		s.logger.Printf(">> received: %s", string(data))
		var cmd servicedef.CommandEnvelope
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.reportError(fmt.Errorf("malformed command from harness: %s", string(data)))
			continue
		}
		select { // non-blocking push
		case s.commands <- cmd:
		default:
			s.logger.Printf("Command channel was full, dropping: %s", string(data))
		}

		s.lock.Lock()
		replies := append([]reply(nil), s.responders[cmd.Topic()]...)
		s.lock.Unlock()
		for _, r := range replies {
			cxn.send(chunk{data: []byte(r.frame), delayBefore: r.delay})
		}
	}
}

func (s *Server) reportError(err error) {
	s.logger.Printf("Error: %s", err)
	select { // non-blocking push
	case s.Errors <- err:
	default:
	}
}

// Headers returns the HTTP headers of the WebSocket handshake.
func (c *IncomingConnection) Headers() http.Header {
	return c.headers
}

func (c *IncomingConnection) send(ch chunk) {
	select {
	case c.data <- ch:
	case <-c.closed:
	}
}

func (c *IncomingConnection) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}
