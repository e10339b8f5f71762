package terminal

import (
	"errors"
	"fmt"
	"sync"
)

// Session binds one host widget to its relay, stream and renderer.
// It is the explicit handle callers pass around instead of global state.
type Session struct {
	host     Host
	opts     Options
	relay    *Relay
	renderer *Renderer
	stop     func()

	mu     sync.Mutex
	stream *Stream
	closed bool
}

// NewSession creates a relay for host and registers it with Host.Listen
func NewSession(host Host, opts Options) (*Session, error) {
	if host == nil {
		return nil, errors.New("terminal: nil host")
	}
	opts = opts.withDefaults()

	relay := NewRelay(host, opts)
	stop, err := host.Listen(relay)
	if err != nil {
		relay.Close()
		return nil, fmt.Errorf("host listen: %w", err)
	}

	s := &Session{
		host:  host,
		opts:  opts,
		relay: relay,
		stop:  stop,
	}
	s.renderer = NewRenderer(host, relay, opts.ColorMode)
	return s, nil
}

// Relay returns the session's input relay
func (s *Session) Relay() *Relay {
	return s.relay
}

// Renderer returns the session's output renderer
func (s *Session) Renderer() *Renderer {
	return s.renderer
}

// NewStream opens an event stream at the queue head. Any previously opened
// stream is closed first; the queue has a single consumer.
func (s *Session) NewStream() (*Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.stream != nil {
		s.stream.Close()
	}
	s.stream = s.relay.NewStream(s.opts)
	return s.stream, nil
}

// WindowSize is a shorthand for Relay().WindowSize()
func (s *Session) WindowSize() (WindowSize, error) {
	return s.relay.WindowSize()
}

// Size is a shorthand for Relay().Size()
func (s *Session) Size() (cols, rows int, err error) {
	return s.relay.Size()
}

// CursorPosition is a shorthand for Relay().CursorPosition()
func (s *Session) CursorPosition() (x, y int, err error) {
	return s.relay.CursorPosition()
}

// Close unregisters host callbacks and tears down the relay.
// Streams drain what is already queued and then report io.EOF.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.stop != nil {
		s.stop()
	}
	return s.relay.Close()
}
