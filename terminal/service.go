package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// SessionService runs a Session as a long-lived service, pumping decoded
// events into a channel. It satisfies service.Service.
type SessionService struct {
	host    Host
	opts    Options
	session *Session
	log     logrus.FieldLogger

	eventCh chan Event
	errCh   chan error
	cancel  context.CancelFunc
	doneCh  chan struct{}

	stopping atomic.Bool

	mu      sync.Mutex
	running bool
}

// NewService creates an unconfigured session service
func NewService() *SessionService {
	return &SessionService{
		eventCh: make(chan Event, 256),
		errCh:   make(chan error, 1),
		doneCh:  make(chan struct{}),
	}
}

// Name implements Service
func (s *SessionService) Name() string {
	return "terminal"
}

// Dependencies implements Service
func (s *SessionService) Dependencies() []string {
	return nil
}

// Init implements Service
// args[0]: Host (required), args[1]: Options (optional)
func (s *SessionService) Init(args ...any) error {
	if len(args) == 0 {
		return errors.New("terminal service: host argument required")
	}
	host, ok := args[0].(Host)
	if !ok {
		return fmt.Errorf("terminal service: args[0] is %T, want Host", args[0])
	}
	if len(args) > 1 {
		if opts, ok := args[1].(Options); ok {
			s.opts = opts
		}
	}
	s.opts = s.opts.withDefaults()
	s.host = host
	s.log = s.opts.Logger.WithField("service", s.Name())

	session, err := NewSession(host, s.opts)
	if err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	s.session = session
	return nil
}

// Start implements Service - launches the event pump
func (s *SessionService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.session == nil {
		return errors.New("terminal service: not initialized")
	}

	stream, err := s.session.NewStream()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	go s.pump(ctx, stream)
	return nil
}

// pump forwards events until the stream ends or Stop cancels it
func (s *SessionService) pump(ctx context.Context, stream *Stream) {
	defer close(s.doneCh)
	defer close(s.eventCh)
	defer close(s.errCh)

	for ev, err := range stream.All(ctx) {
		if err != nil {
			if errors.Is(err, ErrMalformed) {
				s.log.WithError(err).Debug("malformed input skipped")
				continue
			}
			s.report(err)
			return
		}

		select {
		case s.eventCh <- ev:
		case <-ctx.Done():
			return
		}
	}
	s.report(io.EOF)
}

// report records the pump's exit cause unless Stop caused it
func (s *SessionService) report(err error) {
	if s.stopping.Load() || errors.Is(err, context.Canceled) {
		return
	}
	s.errCh <- err
}

// Stop implements Service - closes the session and waits for the pump
func (s *SessionService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		if s.session != nil {
			return s.session.Close()
		}
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.stopping.Store(true)
	s.cancel()
	err := s.session.Close()
	<-s.doneCh
	return err
}

// Session returns the wrapped session
func (s *SessionService) Session() *Session {
	return s.session
}

// Events returns the event channel, closed when the pump exits
func (s *SessionService) Events() <-chan Event {
	return s.eventCh
}

// Done reports why the pump exited: io.EOF after session teardown, or the
// stream error. It is closed when the pump exits; after Stop it is closed
// without a value.
func (s *SessionService) Done() <-chan error {
	return s.errCh
}
