package network

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/termbridge/terminal"
)

// Service wraps Server as a hub-managed service
type Service struct {
	config  *Config
	handler Handler
	log     logrus.FieldLogger
	server  *Server

	disabled atomic.Bool
}

// NewService creates a network service with default config
func NewService() *Service {
	return &Service{
		config: DefaultConfig(),
	}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "network"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return nil
}

// Init implements service.Service
// args[0]: *Config (optional, overrides default)
// args[1]: Handler (required unless disabled)
// args[2]: logrus.FieldLogger (optional)
func (s *Service) Init(args ...any) error {
	if len(args) > 0 {
		if cfg, ok := args[0].(*Config); ok && cfg != nil {
			s.config = cfg
		}
	}
	if len(args) > 1 {
		switch h := args[1].(type) {
		case Handler:
			s.handler = h
		case func(context.Context, *Conn, *terminal.Session):
			s.handler = h
		case nil:
		default:
			return fmt.Errorf("network: args[1] is %T, want Handler", h)
		}
	}
	if len(args) > 2 {
		if l, ok := args[2].(logrus.FieldLogger); ok {
			s.log = l
		}
	}

	if s.config.Address == "" {
		s.disabled.Store(true)
		return nil
	}
	if s.handler == nil {
		return errors.New("network: handler required")
	}

	s.server = NewServer(*s.config, s.handler, s.log)
	return nil
}

// Start implements service.Service
func (s *Service) Start() error {
	if s.disabled.Load() || s.server == nil {
		return nil
	}
	return s.server.Start()
}

// Stop implements service.Service
func (s *Service) Stop() error {
	if s.server != nil {
		return s.server.Stop()
	}
	return nil
}

// Server returns the underlying server, nil when disabled
func (s *Service) Server() *Server {
	return s.server
}

// IsRunning returns true if the listener is active
func (s *Service) IsRunning() bool {
	return s.server != nil && s.server.IsRunning()
}
