package network

import (
	"crypto/tls"
	"time"

	"github.com/lixenwraith/termbridge/terminal"
)

// Config holds websocket bridge configuration
type Config struct {
	// Address to bind; empty disables the service
	Address string

	// Path serving the websocket endpoint
	Path string

	// TLS configuration (nil = plaintext, debug only)
	TLS *tls.Config

	// AllowedOrigins lists page origins accepted on upgrade.
	// Empty keeps the same-origin check, "*" accepts any origin.
	AllowedOrigins []string

	// Connection limits
	MaxConns    int
	AcceptRate  float64 // Upgrades per second, 0 = unlimited
	AcceptBurst int

	// Timing
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	HeartbeatInterval time.Duration

	// Buffer sizes
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	SendQueueSize   int

	// Relay options applied to every session
	Relay terminal.Options
}

// DefaultConfig returns production-safe defaults
func DefaultConfig() *Config {
	return &Config{
		Address:           ":7777",
		Path:              "/ws",
		TLS:               nil, // Must be explicitly configured for production
		MaxConns:          16,
		AcceptRate:        10,
		AcceptBurst:       20,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		ReadBufferSize:    16 * 1024,
		WriteBufferSize:   64 * 1024,
		MaxMessageSize:    1 << 20,
		SendQueueSize:     256,
	}
}

// DebugConfig returns config with TLS disabled and any origin accepted, for local testing
func DebugConfig(addr string) *Config {
	cfg := DefaultConfig()
	cfg.Address = addr
	cfg.TLS = nil
	cfg.AllowedOrigins = []string{"*"}
	return cfg
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Path == "" {
		c.Path = d.Path
	}
	if c.MaxConns <= 0 {
		c.MaxConns = d.MaxConns
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HeartbeatInterval <= 0 || c.HeartbeatInterval >= c.ReadTimeout {
		c.HeartbeatInterval = c.ReadTimeout / 3
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = d.WriteBufferSize
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = d.SendQueueSize
	}
	return c
}
