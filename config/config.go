// Package config loads termbridge settings from a TOML file.
//
// Layout:
//
//	[relay]
//	capacity = 32
//	overflow = "drop_newest"   # or "drop_oldest"
//	carry_partial = true
//	max_pending = 65536
//	color_mode = "auto"        # "256", "truecolor"
//
//	[server]
//	address = ":7777"
//	path = "/ws"
//	max_conns = 16
//	heartbeat = "10s"
//
//	[log]
//	level = "info"
//	format = "text"            # or "json"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/termbridge/network"
	"github.com/lixenwraith/termbridge/terminal"
)

// FileName is the config file name under the user config directory
const FileName = "termbridge.toml"

// ErrUnknownKeys reports keys present in the file but not in Config
var ErrUnknownKeys = errors.New("unknown config keys")

// Config mirrors the TOML file
type Config struct {
	Relay  RelayConfig  `toml:"relay"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// RelayConfig configures the byte relay and event stream
type RelayConfig struct {
	Capacity     int    `toml:"capacity"`
	Overflow     string `toml:"overflow"`
	CarryPartial bool   `toml:"carry_partial"`
	MaxPending   int    `toml:"max_pending"`
	ColorMode    string `toml:"color_mode"`
}

// ServerConfig configures the websocket bridge
type ServerConfig struct {
	Address        string        `toml:"address"`
	Path           string        `toml:"path"`
	AllowedOrigins []string      `toml:"allowed_origins,omitempty"`
	MaxConns       int           `toml:"max_conns"`
	AcceptRate     float64       `toml:"accept_rate"`
	AcceptBurst    int           `toml:"accept_burst"`
	Heartbeat      time.Duration `toml:"heartbeat"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in settings
func Default() *Config {
	n := network.DefaultConfig()
	return &Config{
		Relay: RelayConfig{
			Capacity:     terminal.DefaultQueueCapacity,
			Overflow:     terminal.DropNewest.String(),
			CarryPartial: true,
			MaxPending:   terminal.DefaultMaxPending,
			ColorMode:    "auto",
		},
		Server: ServerConfig{
			Address:      n.Address,
			Path:         n.Path,
			MaxConns:     n.MaxConns,
			AcceptRate:   n.AcceptRate,
			AcceptBurst:  n.AcceptBurst,
			Heartbeat:    n.HeartbeatInterval,
			ReadTimeout:  n.ReadTimeout,
			WriteTimeout: n.WriteTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Path returns the default config file path.
// Respects XDG_CONFIG_HOME if set, otherwise uses ~/.config/termbridge.toml
func Path() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, FileName)
}

// Load reads path over the defaults. A missing file or empty path yields
// the defaults; unknown keys and invalid values are errors.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // Missing config is fine
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: %w: %s", path, ErrUnknownKeys, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML, e.g. to generate a starting file
func Write(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks enumerated values and ranges
func (c *Config) Validate() error {
	if _, ok := terminal.ParseOverflowPolicy(c.Relay.Overflow); !ok {
		return fmt.Errorf("relay.overflow: unknown policy %q", c.Relay.Overflow)
	}
	if _, ok := terminal.ParseColorMode(c.Relay.ColorMode); !ok {
		return fmt.Errorf("relay.color_mode: unknown mode %q", c.Relay.ColorMode)
	}
	if c.Relay.Capacity < 0 {
		return fmt.Errorf("relay.capacity: must not be negative, got %d", c.Relay.Capacity)
	}
	if c.Relay.MaxPending < 0 {
		return fmt.Errorf("relay.max_pending: must not be negative, got %d", c.Relay.MaxPending)
	}
	if c.Server.MaxConns < 0 {
		return fmt.Errorf("server.max_conns: must not be negative, got %d", c.Server.MaxConns)
	}
	if c.Server.Path != "" && !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server.path: must start with '/', got %q", c.Server.Path)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}

// RelayOptions converts the relay section; log may be nil
func (c *Config) RelayOptions(log logrus.FieldLogger) terminal.Options {
	overflow, _ := terminal.ParseOverflowPolicy(c.Relay.Overflow)
	mode, _ := terminal.ParseColorMode(c.Relay.ColorMode)
	return terminal.Options{
		QueueCapacity: c.Relay.Capacity,
		Overflow:      overflow,
		DisableCarry:  !c.Relay.CarryPartial,
		MaxPending:    c.Relay.MaxPending,
		ColorMode:     mode,
		Logger:        log,
	}
}

// NetworkConfig converts the server section, embedding the relay options
func (c *Config) NetworkConfig(log logrus.FieldLogger) *network.Config {
	n := network.DefaultConfig()
	n.Address = c.Server.Address
	if c.Server.Path != "" {
		n.Path = c.Server.Path
	}
	n.AllowedOrigins = c.Server.AllowedOrigins
	n.MaxConns = c.Server.MaxConns
	n.AcceptRate = c.Server.AcceptRate
	n.AcceptBurst = c.Server.AcceptBurst
	n.HeartbeatInterval = c.Server.Heartbeat
	n.ReadTimeout = c.Server.ReadTimeout
	n.WriteTimeout = c.Server.WriteTimeout
	n.Relay = c.RelayOptions(log)
	return n
}

// NewLogger builds a logger from the log section writing to out
func (c *Config) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l, nil
}
