package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/termbridge/terminal"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

// TestLoadMissing verifies a missing file yields defaults
func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Relay.Capacity != terminal.DefaultQueueCapacity {
		t.Errorf("Expected capacity %d, got %d", terminal.DefaultQueueCapacity, cfg.Relay.Capacity)
	}
	if !cfg.Relay.CarryPartial {
		t.Error("Expected carry_partial on by default")
	}
}

// TestLoadOverrides verifies file values override defaults and convert to options
func TestLoadOverrides(t *testing.T) {
	path := writeFile(t, `
[relay]
capacity = 8
overflow = "drop_oldest"
carry_partial = false
color_mode = "truecolor"

[server]
address = "127.0.0.1:9000"
allowed_origins = ["http://localhost:3000"]
heartbeat = "2s"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	opts := cfg.RelayOptions(nil)
	if opts.QueueCapacity != 8 || opts.Overflow != terminal.DropOldest || !opts.DisableCarry {
		t.Errorf("Unexpected relay options %+v", opts)
	}
	if opts.ColorMode != terminal.ColorModeTrueColor {
		t.Errorf("Expected truecolor, got %s", opts.ColorMode)
	}
	if opts.MaxPending != terminal.DefaultMaxPending {
		t.Errorf("Expected default max_pending kept, got %d", opts.MaxPending)
	}

	n := cfg.NetworkConfig(nil)
	if n.Address != "127.0.0.1:9000" || n.Path != "/ws" {
		t.Errorf("Unexpected address/path %q %q", n.Address, n.Path)
	}
	if n.HeartbeatInterval != 2*time.Second {
		t.Errorf("Expected heartbeat 2s, got %v", n.HeartbeatInterval)
	}
	if len(n.AllowedOrigins) != 1 || n.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("Unexpected origins %v", n.AllowedOrigins)
	}
	if n.Relay.Overflow != terminal.DropOldest {
		t.Error("Expected relay options embedded in network config")
	}

	log, err := cfg.NewLogger(&bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", log.GetLevel())
	}
}

// TestLoadErrors verifies unknown keys, bad values and syntax are rejected
func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[relay]\ncapcity = 3\n", "relay.capcity"},
		{"bad overflow", "[relay]\noverflow = \"drop_all\"\n", "relay.overflow"},
		{"bad color", "[relay]\ncolor_mode = \"cga\"\n", "relay.color_mode"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"bad path", "[server]\npath = \"ws\"\n", "server.path"},
		{"syntax", "[relay\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}

	_, err := Load(writeFile(t, "[extra]\nx = 1\n"))
	if !errors.Is(err, ErrUnknownKeys) {
		t.Errorf("Expected ErrUnknownKeys, got %v", err)
	}
}

// TestWriteLoad verifies a written default file loads back unchanged
func TestWriteLoad(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Default()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	cfg, err := Load(writeFile(t, buf.String()))
	if err != nil {
		t.Fatalf("Load failed: %v\n%s", err, buf.String())
	}
	d := Default()
	if cfg.Relay != d.Relay || cfg.Log != d.Log {
		t.Errorf("Relay/log mismatch: %+v %+v", cfg.Relay, cfg.Log)
	}
	if cfg.Server.Heartbeat != d.Server.Heartbeat || cfg.Server.Address != d.Server.Address {
		t.Errorf("Server mismatch: %+v", cfg.Server)
	}
}

// TestPath verifies XDG_CONFIG_HOME takes precedence
func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := Path(); got != filepath.Join("/tmp/xdg", FileName) {
		t.Errorf("Expected XDG path, got %q", got)
	}
}
