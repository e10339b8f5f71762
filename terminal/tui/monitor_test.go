package tui

import (
	"strings"
	"testing"

	"github.com/lixenwraith/termbridge/terminal"
)

// stubHost is a fixed-size host recording output
type stubHost struct {
	cols, rows int
	sink       terminal.InputSink
	out        strings.Builder
}

func (h *stubHost) Listen(sink terminal.InputSink) (func(), error) {
	h.sink = sink
	return func() {}, nil
}
func (h *stubHost) Size() (int, int)           { return h.cols, h.rows }
func (h *stubHost) PixelSize() (int, int)      { return 0, 0 }
func (h *stubHost) CursorPosition() (int, int) { return 0, 0 }
func (h *stubHost) Write(p []byte) error {
	h.out.Write(p)
	return nil
}

// TestMonitorDraw verifies the title, event lines and status reach the host
func TestMonitorDraw(t *testing.T) {
	host := &stubHost{cols: 80, rows: 10}
	s, err := terminal.NewSession(host, terminal.Options{ColorMode: terminal.ColorMode256})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer s.Close()

	m := NewMonitor(s, "bridge", 16)
	m.Add(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyUp, Modifiers: terminal.ModCtrl})
	m.Note("page %s", "connected")

	if err := m.Draw(); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	out := host.out.String()
	for _, want := range []string{"bridge", "key ctrl+up", "page connected", "80x10", "events 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}

	host.out.Reset()
	host.cols = 40
	if err := m.Draw(); err != nil {
		t.Fatalf("Draw after resize failed: %v", err)
	}
	if !strings.Contains(host.out.String(), "40x10") {
		t.Error("Expected status to reflect new size")
	}
}
