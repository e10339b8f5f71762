package tui

import (
	"fmt"

	"github.com/lixenwraith/termbridge/terminal"
)

var (
	monitorBg     = terminal.RGB{R: 20, G: 20, B: 30}
	monitorTitle  = terminal.RGB{R: 200, G: 200, B: 200}
	monitorBar    = terminal.RGB{R: 40, G: 40, B: 60}
	monitorRule   = terminal.RGB{R: 60, G: 60, B: 80}
	monitorText   = terminal.RGB{R: 180, G: 180, B: 180}
	monitorStatus = terminal.RGB{R: 140, G: 140, B: 160}
)

// Monitor draws a title, a scrolling event log and a status line for one
// session. It is not safe for concurrent use.
type Monitor struct {
	session *terminal.Session
	title   string
	log     *Log
	cells   []terminal.Cell
	w, h    int
	events  uint64
}

// NewMonitor creates a monitor keeping up to logSize event lines
func NewMonitor(s *terminal.Session, title string, logSize int) *Monitor {
	return &Monitor{
		session: s,
		title:   title,
		log:     NewLog(logSize),
	}
}

// Add records an event line
func (m *Monitor) Add(ev terminal.Event) {
	m.events++
	m.log.Add(ev.String())
}

// Note records a free-form line
func (m *Monitor) Note(format string, args ...any) {
	m.log.Add(fmt.Sprintf(format, args...))
}

// Draw renders the current state at the session's window size
func (m *Monitor) Draw() error {
	size, err := m.session.WindowSize()
	if err != nil {
		return err
	}
	w, h := size.Columns, size.Rows
	if w <= 0 || h <= 0 {
		return nil
	}
	if w != m.w || h != m.h {
		m.w, m.h = w, h
		m.cells = make([]terminal.Cell, w*h)
	}

	region := NewRegion(m.cells, w, 0, 0, w, h)
	region.Fill(monitorBg)

	region.TextCenter(0, m.title, monitorTitle, monitorBar, terminal.AttrBold)
	region.HLine(1, LineSingle, monitorRule)

	if h > 4 {
		m.log.Draw(region.Sub(1, 2, w-2, h-4), monitorText, monitorBg)
	}

	stats := m.session.Relay().Stats()
	x, y, _ := m.session.CursorPosition()
	status := fmt.Sprintf("%dx%d (%dx%d px) | events %d | chunks %d dropped %d | cursor %d,%d",
		w, h, size.Width, size.Height, m.events, stats.Pushed, stats.Dropped, x, y)
	region.HLine(h-2, LineSingle, monitorRule)
	region.Text(1, h-1, status, monitorStatus, monitorBg, terminal.AttrNone)

	return m.session.Renderer().Flush(m.cells, w, h)
}
