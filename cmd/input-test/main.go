//go:build unix

// input-test puts the local terminal in raw mode and shows every decoded
// input event, with a draggable marker to exercise mouse reporting.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/termbridge/config"
	"github.com/lixenwraith/termbridge/service"
	"github.com/lixenwraith/termbridge/terminal"
	"github.com/lixenwraith/termbridge/terminal/tui"
)

var (
	colorBg     = terminal.RGB{R: 20, G: 20, B: 30}
	colorTitle  = terminal.RGB{R: 200, G: 200, B: 200}
	colorBar    = terminal.RGB{R: 40, G: 40, B: 60}
	colorRule   = terminal.RGB{R: 60, G: 60, B: 80}
	colorText   = terminal.RGB{R: 180, G: 180, B: 180}
	colorStatus = terminal.RGB{R: 140, G: 140, B: 160}
	colorMarker = terminal.RGB{R: 100, G: 255, B: 100}
	colorDrag   = terminal.RGB{R: 255, G: 255, B: 100}
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "input-test: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.Path(), "path to TOML config file")
	logPath := flag.String("log", "", "write debug log to file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// The screen is in raw mode; logs only go to a file
	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	log, err := cfg.NewLogger(logOut)
	if err != nil {
		return err
	}

	host := terminal.NewLocalHost(os.Stdin, os.Stdout, log)
	resized := make(chan struct{}, 1)
	host.OnResize = func(int, int) {
		select {
		case resized <- struct{}{}:
		default:
		}
	}

	svc := terminal.NewService()
	hub := service.NewHub(log)
	if err := hub.Register(svc); err != nil {
		return err
	}
	if err := hub.InitAll(map[string][]any{svc.Name(): {host, cfg.RelayOptions(log)}}); err != nil {
		return err
	}
	if err := hub.StartAll(); err != nil {
		return err
	}
	defer hub.StopAll()

	session := svc.Session()
	r := session.Renderer()
	r.HideCursor()
	r.EnableMouse(true)
	r.EnableBracketedPaste(true)
	defer func() {
		r.EnableBracketedPaste(false)
		r.EnableMouse(false)
		r.Clear(terminal.RGB{})
		r.ShowCursor()
	}()

	s := newScreen(session)
	s.render()

	for {
		select {
		case ev, ok := <-svc.Events():
			if !ok {
				if err := <-svc.Done(); !errors.Is(err, io.EOF) {
					return err
				}
				return nil
			}
			if ev.Type == terminal.EventKey && (ev.Key == terminal.KeyCtrlC || ev.Key == terminal.KeyCtrlQ) {
				return nil
			}
			log.WithField("event", ev.String()).Debug("input")
			s.handle(ev)

		case <-resized:
			size, _ := session.WindowSize()
			s.log.Add(fmt.Sprintf("RESIZE: %dx%d", size.Columns, size.Rows))
		}
		s.render()
	}
}

// screen holds the test UI state
type screen struct {
	session  *terminal.Session
	log      *tui.Log
	cells    []terminal.Cell
	w, h     int
	objX     int
	objY     int
	dragging bool
}

func newScreen(s *terminal.Session) *screen {
	size, _ := s.WindowSize()
	return &screen{
		session: s,
		log:     tui.NewLog(64),
		objX:    size.Columns / 2,
		objY:    size.Rows / 2,
	}
}

func (s *screen) handle(ev terminal.Event) {
	line := ev.String()
	if te, ok := ev.Tcell().(*tcell.EventKey); ok {
		line += " | tcell " + te.Name()
	}
	s.log.Add(line)

	if ev.Type != terminal.EventMouse {
		return
	}
	switch ev.MouseAction {
	case terminal.MouseActionPress:
		if ev.MouseBtn == terminal.MouseBtnLeft && ev.MouseX >= s.objX && ev.MouseX < s.objX+3 && ev.MouseY == s.objY {
			s.dragging = true
		}
	case terminal.MouseActionRelease:
		s.dragging = false
	case terminal.MouseActionDrag:
		if s.dragging {
			s.objX = max(0, min(ev.MouseX, s.w-3))
			s.objY = max(0, min(ev.MouseY, s.h-1))
		}
	}
}

func (s *screen) render() {
	size, err := s.session.WindowSize()
	if err != nil {
		return
	}
	w, h := size.Columns, size.Rows
	if w != s.w || h != s.h {
		s.w, s.h = w, h
		s.cells = make([]terminal.Cell, w*h)
	}

	region := tui.NewRegion(s.cells, w, 0, 0, w, h)
	region.Fill(colorBg)
	region.TextCenter(0, "Input Test - Press keys, move mouse, drag the [X] - Ctrl+C to quit",
		colorTitle, colorBar, terminal.AttrBold)
	region.HLine(1, tui.LineSingle, colorRule)

	if h > 4 {
		s.log.Draw(region.Sub(1, 2, w-2, h-4), colorText, colorBg)
	}

	fg := colorMarker
	if s.dragging {
		fg = colorDrag
	}
	region.Text(s.objX, s.objY, "[X]", fg, colorBar, terminal.AttrBold)

	stats := s.session.Relay().Stats()
	status := fmt.Sprintf("Size: %dx%d | Object: (%d,%d) | Dragging: %v | Chunks: %d Dropped: %d",
		w, h, s.objX, s.objY, s.dragging, stats.Pushed, stats.Dropped)
	region.HLine(h-2, tui.LineSingle, colorRule)
	region.Text(1, h-1, status, colorStatus, colorBg, terminal.AttrNone)

	s.session.Renderer().Flush(s.cells, w, h)
}
