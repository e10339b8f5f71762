//go:build js && wasm

// xterm-wasm binds to the page's global xterm.js instance "term" and renders
// an event monitor for everything typed, clicked or pasted into it.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall/js"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/termbridge/service"
	"github.com/lixenwraith/termbridge/terminal"
	"github.com/lixenwraith/termbridge/terminal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "xterm-wasm: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	log.SetLevel(logrus.DebugLevel)

	host, err := terminal.NewXtermHost(js.Global().Get("term"), log)
	if err != nil {
		return err
	}
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
	opts := terminal.Options{ColorMode: terminal.DetectColorMode(), Logger: log}
	if err := hub.InitAll(map[string][]any{svc.Name(): {host, opts}}); err != nil {
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

	monitor := tui.NewMonitor(session, "termbridge (wasm)", 128)
	if err := monitor.Draw(); err != nil {
		return err
	}

	for {
		select {
		case ev, ok := <-svc.Events():
			if !ok {
				return streamErr(svc)
			}
			log.WithField("event", ev.String()).Debug("input")
			monitor.Add(ev)
		case <-resized:
			size, _ := session.WindowSize()
			monitor.Note("resize %dx%d", size.Columns, size.Rows)
		}
		if err := monitor.Draw(); err != nil {
			return err
		}
	}
}

// streamErr reports why the event pump ended; a closed session is not an error
func streamErr(svc *terminal.SessionService) error {
	select {
	case err := <-svc.Done():
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	default:
		return nil
	}
}
