package main

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/termbridge/network"
	"github.com/lixenwraith/termbridge/terminal"
	"github.com/lixenwraith/termbridge/terminal/tui"
)

const monitorLogSize = 256

// runSession returns the per-page handler: decoded events are logged and
// shown in a monitor drawn back into the page
func runSession(log logrus.FieldLogger) network.Handler {
	return func(ctx context.Context, conn *network.Conn, s *terminal.Session) {
		clog := log.WithField("conn", conn.ID)

		stream, err := s.NewStream()
		if err != nil {
			clog.WithError(err).Error("open stream")
			return
		}
		defer stream.Close()

		r := s.Renderer()
		r.HideCursor()
		r.EnableMouse(true)
		r.EnableBracketedPaste(true)

		monitor := tui.NewMonitor(s, "termbridge - type, click or paste; events appear below", monitorLogSize)
		monitor.Note("connected from %s", conn.Addr)

		events := make(chan terminal.Event, 64)
		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			defer close(events)
			for ev, err := range stream.All(ctx) {
				if err != nil {
					if errors.Is(err, terminal.ErrMalformed) {
						clog.WithError(err).Debug("malformed input")
						continue
					}
					return err
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		})

		g.Go(func() error {
			if err := monitor.Draw(); err != nil {
				return err
			}
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					clog.WithField("event", ev.String()).Debug("input")
					monitor.Add(ev)
				case <-conn.Resized():
					size, _ := s.WindowSize()
					clog.WithFields(logrus.Fields{"cols": size.Columns, "rows": size.Rows}).Debug("resize")
					monitor.Note("resize %dx%d", size.Columns, size.Rows)
				case <-ctx.Done():
					return nil
				}
				if err := monitor.Draw(); err != nil {
					return err
				}
			}
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, network.ErrConnClosed) {
			clog.WithError(err).Warn("session ended")
		}
	}
}
