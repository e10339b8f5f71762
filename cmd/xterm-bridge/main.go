// xterm-bridge serves an xterm.js page and decodes each page's input into
// terminal events, logging them and rendering a live event monitor back
// into the page.
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/termbridge/config"
	"github.com/lixenwraith/termbridge/network"
	"github.com/lixenwraith/termbridge/service"
)

//go:embed index.html
var indexHTML string

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "xterm-bridge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.Path(), "path to TOML config file")
	addr := flag.String("addr", "", "listen address (overrides server.address)")
	level := flag.String("log-level", "", "log level (overrides log.level)")
	dumpConfig := flag.Bool("dump-config", false, "print the effective config and exit")
	statsEvery := flag.Duration("stats", 30*time.Second, "interval for connection stats, 0 disables")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *level != "" {
		cfg.Log.Level = *level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *dumpConfig {
		return config.Write(os.Stdout, cfg)
	}
	if cfg.Server.Address == "" {
		return errors.New("server.address is empty")
	}

	log, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	netCfg := cfg.NetworkConfig(nil)
	bridge := network.NewService()
	hub := service.NewHub(log)
	if err := hub.Register(bridge); err != nil {
		return err
	}
	initArgs := map[string][]any{
		bridge.Name(): {netCfg, runSession(log), log},
	}
	if err := hub.InitAll(initArgs); err != nil {
		return err
	}

	page := strings.ReplaceAll(indexHTML, "{{PATH}}", netCfg.Path)
	bridge.Server().Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))

	if err := hub.StartAll(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return hub.StopAll()
	})
	if *statsEvery > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(*statsEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					log.WithFields(bridge.Server().Metrics().Fields()).WithField("conns", bridge.Server().ConnCount()).Info("stats")
				}
			}
		})
	}
	return g.Wait()
}
