package network

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/lixenwraith/termbridge/status"
	"github.com/lixenwraith/termbridge/terminal"
)

// Handler runs one session for the lifetime of its connection.
// ctx is cancelled when the page disconnects or the server stops;
// the session is closed once the handler returns.
type Handler func(ctx context.Context, conn *Conn, session *terminal.Session)

// serverStats caches the server's metric pointers
type serverStats struct {
	accepted     *atomic.Int64
	rejectedRate *atomic.Int64
	rejectedFull *atomic.Int64
	upgradeFail  *atomic.Int64
	messagesIn   *atomic.Int64
	bytesIn      *atomic.Int64
	ignored      *atomic.Int64
	lastRemote   *status.AtomicString
}

func newServerStats(r *status.Registry) *serverStats {
	return &serverStats{
		accepted:     r.Ints.Get("conns_accepted"),
		rejectedRate: r.Ints.Get("conns_rejected_rate"),
		rejectedFull: r.Ints.Get("conns_rejected_full"),
		upgradeFail:  r.Ints.Get("conns_upgrade_failed"),
		messagesIn:   r.Ints.Get("messages_in"),
		bytesIn:      r.Ints.Get("bytes_in"),
		ignored:      r.Ints.Get("envelopes_ignored"),
		lastRemote:   r.Strings.Get("last_remote"),
	}
}

// Server accepts xterm.js pages over websocket and creates one
// terminal.Session per connection
type Server struct {
	config   Config
	handler  Handler
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
	limiter  *rate.Limiter
	mux      *http.ServeMux
	metrics  *status.Registry
	stats    *serverStats

	httpSrv  *http.Server
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conns   map[string]*Conn
	active  int
	stopped bool

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewServer creates a server; handler is required
func NewServer(cfg Config, handler Handler, log logrus.FieldLogger) *Server {
	cfg = cfg.withDefaults()
	if log == nil {
		log = cfg.Relay.Logger
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	limit := rate.Inf
	if cfg.AcceptRate > 0 {
		limit = rate.Limit(cfg.AcceptRate)
	}
	burst := cfg.AcceptBurst
	if burst <= 0 {
		burst = 1
	}

	metrics := status.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:  cfg,
		handler: handler,
		log:     log.WithField("component", "network"),
		limiter: rate.NewLimiter(limit, burst),
		mux:     http.NewServeMux(),
		metrics: metrics,
		stats:   newServerStats(metrics),
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[string]*Conn),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	s.mux.Handle(cfg.Path, http.HandlerFunc(s.serveWS))
	return s
}

// Handle registers an additional route, e.g. the page serving the client
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler returns the server's routes for use with an external http.Server
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start binds the configured address and serves in the background
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil // Already running
	}

	var ln net.Listener
	var err error

	if s.config.TLS != nil {
		ln, err = tls.Listen("tcp", s.config.Address, s.config.TLS)
	} else {
		ln, err = net.Listen("tcp", s.config.Address)
	}

	if err != nil {
		s.running.Store(false)
		return err
	}

	s.listener = ln
	s.httpSrv = &http.Server{Handler: s.mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("http serve failed")
		}
	}()

	s.log.WithField("addr", ln.Addr().String()).Info("listening")
	return nil
}

// Addr returns the bound address, nil before Start
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop refuses new connections, closes every live one and waits for
// their handlers to return
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.cancel()

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Close()
	}
	for _, c := range conns {
		c.Close()
	}

	s.wg.Wait()
	s.running.Store(false)
	return err
}

// ConnCount returns the number of live connections
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Metrics returns the server's counters
func (s *Server) Metrics() *status.Registry {
	return s.metrics
}

// IsRunning returns listener state
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.config.AllowedOrigins, "*") {
		return true
	}
	if len(s.config.AllowedOrigins) > 0 {
		return slices.Contains(s.config.AllowedOrigins, origin)
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// admit reserves a connection slot
func (s *Server) admit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.active >= s.config.MaxConns {
		return false
	}
	s.active++
	s.wg.Add(1)
	return true
}

func (s *Server) release() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[c.ID] = c
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c.ID)
	s.mu.Unlock()
}

// serveWS upgrades the request and runs the handler for the connection
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		s.stats.rejectedRate.Add(1)
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}
	if !s.admit() {
		s.stats.rejectedFull.Add(1)
		http.Error(w, "connection limit reached", http.StatusServiceUnavailable)
		return
	}
	defer s.release()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.stats.upgradeFail.Add(1)
		s.log.WithError(err).Debug("upgrade failed")
		return
	}

	cols, rows := initialSize(r)
	conn := newConn(ws, s.config, cols, rows, s.log, s.stats)
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)

	opts := s.config.Relay
	if opts.Logger == nil {
		opts.Logger = conn.log
	}
	session, err := terminal.NewSession(conn, opts)
	if err != nil {
		conn.log.WithError(err).Error("session setup failed")
		conn.Close()
		return
	}

	conn.start()
	s.stats.accepted.Add(1)
	s.stats.lastRemote.Store(conn.Addr)
	conn.log.WithFields(logrus.Fields{"cols": cols, "rows": rows}).Info("page connected")

	ctx, cancel := context.WithCancel(s.ctx)
	go func() {
		select {
		case <-conn.Done():
		case <-ctx.Done():
		}
		cancel()
		session.Close()
	}()

	if s.handler != nil {
		s.handler(ctx, conn, session)
	}

	cancel()
	session.Close()
	conn.Close()
	conn.wait()
	conn.log.Info("page disconnected")
}

// initialSize reads the grid size from the cols and rows query parameters
func initialSize(r *http.Request) (cols, rows int) {
	cols, rows = 80, 24
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("cols")); err == nil && v > 0 {
		cols = v
	}
	if v, err := strconv.Atoi(q.Get("rows")); err == nil && v > 0 {
		rows = v
	}
	return cols, rows
}
