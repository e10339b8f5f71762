package network

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/termbridge/terminal"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendQueueFull  = errors.New("send queue full")
	ErrAlreadyListens = errors.New("connection already has a listener")
)

// ConnState represents connection lifecycle state
type ConnState uint8

const (
	StateConnected ConnState = iota
	StateDisconnecting
	StateDisconnected
)

// Conn is one browser page attached over websocket. It implements
// terminal.Host: page callbacks arrive as envelopes and output is sent
// back as write envelopes.
type Conn struct {
	ID       string
	Addr     string
	State    atomic.Uint32 // ConnState
	LastSeen atomic.Int64  // UnixNano

	config Config
	ws     *websocket.Conn
	log    logrus.FieldLogger
	stats  *serverStats

	mu      sync.RWMutex
	sink    terminal.InputSink
	cols    int
	rows    int
	width   int
	height  int
	cursorX int
	cursorY int

	sendCh    chan []byte
	resizeCh  chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// newConn wraps an upgraded websocket with the page's initial grid size
func newConn(ws *websocket.Conn, cfg Config, cols, rows int, log logrus.FieldLogger, stats *serverStats) *Conn {
	id := uuid.NewString()
	c := &Conn{
		ID:       id,
		Addr:     ws.RemoteAddr().String(),
		config:   cfg,
		ws:       ws,
		stats:    stats,
		cols:     cols,
		rows:     rows,
		sendCh:   make(chan []byte, cfg.SendQueueSize),
		resizeCh: make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}
	c.log = log.WithFields(logrus.Fields{"conn": id, "remote": c.Addr})
	c.State.Store(uint32(StateConnected))
	c.LastSeen.Store(time.Now().UnixNano())
	return c
}

// Listen implements terminal.Host
func (c *Conn) Listen(sink terminal.InputSink) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ConnState(c.State.Load()) != StateConnected {
		return nil, ErrConnClosed
	}
	if c.sink != nil {
		return nil, ErrAlreadyListens
	}
	c.sink = sink

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.sink = nil
			c.mu.Unlock()
		})
	}, nil
}

// Size implements terminal.Host
func (c *Conn) Size() (cols, rows int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cols, c.rows
}

// PixelSize implements terminal.Host
func (c *Conn) PixelSize() (width, height int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// CursorPosition implements terminal.Host with the last reported cursor
func (c *Conn) CursorPosition() (x, y int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursorX, c.cursorY
}

// Write implements terminal.Host - queues a write envelope for the page
func (c *Conn) Write(p []byte) error {
	if ConnState(c.State.Load()) != StateConnected {
		return ErrConnClosed
	}

	msg, err := NewWrite(p).Encode()
	if err != nil {
		return err
	}

	select {
	case c.sendCh <- msg:
		return nil
	case <-c.closeCh:
		return ErrConnClosed
	default:
		return ErrSendQueueFull
	}
}

// Resized signals after the page reports a new size; signals coalesce
func (c *Conn) Resized() <-chan struct{} {
	return c.resizeCh
}

// Done is closed when the connection shuts down
func (c *Conn) Done() <-chan struct{} {
	return c.closeCh
}

// start launches the I/O loops
func (c *Conn) start() {
	c.ws.SetReadLimit(c.config.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.LastSeen.Store(time.Now().UnixNano())
		return c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	c.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()
}

// Close initiates shutdown and sends a close frame on a best-effort basis
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.State.Store(uint32(StateDisconnecting))
		close(c.closeCh)
		deadline := time.Now().Add(c.config.WriteTimeout)
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
		c.ws.Close()
		c.State.Store(uint32(StateDisconnected))
	})
}

// wait blocks until both I/O loops exit
func (c *Conn) wait() {
	c.wg.Wait()
}

// readLoop decodes page envelopes and routes them to the sink
func (c *Conn) readLoop() {
	defer c.wg.Done()
	defer c.Close()

	for {
		mt, p, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.log.WithError(err).Warn("websocket read failed")
				} else {
					c.log.WithError(err).Debug("websocket closed")
				}
			}
			return
		}

		c.LastSeen.Store(time.Now().UnixNano())
		c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		c.stats.messagesIn.Add(1)
		c.stats.bytesIn.Add(int64(len(p)))

		switch mt {
		case websocket.BinaryMessage:
			if sink := c.currentSink(); sink != nil {
				sink.OnBytes(p)
			}
		case websocket.TextMessage:
			env, err := DecodeEnvelope(p)
			if err != nil {
				c.stats.ignored.Add(1)
				c.log.WithError(err).Debug("envelope ignored")
				continue
			}
			c.dispatch(env)
		}
	}
}

// dispatch applies one page envelope
func (c *Conn) dispatch(env Envelope) {
	switch env.Type {
	case MsgData:
		if sink := c.currentSink(); sink != nil {
			sink.OnData(env.Data)
		}

	case MsgBinary:
		if sink := c.currentSink(); sink != nil {
			sink.OnBinary(env.Data)
		}

	case MsgResize:
		if env.Cols <= 0 || env.Rows <= 0 {
			c.log.WithFields(logrus.Fields{"cols": env.Cols, "rows": env.Rows}).Debug("invalid resize ignored")
			return
		}
		c.mu.Lock()
		c.cols, c.rows = env.Cols, env.Rows
		c.width, c.height = env.Width, env.Height
		c.mu.Unlock()
		select {
		case c.resizeCh <- struct{}{}:
		default:
		}

	case MsgCursor:
		c.mu.Lock()
		c.cursorX, c.cursorY = env.X, env.Y
		c.mu.Unlock()

	case MsgWrite:
		c.log.Debug("write envelope from page ignored")
	}
}

func (c *Conn) currentSink() terminal.InputSink {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sink
}

// writeLoop sends queued envelopes and heartbeat pings
func (c *Conn) writeLoop() {
	defer c.wg.Done()
	defer c.Close()

	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCh:
			return

		case msg := <-c.sendCh:
			c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.WithError(err).Debug("websocket write failed")
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.log.WithError(err).Debug("heartbeat failed")
				return
			}
		}
	}
}
