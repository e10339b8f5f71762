//go:build unix

package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// LocalHost drives a local TTY as a terminal host: stdin is switched to raw
// mode and polled for input, output goes to the out file. The cursor cannot
// be queried without consuming input, so it is tracked from renderer moves.
type LocalHost struct {
	in    *os.File
	out   *os.File
	inFd  int
	outFd int
	log   logrus.FieldLogger

	// OnResize, when set before Listen, is called on SIGWINCH
	OnResize func(cols, rows int)

	oldTerm *term.State
	stopCh  chan struct{}
	wg      sync.WaitGroup

	cursor atomic.Uint64 // x<<32 | y
}

// NewLocalHost creates a host over in and out; nil logger discards
func NewLocalHost(in, out *os.File, log logrus.FieldLogger) *LocalHost {
	if log == nil {
		log = noopLogger
	}
	return &LocalHost{
		in:    in,
		out:   out,
		inFd:  int(in.Fd()),
		outFd: int(out.Fd()),
		log:   log.WithField("component", "localhost"),
	}
}

// Listen enters raw mode and starts the input and resize watchers
func (h *LocalHost) Listen(sink InputSink) (func(), error) {
	if h.stopCh != nil {
		return nil, errors.New("localhost: already listening")
	}
	if !term.IsTerminal(h.inFd) {
		return nil, fmt.Errorf("fd %d is not a terminal", h.inFd)
	}

	old, err := term.MakeRaw(h.inFd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	h.oldTerm = old
	h.stopCh = make(chan struct{})

	h.wg.Add(2)
	go h.readLoop(sink)
	go h.resizeLoop()

	var once sync.Once
	return func() { once.Do(h.stop) }, nil
}

func (h *LocalHost) stop() {
	close(h.stopCh)
	h.wg.Wait()
	if h.oldTerm != nil {
		if err := term.Restore(h.inFd, h.oldTerm); err != nil {
			h.log.WithError(err).Warn("terminal restore failed")
		}
	}
}

// readLoop polls stdin with a timeout so stop is observed promptly
func (h *LocalHost) readLoop(sink InputSink) {
	defer h.wg.Done()

	buf := make([]byte, 4096)
	fds := []unix.PollFd{{Fd: int32(h.inFd), Events: unix.POLLIN}}

	for {
		select {
		case <-h.stopCh:
			return
		default:
		}

		n, err := unix.Poll(fds, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			h.log.WithError(err).Error("input poll failed")
			return
		}
		if n == 0 {
			continue
		}

		rn, err := unix.Read(h.inFd, buf)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			h.log.WithError(err).Error("input read failed")
			return
		}
		if rn == 0 {
			h.log.Debug("input closed")
			return
		}
		sink.OnBytes(buf[:rn])
	}
}

// resizeLoop reports SIGWINCH to OnResize
func (h *LocalHost) resizeLoop() {
	defer h.wg.Done()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-h.stopCh:
			return
		case <-sigCh:
			cols, rows := h.Size()
			h.log.WithFields(logrus.Fields{"cols": cols, "rows": rows}).Debug("resized")
			if h.OnResize != nil {
				h.OnResize(cols, rows)
			}
		}
	}
}

// Size returns the grid size, 80x24 when it cannot be read
func (h *LocalHost) Size() (int, int) {
	cols, rows, err := term.GetSize(h.outFd)
	if err != nil {
		return 80, 24
	}
	return cols, rows
}

// PixelSize returns the window size in pixels when the terminal reports it
func (h *LocalHost) PixelSize() (int, int) {
	ws, err := unix.IoctlGetWinsize(h.outFd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0
	}
	return int(ws.Xpixel), int(ws.Ypixel)
}

// CursorPosition returns the last position set through the Renderer
func (h *LocalHost) CursorPosition() (int, int) {
	v := h.cursor.Load()
	return int(v >> 32), int(uint32(v))
}

func (h *LocalHost) trackCursor(x, y int) {
	h.cursor.Store(uint64(uint32(x))<<32 | uint64(uint32(y)))
}

// Write sends output to the terminal
func (h *LocalHost) Write(p []byte) error {
	_, err := h.out.Write(p)
	return err
}

var _ Host = (*LocalHost)(nil)
