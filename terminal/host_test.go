package terminal

import (
	"bytes"
	"sync"
)

// fakeHost is an in-memory Host for tests
type fakeHost struct {
	mu         sync.Mutex
	cols, rows int
	pxW, pxH   int
	curX, curY int
	sink       InputSink
	out        bytes.Buffer
	writes     int
	listenErr  error
	stops      int
}

func newFakeHost(cols, rows int) *fakeHost {
	return &fakeHost{cols: cols, rows: rows, pxW: cols * 9, pxH: rows * 17}
}

func (h *fakeHost) Listen(sink InputSink) (func(), error) {
	if h.listenErr != nil {
		return nil, h.listenErr
	}
	h.mu.Lock()
	h.sink = sink
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		h.stops++
		h.sink = nil
		h.mu.Unlock()
	}, nil
}

func (h *fakeHost) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cols, h.rows
}

func (h *fakeHost) PixelSize() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pxW, h.pxH
}

func (h *fakeHost) CursorPosition() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.curX, h.curY
}

func (h *fakeHost) Write(p []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.out.Write(p)
	h.writes++
	return nil
}

// resize changes geometry out of band, as a widget resize would
func (h *fakeHost) resize(cols, rows int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cols, h.rows = cols, rows
}

// takeOutput returns and clears everything written so far
func (h *fakeHost) takeOutput() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.out.String()
	h.out.Reset()
	return s
}

// trackingHost records cursor moves like LocalHost
type trackingHost struct {
	*fakeHost
}

func (h trackingHost) trackCursor(x, y int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.curX, h.curY = x, y
}
