package terminal

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// WindowSize is a snapshot of the host grid and its pixel dimensions
type WindowSize struct {
	Columns int
	Rows    int
	Width   int // Pixels, 0 if unknown
	Height  int // Pixels, 0 if unknown
}

// Relay accepts host input callbacks and enqueues each payload as one chunk.
// Callbacks never block: when the queue is full the overflow policy decides
// which chunk is lost. Relay implements InputSink.
type Relay struct {
	host   Host
	queue  *chunkQueue
	log    logrus.FieldLogger
	seq    atomic.Uint64
	closed atomic.Bool
}

// NewRelay creates a relay in front of host. The relay does not register
// itself; pass it to Host.Listen or use NewSession.
func NewRelay(host Host, opts Options) *Relay {
	opts = opts.withDefaults()
	return &Relay{
		host:  host,
		queue: newChunkQueue(opts.QueueCapacity, opts.Overflow),
		log:   opts.Logger.WithField("component", "relay"),
	}
}

// OnData enqueues UTF-8 text from the host
func (r *Relay) OnData(data string) {
	r.push([]byte(data))
}

// OnBinary enqueues a binary string, narrowing each char code to one byte
func (r *Relay) OnBinary(data string) {
	b := make([]byte, 0, len(data))
	for _, c := range data {
		b = append(b, byte(c))
	}
	r.push(b)
}

// OnBytes enqueues a copy of p
func (r *Relay) OnBytes(p []byte) {
	b := make([]byte, len(p))
	copy(b, p)
	r.push(b)
}

func (r *Relay) push(data []byte) {
	if len(data) == 0 {
		return
	}
	c := Chunk{Seq: r.seq.Add(1), Data: data}
	if !r.queue.push(c) {
		r.log.WithFields(logrus.Fields{"seq": c.Seq, "bytes": len(data)}).Debug("input chunk dropped")
	}
}

// WindowSize reads the current host geometry
func (r *Relay) WindowSize() (WindowSize, error) {
	if r.closed.Load() {
		return WindowSize{}, ErrClosed
	}
	cols, rows := r.host.Size()
	w, h := r.host.PixelSize()
	return WindowSize{Columns: cols, Rows: rows, Width: w, Height: h}, nil
}

// Size reads the current grid as columns and rows
func (r *Relay) Size() (cols, rows int, err error) {
	if r.closed.Load() {
		return 0, 0, ErrClosed
	}
	cols, rows = r.host.Size()
	return cols, rows, nil
}

// CursorPosition reads the host cursor as 0-indexed column and row
func (r *Relay) CursorPosition() (x, y int, err error) {
	if r.closed.Load() {
		return 0, 0, ErrClosed
	}
	x, y = r.host.CursorPosition()
	return x, y, nil
}

// Stats returns queue counters
func (r *Relay) Stats() Stats {
	return r.queue.stats()
}

// Close ends input; queued chunks stay readable, then streams report io.EOF
func (r *Relay) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.queue.close()
	r.log.WithField("dropped", r.queue.dropped.Load()).Debug("relay closed")
	return nil
}

var _ InputSink = (*Relay)(nil)
