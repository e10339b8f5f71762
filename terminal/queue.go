package terminal

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
)

// OverflowPolicy selects what the relay discards when the queue is full
type OverflowPolicy uint8

const (
	// DropNewest discards the chunk being pushed
	DropNewest OverflowPolicy = iota
	// DropOldest evicts the oldest queued chunk to admit the new one
	DropOldest
)

// String returns the config name of the policy
func (p OverflowPolicy) String() string {
	if p == DropOldest {
		return "drop_oldest"
	}
	return "drop_newest"
}

// ParseOverflowPolicy resolves a config name; unknown names yield false
func ParseOverflowPolicy(s string) (OverflowPolicy, bool) {
	switch s {
	case "drop_newest", "":
		return DropNewest, true
	case "drop_oldest":
		return DropOldest, true
	}
	return DropNewest, false
}

// Chunk is one host callback's payload in arrival order
type Chunk struct {
	Seq  uint64
	Data []byte
}

// Stats holds relay counters
type Stats struct {
	Pushed  uint64 // Chunks accepted into the queue
	Dropped uint64 // Chunks discarded by the overflow policy or after close
	Queued  int    // Chunks currently waiting
}

type popStatus uint8

const (
	popEmpty popStatus = iota
	popOK
	popClosed
)

// chunkQueue is a bounded single-producer single-consumer FIFO.
// push never blocks; the consumer either waits on pop or registers a waker.
type chunkQueue struct {
	ch     chan Chunk
	policy OverflowPolicy

	mu     sync.Mutex // Serializes push against close
	closed bool

	waker atomic.Pointer[func()]

	pushed  atomic.Uint64
	dropped atomic.Uint64
}

func newChunkQueue(capacity int, policy OverflowPolicy) *chunkQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &chunkQueue{
		ch:     make(chan Chunk, capacity),
		policy: policy,
	}
}

// push enqueues c, reporting false if it was discarded
func (q *chunkQueue) push(c Chunk) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.dropped.Add(1)
		return false
	}

	accepted := q.offer(c)
	q.mu.Unlock()

	if accepted {
		q.pushed.Add(1)
		q.wake()
	}
	return accepted
}

// offer applies the overflow policy; caller holds mu
func (q *chunkQueue) offer(c Chunk) bool {
	select {
	case q.ch <- c:
		return true
	default:
	}

	if q.policy == DropNewest {
		q.dropped.Add(1)
		return false
	}

	// Evict oldest; the consumer may race us to it, either way one slot frees
	select {
	case <-q.ch:
		q.dropped.Add(1)
	default:
	}
	select {
	case q.ch <- c:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// close marks end of input; queued chunks remain retrievable
func (q *chunkQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	q.wake()
}

func (q *chunkQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// tryPop returns the next chunk without blocking
func (q *chunkQueue) tryPop() (Chunk, popStatus) {
	select {
	case c, ok := <-q.ch:
		if !ok {
			return Chunk{}, popClosed
		}
		return c, popOK
	default:
		return Chunk{}, popEmpty
	}
}

// pop blocks for the next chunk; io.EOF once closed and drained
func (q *chunkQueue) pop(ctx context.Context) (Chunk, error) {
	select {
	case c, ok := <-q.ch:
		if !ok {
			return Chunk{}, io.EOF
		}
		return c, nil
	case <-ctx.Done():
		return Chunk{}, ctx.Err()
	}
}

// setWaker registers fn to run once on the next push or close
func (q *chunkQueue) setWaker(fn func()) {
	q.waker.Store(&fn)
}

func (q *chunkQueue) clearWaker() {
	q.waker.Store(nil)
}

func (q *chunkQueue) wake() {
	if w := q.waker.Swap(nil); w != nil {
		(*w)()
	}
}

func (q *chunkQueue) stats() Stats {
	return Stats{
		Pushed:  q.pushed.Load(),
		Dropped: q.dropped.Load(),
		Queued:  len(q.ch),
	}
}
