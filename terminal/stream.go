package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"

	"github.com/sirupsen/logrus"
)

// Stream decodes queued chunks into events. A chunk is fully drained before
// the next is taken, so events keep input order. A Stream is owned by one
// consumer and is not safe for concurrent use.
type Stream struct {
	queue      *chunkQueue
	log        logrus.FieldLogger
	carry      bool
	maxPending int

	pending []byte // Current chunk plus any carried partial sequence
	pos     int    // Decode offset into pending
	closed  bool

	// Set after an oversized paste was dropped; input up to the paste end
	// marker belongs to it and is discarded
	skipPaste bool
}

// NewStream attaches a stream to the relay's queue
func (r *Relay) NewStream(opts Options) *Stream {
	opts = opts.withDefaults()
	return &Stream{
		queue:      r.queue,
		log:        opts.Logger.WithField("component", "stream"),
		carry:      !opts.DisableCarry,
		maxPending: opts.MaxPending,
	}
}

// Poll returns the next event without blocking. With nothing available it
// returns ErrNotReady; if wake is non-nil it is registered to run once when
// the next chunk arrives or the relay closes. After teardown and once
// everything queued is drained, Poll returns io.EOF.
func (s *Stream) Poll(wake func()) (Event, error) {
	if s.closed {
		return Event{}, ErrClosed
	}
	s.queue.clearWaker()
	for {
		if ev, ok, err := s.drain(); ok || err != nil {
			return ev, err
		}

		c, st := s.queue.tryPop()
		if st == popEmpty && wake != nil {
			s.queue.setWaker(wake)
			// A push may have landed before registration
			if c, st = s.queue.tryPop(); st != popEmpty {
				s.queue.clearWaker()
			}
		}

		switch st {
		case popOK:
			s.feed(c.Data)
		case popClosed:
			s.reset()
			s.skipPaste = false
			return Event{}, io.EOF
		default:
			return Event{}, ErrNotReady
		}
	}
}

// Next blocks until an event is available, ctx is done, or the relay is torn
// down and drained (io.EOF). A *MalformedError is returned once per bad chunk
// and the stream stays usable.
func (s *Stream) Next(ctx context.Context) (Event, error) {
	if s.closed {
		return Event{}, ErrClosed
	}
	s.queue.clearWaker()
	for {
		if ev, ok, err := s.drain(); ok || err != nil {
			return ev, err
		}

		c, err := s.queue.pop(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.reset()
				s.skipPaste = false
			}
			return Event{}, err
		}
		s.feed(c.Data)
	}
}

// All yields events until teardown or ctx ends. Malformed input is yielded
// as an error and iteration continues; other errors end the sequence.
func (s *Stream) All(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ev, err) {
				return
			}
			if err != nil && !errors.Is(err, ErrMalformed) {
				return
			}
		}
	}
}

// Close releases the stream's wake registration; pending bytes are dropped
func (s *Stream) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.queue.clearWaker()
	s.reset()
	s.skipPaste = false
}

// Pending reports bytes held back waiting for the rest of a sequence
func (s *Stream) Pending() int {
	return len(s.pending) - s.pos
}

func (s *Stream) feed(data []byte) {
	if s.pos >= len(s.pending) {
		s.pending = s.pending[:0]
		s.pos = 0
	}
	s.pending = append(s.pending, data...)
}

func (s *Stream) reset() {
	s.pending = s.pending[:0]
	s.pos = 0
}

// drain decodes the next event from pending bytes. ok is false when pending
// is exhausted or only an incomplete tail remains.
func (s *Stream) drain() (Event, bool, error) {
	if s.skipPaste && !s.skipToPasteEnd() {
		return Event{}, false, nil
	}
	for s.pos < len(s.pending) {
		ev, n, err := Decode(s.pending[s.pos:])
		if errors.Is(err, ErrIncomplete) {
			return s.settleTail()
		}
		if err != nil {
			var me *MalformedError
			if errors.As(err, &me) {
				me.Offset += s.pos
			}
			s.log.WithError(err).WithField("discarded", len(s.pending)-s.pos).Debug("malformed input")
			s.reset()
			return Event{}, false, err
		}

		s.pos += n
		if ev.Type != EventNone {
			return ev, true, nil
		}
	}
	s.reset()
	return Event{}, false, nil
}

// settleTail handles an incomplete sequence at the end of pending input
func (s *Stream) settleTail() (Event, bool, error) {
	tail := s.pending[s.pos:]
	if ev, n, ok := resolveBoundary(tail); ok {
		s.pos += n
		return ev, true, nil
	}

	if !s.carry || len(tail) > s.maxPending {
		if bytes.HasPrefix(tail, pasteStartSeq) {
			s.skipPaste = true
			s.log.WithField("bytes", len(tail)).Debug("incomplete paste dropped, skipping to paste end")
		} else {
			s.log.WithField("bytes", len(tail)).Debug("incomplete sequence dropped")
		}
		s.reset()
		return Event{}, false, nil
	}

	// Keep the tail for the next chunk
	s.pending = append(s.pending[:0], tail...)
	s.pos = 0
	return Event{}, false, nil
}

// skipToPasteEnd discards pending input up to and including the paste end
// marker. It returns false when the marker has not arrived yet; a possible
// partial marker at the end is kept for the next chunk.
func (s *Stream) skipToPasteEnd() bool {
	rest := s.pending[s.pos:]
	if idx := bytes.Index(rest, pasteEndSeq); idx >= 0 {
		s.pos += idx + len(pasteEndSeq)
		s.skipPaste = false
		s.log.WithField("bytes", idx).Debug("paste remainder skipped")
		return true
	}

	keep := 0
	for k := min(len(rest), len(pasteEndSeq)-1); k > 0; k-- {
		if bytes.HasPrefix(pasteEndSeq, rest[len(rest)-k:]) {
			keep = k
			break
		}
	}
	s.pending = append(s.pending[:0], rest[len(rest)-keep:]...)
	s.pos = 0
	return false
}
