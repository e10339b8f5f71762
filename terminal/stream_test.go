package terminal

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

func newTestRelay(opts Options) (*Relay, *fakeHost) {
	host := newFakeHost(80, 24)
	return NewRelay(host, opts), host
}

// pollAll drains every ready event, failing on errors other than ErrNotReady
func pollAll(t *testing.T, s *Stream) []Event {
	t.Helper()
	var evs []Event
	for {
		ev, err := s.Poll(nil)
		if errors.Is(err, ErrNotReady) {
			return evs
		}
		if err != nil {
			t.Fatalf("Poll unexpected error: %v", err)
		}
		evs = append(evs, ev)
	}
}

func expectEvents(t *testing.T, got []Event, want ...Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d events %v, got %d %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

// TestStreamChunkOrder verifies one chunk yields its events left to right
func TestStreamChunkOrder(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	r.OnData("ab")
	expectEvents(t, pollAll(t, s), runeEvent('a', ModNone), runeEvent('b', ModNone))
}

// TestStreamCompleteSequence verifies a whole cursor sequence yields exactly one event
func TestStreamCompleteSequence(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	r.OnData("\x1b[A")
	expectEvents(t, pollAll(t, s), keyEvent(KeyUp, ModNone))
}

// TestStreamTrailingNoise verifies unrecognized trailing bytes drop silently
func TestStreamTrailingNoise(t *testing.T) {
	t.Run("UnknownSequence", func(t *testing.T) {
		r, _ := newTestRelay(Options{})
		s := r.NewStream(Options{})

		r.OnData("a\x1b[99~")
		expectEvents(t, pollAll(t, s), runeEvent('a', ModNone))
		r.OnData("b")
		expectEvents(t, pollAll(t, s), runeEvent('b', ModNone))
	})

	t.Run("StatelessIncompleteTail", func(t *testing.T) {
		opts := Options{DisableCarry: true}
		r, _ := newTestRelay(opts)
		s := r.NewStream(opts)

		r.OnData("a\x1b[1;")
		expectEvents(t, pollAll(t, s), runeEvent('a', ModNone))
		if s.Pending() != 0 {
			t.Errorf("Expected tail discarded, %d bytes pending", s.Pending())
		}
		r.OnData("b")
		expectEvents(t, pollAll(t, s), runeEvent('b', ModNone))
	})
}

// TestStreamOverflow verifies N > C pushes leave exactly C chunks in order
func TestStreamOverflow(t *testing.T) {
	tests := []struct {
		policy OverflowPolicy
		want   string
	}{
		{DropNewest, "0123"},
		{DropOldest, "6789"},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			opts := Options{QueueCapacity: 4, Overflow: tt.policy}
			r, _ := newTestRelay(opts)
			s := r.NewStream(opts)

			for _, c := range "0123456789" {
				r.OnData(string(c))
			}

			var got []rune
			for _, ev := range pollAll(t, s) {
				got = append(got, ev.Rune)
			}
			if string(got) != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, string(got))
			}
		})
	}
}

// TestStreamResizeSideChannel verifies resize is visible only through WindowSize
func TestStreamResizeSideChannel(t *testing.T) {
	r, host := newTestRelay(Options{})
	s := r.NewStream(Options{})

	r.OnData("x")
	host.resize(120, 40)
	r.OnData("y")

	expectEvents(t, pollAll(t, s), runeEvent('x', ModNone), runeEvent('y', ModNone))

	ws, err := r.WindowSize()
	if err != nil {
		t.Fatalf("WindowSize error: %v", err)
	}
	if ws.Columns != 120 || ws.Rows != 40 {
		t.Errorf("Expected 120x40, got %dx%d", ws.Columns, ws.Rows)
	}
	if ws.Width != 80*9 || ws.Height != 24*17 {
		t.Errorf("Expected pixel size from host, got %dx%d", ws.Width, ws.Height)
	}
}

// TestStreamCarryPartial verifies sequences split across chunks are joined
func TestStreamCarryPartial(t *testing.T) {
	t.Run("CSI", func(t *testing.T) {
		r, _ := newTestRelay(Options{})
		s := r.NewStream(Options{})

		r.OnData("\x1b[1;")
		expectEvents(t, pollAll(t, s))
		if s.Pending() != 4 {
			t.Errorf("Expected 4 bytes pending, got %d", s.Pending())
		}
		r.OnData("5A")
		expectEvents(t, pollAll(t, s), keyEvent(KeyUp, ModCtrl))
	})

	t.Run("Paste", func(t *testing.T) {
		r, _ := newTestRelay(Options{})
		s := r.NewStream(Options{})

		r.OnData("\x1b[200~hel")
		r.OnData("lo wor")
		r.OnData("ld\x1b[201~z")
		expectEvents(t, pollAll(t, s), Event{Type: EventPaste, Text: "hello world"}, runeEvent('z', ModNone))
	})

	t.Run("UTF8", func(t *testing.T) {
		r, _ := newTestRelay(Options{})
		s := r.NewStream(Options{})

		r.OnBytes([]byte{0xe4, 0xb8})
		r.OnBytes([]byte{0x96})
		expectEvents(t, pollAll(t, s), runeEvent('世', ModNone))
	})

	t.Run("MaxPending", func(t *testing.T) {
		opts := Options{MaxPending: 8}
		r, _ := newTestRelay(opts)
		s := r.NewStream(opts)

		r.OnData("\x1b[200~0123456789")
		expectEvents(t, pollAll(t, s))
		if s.Pending() != 0 {
			t.Errorf("Expected oversized tail dropped, %d bytes pending", s.Pending())
		}
	})

	t.Run("OversizedPasteSkipped", func(t *testing.T) {
		opts := Options{MaxPending: 16}
		r, _ := newTestRelay(opts)
		s := r.NewStream(opts)

		r.OnData("\x1b[200~echo hello; ")
		r.OnData("rm -rf x\r")
		r.OnData("more\x1b[20")
		r.OnData("1~q")
		expectEvents(t, pollAll(t, s), runeEvent('q', ModNone))
	})

	t.Run("PasteWithoutCarry", func(t *testing.T) {
		opts := Options{DisableCarry: true}
		r, _ := newTestRelay(opts)
		s := r.NewStream(opts)

		r.OnData("\x1b[200~ls\r")
		r.OnData("pwd\r\x1b[201~")
		r.OnData("w")
		expectEvents(t, pollAll(t, s), runeEvent('w', ModNone))

		r.OnData("\x1b[200~ok\x1b[201~")
		expectEvents(t, pollAll(t, s), Event{Type: EventPaste, Text: "ok"})
	})
}

// TestStreamLoneEscape verifies a trailing ESC is the Escape key, not a prefix
func TestStreamLoneEscape(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	r.OnData("\x1b")
	r.OnData("a")
	expectEvents(t, pollAll(t, s), keyEvent(KeyEscape, ModNone), runeEvent('a', ModNone))

	r.OnData("q\x1b")
	expectEvents(t, pollAll(t, s), runeEvent('q', ModNone), keyEvent(KeyEscape, ModNone))
}

// TestStreamMalformed verifies malformed input surfaces once and drops the chunk rest
func TestStreamMalformed(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	r.OnBytes([]byte("a\xffb"))

	ev, err := s.Poll(nil)
	if err != nil || ev != runeEvent('a', ModNone) {
		t.Fatalf("Expected 'a', got %v (err %v)", ev, err)
	}

	_, err = s.Poll(nil)
	var me *MalformedError
	if !errors.As(err, &me) {
		t.Fatalf("Expected MalformedError, got %v", err)
	}
	if me.Offset != 1 || me.Byte != 0xff {
		t.Errorf("Expected offset 1 byte 0xff, got offset %d byte 0x%02x", me.Offset, me.Byte)
	}

	if _, err := s.Poll(nil); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected rest of chunk discarded, got %v", err)
	}

	r.OnData("c")
	expectEvents(t, pollAll(t, s), runeEvent('c', ModNone))
}

// TestStreamBinaryNarrowing verifies onBinary char codes map to single bytes
func TestStreamBinaryNarrowing(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	// X10 report with coordinates beyond 7-bit range
	r.OnBinary("\x1b[M ÿÀ")
	expectEvents(t, pollAll(t, s), Event{
		Type:        EventMouse,
		MouseX:      0xff - 33,
		MouseY:      0xc0 - 33,
		MouseBtn:    MouseBtnLeft,
		MouseAction: MouseActionPress,
	})
}

// TestStreamTeardown verifies queued input drains before io.EOF
func TestStreamTeardown(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	r.OnData("a")
	r.Close()
	r.OnData("b") // Ignored after close

	ev, err := s.Poll(nil)
	if err != nil || ev != runeEvent('a', ModNone) {
		t.Fatalf("Expected 'a' before EOF, got %v (err %v)", ev, err)
	}
	if _, err := s.Poll(nil); !errors.Is(err, io.EOF) {
		t.Errorf("Poll: expected io.EOF, got %v", err)
	}
	if _, err := s.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Next: expected io.EOF, got %v", err)
	}
}

// TestStreamPollWake verifies the wake callback fires when input arrives
func TestStreamPollWake(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	var wakes atomic.Int32
	wake := func() { wakes.Add(1) }

	if _, err := s.Poll(wake); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Expected ErrNotReady, got %v", err)
	}
	if wakes.Load() != 0 {
		t.Fatal("Waker fired without input")
	}

	r.OnData("z")
	if wakes.Load() != 1 {
		t.Fatalf("Expected one wake after push, got %d", wakes.Load())
	}

	ev, err := s.Poll(wake)
	if err != nil || ev != runeEvent('z', ModNone) {
		t.Fatalf("Expected 'z', got %v (err %v)", ev, err)
	}

	// Registration is consumed; the next push without Poll does not wake
	r.OnData("y")
	if wakes.Load() != 1 {
		t.Errorf("Expected no further wakes, got %d", wakes.Load())
	}
}

// TestStreamWakerReplaced verifies a later Poll or Next drops an earlier waker
func TestStreamWakerReplaced(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	var wakes atomic.Int32
	wake := func() { wakes.Add(1) }

	if _, err := s.Poll(wake); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Expected ErrNotReady, got %v", err)
	}
	if _, err := s.Poll(nil); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Expected ErrNotReady, got %v", err)
	}
	r.OnData("a")
	if wakes.Load() != 0 {
		t.Errorf("Expected no wake after Poll(nil), got %d", wakes.Load())
	}
	expectEvents(t, pollAll(t, s), runeEvent('a', ModNone))

	if _, err := s.Poll(wake); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Expected ErrNotReady, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	r.OnData("b")
	if wakes.Load() != 0 {
		t.Errorf("Expected no wake after Next, got %d", wakes.Load())
	}
}

// TestStreamPollWakeOnClose verifies teardown wakes a parked consumer
func TestStreamPollWakeOnClose(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	woken := make(chan struct{}, 1)
	if _, err := s.Poll(func() { woken <- struct{}{} }); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Expected ErrNotReady, got %v", err)
	}

	r.Close()
	select {
	case <-woken:
	default:
		t.Fatal("Expected wake on close")
	}
	if _, err := s.Poll(nil); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

// TestStreamNextBlocks verifies Next suspends until a push arrives
func TestStreamNextBlocks(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		r.OnData("k")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ev, err := s.Next(ctx)
	if err != nil || ev != runeEvent('k', ModNone) {
		t.Errorf("Expected 'k', got %v (err %v)", ev, err)
	}
}

// TestStreamNextCancel verifies Next returns the context error
func TestStreamNextCancel(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestStreamAll verifies the iterator ends cleanly at teardown
func TestStreamAll(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})

	r.OnData("a\x1b[B")
	r.OnBytes([]byte{0xff})
	r.OnData("c")
	r.Close()

	var evs []Event
	var malformed int
	for ev, err := range s.All(context.Background()) {
		if errors.Is(err, ErrMalformed) {
			malformed++
			continue
		}
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		evs = append(evs, ev)
	}

	expectEvents(t, evs, runeEvent('a', ModNone), keyEvent(KeyDown, ModNone), runeEvent('c', ModNone))
	if malformed != 1 {
		t.Errorf("Expected 1 malformed report, got %d", malformed)
	}
}

// TestStreamClosed verifies a closed stream refuses further reads
func TestStreamClosed(t *testing.T) {
	r, _ := newTestRelay(Options{})
	s := r.NewStream(Options{})
	s.Close()

	if _, err := s.Poll(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}
