package terminal

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestQueueOverflowPolicies verifies exactly capacity chunks survive, in order
func TestQueueOverflowPolicies(t *testing.T) {
	tests := []struct {
		policy    OverflowPolicy
		wantFirst uint64
	}{
		{DropNewest, 1},
		{DropOldest, 7},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			q := newChunkQueue(4, tt.policy)
			for i := uint64(1); i <= 10; i++ {
				q.push(Chunk{Seq: i, Data: []byte{byte('0' + i)}})
			}

			var seqs []uint64
			for {
				c, st := q.tryPop()
				if st != popOK {
					break
				}
				seqs = append(seqs, c.Seq)
			}

			if len(seqs) != 4 {
				t.Fatalf("Expected 4 chunks retained, got %d", len(seqs))
			}
			for i, s := range seqs {
				if s != tt.wantFirst+uint64(i) {
					t.Errorf("Chunk %d: expected seq %d, got %d", i, tt.wantFirst+uint64(i), s)
				}
			}
			if st := q.stats(); st.Dropped != 6 {
				t.Errorf("Expected 6 dropped, got %d", st.Dropped)
			}
		})
	}
}

// TestQueueCloseDrains verifies queued chunks survive close, then EOF
func TestQueueCloseDrains(t *testing.T) {
	q := newChunkQueue(2, DropNewest)
	q.push(Chunk{Seq: 1, Data: []byte("a")})
	q.close()
	q.close() // Idempotent

	if q.push(Chunk{Seq: 2, Data: []byte("b")}) {
		t.Error("Expected push after close to be rejected")
	}

	c, err := q.pop(context.Background())
	if err != nil || c.Seq != 1 {
		t.Fatalf("Expected seq 1, got %d (err %v)", c.Seq, err)
	}
	if _, err := q.pop(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF after drain, got %v", err)
	}
	if _, st := q.tryPop(); st != popClosed {
		t.Errorf("Expected popClosed, got %v", st)
	}
}

// TestQueueWakerFiresOnce verifies a registered waker runs on the next push only
func TestQueueWakerFiresOnce(t *testing.T) {
	q := newChunkQueue(8, DropNewest)
	var calls atomic.Int32
	q.setWaker(func() { calls.Add(1) })

	q.push(Chunk{Seq: 1})
	q.push(Chunk{Seq: 2})

	if n := calls.Load(); n != 1 {
		t.Errorf("Expected waker called once, got %d", n)
	}
}

// TestQueuePopCancel verifies pop honors context cancellation
func TestQueuePopCancel(t *testing.T) {
	q := newChunkQueue(1, DropNewest)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

// TestQueueConcurrentPushNeverBlocks verifies producers finish with a stalled consumer
func TestQueueConcurrentPushNeverBlocks(t *testing.T) {
	for _, policy := range []OverflowPolicy{DropNewest, DropOldest} {
		q := newChunkQueue(4, policy)

		var wg sync.WaitGroup
		done := make(chan struct{})
		wg.Add(4)
		for g := 0; g < 4; g++ {
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					q.push(Chunk{Data: []byte("x")})
				}
			}()
		}
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("%v: push blocked with a full queue", policy)
		}

		st := q.stats()
		if st.Queued != 4 {
			t.Errorf("%v: expected 4 queued, got %d", policy, st.Queued)
		}
		if st.Pushed+st.Dropped < 400 {
			t.Errorf("%v: expected every push accounted, got pushed=%d dropped=%d", policy, st.Pushed, st.Dropped)
		}
	}
}

// TestParseOverflowPolicy verifies config names
func TestParseOverflowPolicy(t *testing.T) {
	if p, ok := ParseOverflowPolicy("drop_oldest"); !ok || p != DropOldest {
		t.Errorf("Expected drop_oldest to parse, got %v %v", p, ok)
	}
	if p, ok := ParseOverflowPolicy(""); !ok || p != DropNewest {
		t.Errorf("Expected empty to select drop_newest, got %v %v", p, ok)
	}
	if _, ok := ParseOverflowPolicy("block"); ok {
		t.Error("Expected unknown policy to fail")
	}
}
