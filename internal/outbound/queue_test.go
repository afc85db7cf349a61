package outbound

import (
	"sync"
	"testing"

	"github.com/amqp091core/amqp091core/internal/frame"
)

func TestNextDrainsPriorityBeforeShared(t *testing.T) {
	q := New()
	q.Sender().Send(frame.Body{Channel: 1, Payload: []byte("shared")})
	q.PushBack(frame.Heartbeat{Channel: 0})

	fr, ok := q.Next()
	if !ok {
		t.Fatal("Next returned no frame")
	}
	if _, isHB := fr.(frame.Heartbeat); !isHB {
		t.Fatalf("first frame = %T, want the priority Heartbeat", fr)
	}

	fr, ok = q.Next()
	if !ok {
		t.Fatal("Next returned no frame for the shared entry")
	}
	if _, isBody := fr.(frame.Body); !isBody {
		t.Fatalf("second frame = %T, want the shared Body", fr)
	}
}

func TestPushFrontJumpsAheadOfPushBack(t *testing.T) {
	q := New()
	q.PushBack(frame.Body{Channel: 1, Payload: []byte("requeued")})
	q.PushFront(frame.Heartbeat{Channel: 0})

	fr, _ := q.Next()
	if _, isHB := fr.(frame.Heartbeat); !isHB {
		t.Fatalf("front of deque = %T, want the preemptive Heartbeat", fr)
	}
}

// TestRequeueRestoresFrontOfQueue: with no other priority frame queued,
// popping a frame and pushing it back leaves it as the next frame yielded,
// so a transient serialization failure does not lose the frame.
func TestRequeueRestoresFrontOfQueue(t *testing.T) {
	q := New()
	q.PushBack(frame.Heartbeat{Channel: 0})

	fr, ok := q.Next()
	if !ok {
		t.Fatal("Next returned no frame")
	}
	q.PushBack(fr)

	again, ok := q.Next()
	if !ok {
		t.Fatal("Next after requeue returned no frame")
	}
	if again != fr {
		t.Fatalf("requeued frame = %v, want the original %v", again, fr)
	}
}

func TestHasPending(t *testing.T) {
	q := New()
	if q.HasPending() {
		t.Fatal("fresh queue reported pending frames")
	}
	q.Sender().Send(frame.Heartbeat{Channel: 0})
	if !q.HasPending() {
		t.Fatal("queue with one shared frame reported empty")
	}
	q.Next()
	if q.HasPending() {
		t.Fatal("drained queue reported pending frames")
	}
}

func TestSendersAreConcurrencySafe(t *testing.T) {
	q := New()
	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		s := q.Sender()
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				s.Send(frame.Heartbeat{Channel: 0})
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		if _, ok := q.Next(); !ok {
			break
		}
		count++
	}
	if count != producers*perProducer {
		t.Fatalf("drained %d frames, want %d", count, producers*perProducer)
	}
}
