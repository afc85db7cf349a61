// Package outbound implements the connection's two-tier outbound frame
// queue: a FIFO priority deque for retries/heartbeats/preemptive frames,
// and a shared multi-producer FIFO for normal channel traffic. Next drains
// the priority deque first.
package outbound

import (
	"sync"

	"github.com/amqp091core/amqp091core/internal/frame"
)

// Queue is the connection's private outbound frame queue. It is safe for
// concurrent use: Send (via a Sender) may be called from any goroutine,
// and the owner's PushFront/PushBack/Next take the same lock.
type Queue struct {
	mu       sync.Mutex
	priority []frame.Frame
	shared   []frame.Frame
}

func New() *Queue {
	return &Queue{}
}

// Sender is a cloneable handle that enqueues onto a Queue's shared FIFO.
// Channels and publishers each hold a Sender so they can enqueue frames
// without taking the Connection's own lock.
type Sender struct {
	q *Queue
}

func (q *Queue) Sender() Sender {
	return Sender{q: q}
}

// Send enqueues fr onto the shared FIFO. Non-blocking, safe from any
// goroutine, unbounded capacity.
func (s Sender) Send(fr frame.Frame) {
	s.q.mu.Lock()
	s.q.shared = append(s.q.shared, fr)
	s.q.mu.Unlock()
}

// PushFront pushes fr to the front of the priority deque (preemptive:
// heartbeats originated by the transport layer).
func (q *Queue) PushFront(fr frame.Frame) {
	q.mu.Lock()
	q.priority = append([]frame.Frame{fr}, q.priority...)
	q.mu.Unlock()
}

// PushBack pushes fr to the back of the priority deque (requeue after a
// transient serialization failure).
func (q *Queue) PushBack(fr frame.Frame) {
	q.mu.Lock()
	q.priority = append(q.priority, fr)
	q.mu.Unlock()
}

// Next drains the priority deque first, then the shared FIFO.
func (q *Queue) Next() (frame.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.priority) > 0 {
		fr := q.priority[0]
		q.priority = q.priority[1:]
		return fr, true
	}
	if len(q.shared) > 0 {
		fr := q.shared[0]
		q.shared = q.shared[1:]
		return fr, true
	}
	return nil, false
}

func (q *Queue) HasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.priority) > 0 || len(q.shared) > 0
}
