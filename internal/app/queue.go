package app

import "sync"

// Queue is a bounded event queue between producers and the services that consume it.
// Producers never block: when the queue is full Offer drops the event, except for a queue
// of length one which keeps the most recent event.
type Queue[T any] struct {
	mu sync.Mutex
	ch chan T
}

// NewQueue creates a queue holding up to length events.
func NewQueue[T any](length int) *Queue[T] {
	if length < 1 {
		length = 1
	}
	return &Queue[T]{ch: make(chan T, length)}
}

// Offer enqueues v and reports whether it was accepted.
func (q *Queue[T]) Offer(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case q.ch <- v:
		return true
	default:
	}
	if cap(q.ch) != 1 {
		return false
	}
	// Overwrite the pending event.
	select {
	case <-q.ch:
	default:
	}
	q.ch <- v
	return true
}

// C returns the channel the consumer receives from.
func (q *Queue[T]) C() <-chan T {
	return q.ch
}

// Len returns the number of queued events.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue length.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}
