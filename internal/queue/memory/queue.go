// Package memory provides a bounded in-memory candidate queue.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

// ErrClosed is returned by Dequeue after Close has drained the queue.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded in-memory candidate queue with context-aware
// operations.
type Queue struct {
	ch      chan catalog.Candidate
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan catalog.Candidate, capacity)}
}

// Enqueue pushes a candidate or returns when the context ends. Blocking on
// a full queue applies natural backpressure to source adapters.
func (q *Queue) Enqueue(ctx context.Context, c catalog.Candidate) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- c:
		return nil
	}
}

// Dequeue pops the next candidate, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (catalog.Candidate, error) {
	select {
	case <-ctx.Done():
		return catalog.Candidate{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case c, ok := <-q.ch:
		if !ok {
			return catalog.Candidate{}, ErrClosed
		}
		return c, nil
	}
}

// Close closes the underlying channel for shutdown. Buffered candidates
// remain dequeueable until drained.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
