package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrDone is returned by Next when the queue has been closed for
// writing and drained.
var ErrDone = errors.New("buffer: done")

// Queue is a thread-safe bounded FIFO queue backed by a circular
// buffer. Add blocks when the queue is full and Next blocks when it is
// empty, so a Queue also acts as a flow-control point between a
// producer and a consumer goroutine.
type Queue[T any] struct {
	cond *sync.Cond

	mu         sync.Mutex
	buf        []T
	head, tail int64
	closeWrite bool
	closeErr   error
}

// NewQueue creates a Queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	q := &Queue[T]{buf: make([]T, capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add appends one element, blocking while the queue is full.
// Returns an error once the queue is closed.
func (q *Queue[T]) Add(t T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if err := q.writeErrLocked(); err != nil {
			return err
		}
		if q.tail-q.head < int64(len(q.buf)) {
			break
		}
		q.cond.Wait()
	}
	q.buf[q.tail%int64(len(q.buf))] = t
	q.tail++
	q.cond.Broadcast()
	return nil
}

// TryAdd appends one element without blocking. It reports false when
// the element was dropped because the queue is full or closed.
func (q *Queue[T]) TryAdd(t T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.writeErrLocked() != nil {
		return false
	}
	if q.tail-q.head == int64(len(q.buf)) {
		return false
	}
	q.buf[q.tail%int64(len(q.buf))] = t
	q.tail++
	q.cond.Broadcast()
	return true
}

// Next removes and returns the oldest element, blocking while the
// queue is empty. Returns ErrDone after CloseWrite once the queue is
// drained, or the close error after Close/CloseWithError.
func (q *Queue[T]) Next() (t T, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closeErr != nil {
			return t, fmt.Errorf("buffer: read from closed queue: %w", q.closeErr)
		}
		if q.head < q.tail {
			break
		}
		if q.closeWrite {
			return t, ErrDone
		}
		q.cond.Wait()
	}
	i := q.head % int64(len(q.buf))
	t = q.buf[i]
	var zero T
	q.buf[i] = zero
	q.head++
	q.cond.Broadcast()
	return t, nil
}

// Reset discards every queued element. The queue stays usable; a
// closed queue stays closed.
func (q *Queue[T]) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	for i := q.head; i < q.tail; i++ {
		q.buf[i%int64(len(q.buf))] = zero
	}
	q.head = q.tail
	q.cond.Broadcast()
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.tail - q.head)
}

// CloseWrite closes the producer side. Queued elements remain
// readable; Next returns ErrDone after the queue drains.
func (q *Queue[T]) CloseWrite() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closeWrite = true
	q.cond.Broadcast()
	return nil
}

// Close closes both sides, unblocking all pending operations with
// io.ErrClosedPipe.
func (q *Queue[T]) Close() error {
	return q.CloseWithError(io.ErrClosedPipe)
}

// CloseWithError closes both sides with the given error. A nil err is
// replaced with io.ErrClosedPipe. Only the first close takes effect.
func (q *Queue[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr == nil {
		q.closeErr = err
		q.closeWrite = true
		q.cond.Broadcast()
	}
	return nil
}

// Err returns the error the queue was closed with, or nil.
func (q *Queue[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closeErr
}

func (q *Queue[T]) writeErrLocked() error {
	if q.closeErr != nil {
		return fmt.Errorf("buffer: write to closed queue: %w", q.closeErr)
	}
	if q.closeWrite {
		return fmt.Errorf("buffer: write to closed queue: %w", io.ErrClosedPipe)
	}
	return nil
}
