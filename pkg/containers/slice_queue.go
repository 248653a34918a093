package containers

import (
	"sync"

	"github.com/edwingeng/deque"
)

// SliceQueue is an unbounded FIFO queue. A consumer can select on C
// to be notified of new elements.
type SliceQueue[T any] struct {
	// C is a signal channel with capacity 1. A successful read from C
	// indicates that the queue may be non-empty.
	C chan struct{}

	// mu protects deque, which is not thread-safe by itself.
	mu    sync.Mutex
	deque deque.Deque
}

// NewSliceQueue creates a new SliceQueue.
func NewSliceQueue[T any]() *SliceQueue[T] {
	return &SliceQueue[T]{
		C:     make(chan struct{}, 1),
		deque: deque.NewDeque(),
	}
}

// Add pushes an element to the tail of the queue.
func (q *SliceQueue[T]) Add(elem T) {
	q.mu.Lock()
	q.deque.PushBack(elem)
	q.mu.Unlock()

	select {
	case q.C <- struct{}{}:
	default:
	}
}

// Pop removes and returns the head of the queue.
func (q *SliceQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.deque.Empty() {
		var noVal T
		return noVal, false
	}

	ret := q.deque.PopFront().(T)
	if !q.deque.Empty() {
		select {
		case q.C <- struct{}{}:
		default:
		}
	}
	return ret, true
}

// Peek returns the head of the queue without removing it.
func (q *SliceQueue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.deque.Empty() {
		var noVal T
		return noVal, false
	}
	return q.deque.Front().(T), true
}

// Size returns the number of elements in the queue.
func (q *SliceQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.deque.Len()
}
