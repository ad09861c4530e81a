// Package lockfree provides lock-free data structures for high-performance concurrent pooling
package lockfree

import (
	"runtime"
	"sync/atomic"
)

// Stack implements a lock-free multi-producer multi-consumer LIFO stack
// (Treiber stack). It is the backing store for idle pool instances: Push and
// Pop are CAS loops on the head pointer and never block the calling
// goroutine. Node memory is reclaimed by the garbage collector, which also
// makes the classic ABA problem a non-issue.
type Stack[T any] struct {
	head atomic.Pointer[node[T]]
	size AtomicCounter
}

// node is a single stack entry. The next pointer is written once before the
// node is published via CAS and never mutated afterwards, so concurrent
// readers walking the chain observe a consistent snapshot.
type node[T any] struct {
	value T
	next  *node[T]
}

// NewStack creates an empty lock-free stack.
func NewStack[T any]() *Stack[T] {
	return &Stack[T]{}
}

// Push adds a value to the top of the stack in a thread-safe manner.
// It is safe for any number of concurrent producers.
func (s *Stack[T]) Push(v T) {
	n := &node[T]{value: v}
	for {
		head := s.head.Load()
		n.next = head
		if s.head.CompareAndSwap(head, n) {
			s.size.Increment()
			return
		}

		// Another goroutine won the CAS, retry
		runtime.Gosched()
	}
}

// Pop removes and returns the most recently pushed value.
// Returns the zero value and false if the stack is empty.
// Safe for any number of concurrent consumers.
func (s *Stack[T]) Pop() (T, bool) {
	for {
		head := s.head.Load()
		if head == nil {
			var zero T
			return zero, false
		}
		if s.head.CompareAndSwap(head, head.next) {
			s.size.Decrement()
			return head.value, true
		}

		runtime.Gosched()
	}
}

// Len returns the current number of entries. The value is maintained with a
// separate atomic counter, so it is an approximation while producers and
// consumers are active; it is exact once the stack is quiescent.
func (s *Stack[T]) Len() int {
	return int(s.size.Get())
}

// Contains reports whether any entry satisfies eq against v. The walk uses
// atomic loads only and takes no locks, so a concurrent Pop can hide an
// entry mid-scan. Callers must treat the result as a best-effort diagnostic,
// never as a correctness guarantee.
func (s *Stack[T]) Contains(v T, eq func(a, b T) bool) bool {
	for n := s.head.Load(); n != nil; n = n.next {
		if eq(n.value, v) {
			return true
		}
	}
	return false
}

// Drain detaches the entire stack in one CAS and returns the entries in pop
// order. Values pushed concurrently with Drain land on the fresh head and
// survive for a subsequent Drain.
func (s *Stack[T]) Drain() []T {
	for {
		head := s.head.Load()
		if head == nil {
			return nil
		}
		if s.head.CompareAndSwap(head, nil) {
			var out []T
			for n := head; n != nil; n = n.next {
				out = append(out, n.value)
			}
			s.size.Add(-int64(len(out)))
			return out
		}

		runtime.Gosched()
	}
}

// AtomicCounter provides a lock-free counter for statistics and admission
// decisions with atomic operations for thread-safe updates. Unlike a plain
// atomic integer it clamps reads at zero, which keeps approximate idle
// counts sane when concurrent decrements transiently overshoot.
type AtomicCounter struct {
	value atomic.Int64
}

// NewAtomicCounter creates a new atomic counter initialized to zero.
func NewAtomicCounter() *AtomicCounter {
	return &AtomicCounter{}
}

// Increment atomically increments the counter by one.
func (c *AtomicCounter) Increment() {
	c.value.Add(1)
}

// Decrement atomically decrements the counter by one.
func (c *AtomicCounter) Decrement() {
	c.value.Add(-1)
}

// Add atomically adds the given delta value to the counter.
func (c *AtomicCounter) Add(delta int64) {
	c.value.Add(delta)
}

// Get returns the current value of the counter, clamped at zero.
func (c *AtomicCounter) Get() int64 {
	v := c.value.Load()
	if v < 0 {
		return 0
	}
	return v
}

// Reset atomically resets the counter to zero.
func (c *AtomicCounter) Reset() {
	c.value.Store(0)
}
