package pool

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Yortw/PoolSharp/pkg/lockfree"
	"github.com/Yortw/PoolSharp/pkg/logger"
)

// Pool is the concurrent pool variant. Get, Put, Fill and Prewarm are safe
// to call from any number of goroutines and never block the caller; the idle
// store is a lock-free stack and admission decisions read an approximate
// atomic count. The pool is created with New and torn down exactly once with
// Close.
type Pool[T any] struct {
	policy Policy[T]
	idle   *lockfree.Stack[T]
	eq     func(a, b T) bool // nil unless ErrorOnDuplicateReturn
	log    *zap.Logger

	closed atomic.Bool

	// queueMu orders enqueues against the one-shot channel close in Close.
	// It guards only the Async return path; Get and bounded stores stay
	// lock-free. queueClosed is set under the write lock before the channel
	// is closed, so an enqueue that loaded the open pool state but lost the
	// race to Close still never sends on a closed channel.
	queueMu     sync.RWMutex
	queueClosed bool
	queue       chan T
	done        chan struct{}

	stats struct {
		allocated      atomic.Int64
		reused         atomic.Int64
		returned       atomic.Int64
		discarded      atomic.Int64
		reinitFailures atomic.Int64
	}
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	// Allocated is the total number of factory invocations
	Allocated int64
	// Reused is the number of Gets served from the idle store
	Reused int64
	// Returned is the number of values accepted back by Put
	Returned int64
	// Discarded counts values dropped over capacity, rejected as duplicates,
	// or shed from a full async queue
	Discarded int64
	// ReinitFailures counts reinitializer errors; each failed value is dropped
	ReinitFailures int64
	// Idle is the approximate number of instances currently idle
	Idle int
}

// New creates a concurrent pool from the given policy. It fails when the
// policy has no factory, or when strict duplicate checking is requested for
// a non-comparable type. When the policy selects Async timing the pool
// starts its single reinitialization worker here; the worker lives until
// Close.
func New[T any](policy Policy[T]) (*Pool[T], error) {
	eq, err := policy.validate()
	if err != nil {
		return nil, err
	}

	log := policy.Logger
	if log == nil {
		log = logger.Get()
	}

	p := &Pool[T]{
		policy: policy,
		idle:   lockfree.NewStack[T](),
		eq:     eq,
		log:    log.With(zap.String("pool", policy.name())),
	}

	if policy.Timing == Async {
		p.queue = make(chan T, asyncQueueCapacity(policy.MaximumSize))
		p.done = make(chan struct{})
		go p.reinitializeLoop()
	}

	return p, nil
}

// Get returns an instance, reusing an idle one when available and falling
// through to the factory otherwise. It never blocks and never fails due to
// exhaustion. With OnTake timing the reinitializer runs here; a reinitializer
// error drops the idle value and is returned to the caller.
func (p *Pool[T]) Get() (T, error) {
	var zero T
	if p.closed.Load() {
		return zero, ErrClosed
	}

	if v, ok := p.idle.Pop(); ok {
		if p.policy.Timing == OnTake && p.policy.Reinitialize != nil {
			if err := p.policy.Reinitialize(v); err != nil {
				p.stats.reinitFailures.Add(1)
				p.discard(v)
				return zero, reinitError(err)
			}
		}
		p.stats.reused.Add(1)
		return v, nil
	}

	p.stats.allocated.Add(1)
	return p.policy.Factory(), nil
}

// Put returns an instance for reuse. A nil value fails with ErrNilValue. On
// a closed pool the value is disposed and Put returns nil. A value over the
// capacity bound is disposed and silently dropped. With OnReturn timing the
// reinitializer runs here and its error propagates; with Async timing the
// value is enqueued for the worker and is not idle until processed.
func (p *Pool[T]) Put(v T) error {
	if isNilValue(v) {
		return ErrNilValue
	}

	if p.closed.Load() {
		dispose(v)
		return nil
	}

	if p.eq != nil && p.idle.Contains(v, p.eq) {
		return ErrDuplicate
	}

	if !p.hasIdleCapacity() {
		p.discard(v)
		return nil
	}

	switch p.policy.Timing {
	case OnReturn:
		if p.policy.Reinitialize != nil {
			if err := p.policy.Reinitialize(v); err != nil {
				p.stats.reinitFailures.Add(1)
				p.discard(v)
				return reinitError(err)
			}
		}
		p.idle.Push(v)
	case OnTake:
		p.idle.Push(v)
	case Async:
		if !p.enqueue(v) {
			return nil
		}
	}

	p.stats.returned.Add(1)
	return nil
}

// Fill pre-populates the idle store up to MaximumSize by calling the factory
// directly, without reinitialization. Unbounded pools are not pre-filled;
// Fill on them is a no-op. Fails with ErrClosed after Close.
func (p *Pool[T]) Fill() error {
	if p.closed.Load() {
		return ErrClosed
	}
	if p.policy.MaximumSize <= 0 {
		return nil
	}
	return p.Prewarm(p.policy.MaximumSize)
}

// Prewarm creates up to n instances and stores them idle, stopping early
// once a bounded pool reaches capacity. n <= 0 is a no-op. Unlike Fill, an
// explicit n works on unbounded pools too. Fails with ErrClosed after Close.
func (p *Pool[T]) Prewarm(n int) error {
	if p.closed.Load() {
		return ErrClosed
	}

	for i := 0; i < n; i++ {
		if !p.hasIdleCapacity() {
			break
		}
		p.stats.allocated.Add(1)
		p.idle.Push(p.policy.Factory())
	}
	return nil
}

// Close shuts the pool down exactly once: it marks the pool closed, stops
// the async queue and waits for the worker to drain, then empties the idle
// store disposing every Disposable entry. The closed flag and the store are
// separate words: a Put that slipped past the closed check can park a value
// idle after the sweep, so like the capacity bound the sweep is best-effort,
// not exhaustive. Subsequent calls are no-ops.
func (p *Pool[T]) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	if p.queue != nil {
		p.queueMu.Lock()
		p.queueClosed = true
		close(p.queue)
		p.queueMu.Unlock()
		<-p.done
	}

	drained := p.idle.Drain()
	for _, v := range drained {
		dispose(v)
	}

	p.log.Debug("pool closed", zap.Int("disposed_idle", len(drained)))
	return nil
}

// Stats returns a snapshot of the pool counters. Idle is approximate while
// other goroutines are mutating the pool.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Allocated:      p.stats.allocated.Load(),
		Reused:         p.stats.reused.Load(),
		Returned:       p.stats.returned.Load(),
		Discarded:      p.stats.discarded.Load(),
		ReinitFailures: p.stats.reinitFailures.Load(),
		Idle:           p.idle.Len(),
	}
}

// hasIdleCapacity makes the O(1) admission decision from the approximate
// idle count. Two goroutines can both see a free slot and both store, so the
// bound may transiently overshoot; the pool converges back as values are
// taken and not re-admitted.
func (p *Pool[T]) hasIdleCapacity() bool {
	max := p.policy.MaximumSize
	return max <= 0 || p.idle.Len() < max
}

// discard drops a value that will not be reused, disposing it when it
// carries the capability.
func (p *Pool[T]) discard(v T) {
	p.stats.discarded.Add(1)
	dispose(v)
}

var _ Pooler[any] = (*Pool[any])(nil)
