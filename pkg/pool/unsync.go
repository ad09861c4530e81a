package pool

// UnsyncPool is the single-goroutine pool variant. It keeps idle instances
// in a fixed-capacity array used as a LIFO stack, sized exactly to
// MaximumSize at construction, and performs no internal synchronization:
// correctness depends on all calls coming from one goroutine, which the
// caller must guarantee. There is no background worker, so Async timing is
// rejected at construction.
type UnsyncPool[T any] struct {
	policy Policy[T]
	items  []T // fixed backing array, len(items) == top
	eq     func(a, b T) bool
	closed bool

	stats Stats
}

// NewUnsync creates a single-goroutine pool from the given policy. Beyond
// the shared policy validation it fails when MaximumSize is not positive or
// when Async timing is requested.
func NewUnsync[T any](policy Policy[T]) (*UnsyncPool[T], error) {
	eq, err := policy.validateUnsync()
	if err != nil {
		return nil, err
	}

	return &UnsyncPool[T]{
		policy: policy,
		items:  make([]T, 0, policy.MaximumSize),
		eq:     eq,
	}, nil
}

// Get pops the top idle instance or falls back to the factory when the stack
// is empty. With OnTake timing the reinitializer runs here; its error drops
// the value and propagates.
func (p *UnsyncPool[T]) Get() (T, error) {
	var zero T
	if p.closed {
		return zero, ErrClosed
	}

	if n := len(p.items); n > 0 {
		v := p.items[n-1]
		p.items[n-1] = zero // release the slot's reference
		p.items = p.items[:n-1]

		if p.policy.Timing == OnTake && p.policy.Reinitialize != nil {
			if err := p.policy.Reinitialize(v); err != nil {
				p.stats.ReinitFailures++
				p.discard(v)
				return zero, reinitError(err)
			}
		}
		p.stats.Reused++
		return v, nil
	}

	p.stats.Allocated++
	return p.policy.Factory(), nil
}

// Put pushes an instance onto the stack when a slot is free, applying the
// reinitializer synchronously under OnReturn timing. Rejected values (full
// stack) are disposed. A nil value fails with ErrNilValue; on a closed pool
// the value is disposed and Put returns nil.
func (p *UnsyncPool[T]) Put(v T) error {
	if isNilValue(v) {
		return ErrNilValue
	}

	if p.closed {
		dispose(v)
		return nil
	}

	if p.eq != nil {
		for _, held := range p.items {
			if p.eq(held, v) {
				return ErrDuplicate
			}
		}
	}

	if len(p.items) == cap(p.items) {
		p.discard(v)
		return nil
	}

	if p.policy.Timing == OnReturn && p.policy.Reinitialize != nil {
		if err := p.policy.Reinitialize(v); err != nil {
			p.stats.ReinitFailures++
			p.discard(v)
			return reinitError(err)
		}
	}

	p.items = append(p.items, v)
	p.stats.Returned++
	return nil
}

// Fill pre-populates the stack to capacity by calling the factory directly,
// without reinitialization. Fails with ErrClosed after Close.
func (p *UnsyncPool[T]) Fill() error {
	return p.Prewarm(cap(p.items))
}

// Prewarm creates up to n instances and stores them idle, stopping early at
// capacity. n <= 0 is a no-op. Fails with ErrClosed after Close.
func (p *UnsyncPool[T]) Prewarm(n int) error {
	if p.closed {
		return ErrClosed
	}

	for i := 0; i < n && len(p.items) < cap(p.items); i++ {
		p.stats.Allocated++
		p.items = append(p.items, p.policy.Factory())
	}
	return nil
}

// Close empties the stack, disposing every Disposable entry. One-shot;
// subsequent calls are no-ops.
func (p *UnsyncPool[T]) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var zero T
	for i := range p.items {
		dispose(p.items[i])
		p.items[i] = zero
	}
	p.items = p.items[:0]
	return nil
}

// Stats returns the pool counters. Exact, since all mutation is
// single-goroutine.
func (p *UnsyncPool[T]) Stats() Stats {
	s := p.stats
	s.Idle = len(p.items)
	return s
}

func (p *UnsyncPool[T]) discard(v T) {
	p.stats.Discarded++
	dispose(v)
}

var _ Pooler[any] = (*UnsyncPool[any])(nil)
