package pool

import "github.com/Yortw/PoolSharp/pkg/poolerrors"

// Scoped couples a value with the pool it must return to. The handle
// exclusively owns the wrapped value until Release; the pool reference is
// non-owning. Handles are themselves the pooled type of a scoped pool, so a
// released handle is recycled along with its value.
//
// The intended shape is scope-bound acquisition:
//
//	h, err := sp.Get()
//	if err != nil {
//		return err
//	}
//	defer h.Release()
//	use(h.Value())
//
// Release runs on every exit path, normal or error, via defer.
type Scoped[T any] struct {
	owner *Pool[*Scoped[T]]
	value T
}

// Value returns the wrapped instance. The caller may use it freely until
// Release.
func (s *Scoped[T]) Value() T {
	return s.value
}

// Release returns the handle (and its value) to the owning pool. When the
// owner is gone or rejects the handle with an error, the wrapped value is
// disposed directly as a fallback so it is never silently leaked.
func (s *Scoped[T]) Release() {
	if s.owner == nil {
		dispose(s.value)
		return
	}
	if err := s.owner.Put(s); err != nil {
		dispose(s.value)
	}
}

// Dispose implements Disposable: pool shutdown and over-capacity eviction of
// a handle cascade to the wrapped value.
func (s *Scoped[T]) Dispose() {
	dispose(s.value)
}

// NewScopedPool builds a concurrent pool whose instances are Scoped handles
// around values from the given policy's factory. Every handle produced by
// the pool carries the owning-pool reference, so Release needs no further
// wiring. The policy's reinitializer and duplicate strictness apply to the
// handles transparently; handles are pointers, so strict mode is always
// supported regardless of T.
func NewScopedPool[T any](policy Policy[T]) (*Pool[*Scoped[T]], error) {
	if policy.Factory == nil {
		return nil, poolerrors.New(poolerrors.ErrorTypeConfig, "policy factory must not be nil")
	}

	wrapped := Policy[*Scoped[T]]{
		Name:                   policy.name(),
		MaximumSize:            policy.MaximumSize,
		Timing:                 policy.Timing,
		ErrorOnDuplicateReturn: policy.ErrorOnDuplicateReturn,
		OnReinitializeError:    policy.OnReinitializeError,
		Logger:                 policy.Logger,
	}

	if reinit := policy.Reinitialize; reinit != nil {
		wrapped.Reinitialize = func(s *Scoped[T]) error {
			return reinit(s.value)
		}
	}

	// Two-phase capture: the factory closes over the pool variable assigned
	// below. New never invokes the factory, so every call observes the
	// assigned owner.
	var owner *Pool[*Scoped[T]]
	factory := policy.Factory
	wrapped.Factory = func() *Scoped[T] {
		return &Scoped[T]{owner: owner, value: factory()}
	}

	owner, err := New(wrapped)
	if err != nil {
		return nil, err
	}
	return owner, nil
}
