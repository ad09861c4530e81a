package pool

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/Yortw/PoolSharp/pkg/poolerrors"
)

// ReinitializationTiming selects when a pooled value's mutable state is reset
// relative to its return and reuse.
type ReinitializationTiming int

const (
	// OnReturn resets the value synchronously inside Put, before it becomes idle.
	OnReturn ReinitializationTiming = iota
	// OnTake defers the reset to the next Get that serves the value.
	OnTake
	// Async hands the value to a background worker; Put returns immediately
	// and the value is not idle until the worker has processed it. Only the
	// concurrent Pool supports this timing.
	Async
)

// String returns the timing name used in logs and configuration files.
func (t ReinitializationTiming) String() string {
	switch t {
	case OnReturn:
		return "on_return"
	case OnTake:
		return "on_take"
	case Async:
		return "async"
	default:
		return "unknown"
	}
}

// ParseTiming converts a configuration string into a ReinitializationTiming.
func ParseTiming(s string) (ReinitializationTiming, error) {
	switch s {
	case "on_return", "":
		return OnReturn, nil
	case "on_take":
		return OnTake, nil
	case "async":
		return Async, nil
	default:
		return OnReturn, poolerrors.New(poolerrors.ErrorTypeConfig, "unknown reinitialization timing").
			WithDetail("timing", s)
	}
}

// Policy describes how a pool is built and operated. It is read once at
// construction; mutating a Policy after the pool is created has no effect.
type Policy[T any] struct {
	// Name labels the pool in logs and metrics. Defaults to "pool".
	Name string

	// Factory produces a new instance when the idle store is empty.
	// Required; construction fails without it.
	Factory func() T

	// Reinitialize resets an instance's mutable state before reuse.
	// Optional. A non-nil error drops the value instead of recycling it.
	Reinitialize func(T) error

	// MaximumSize bounds the number of idle instances kept in memory.
	// Zero or negative means unlimited. The bound is best-effort: concurrent
	// returns may transiently overshoot it.
	MaximumSize int

	// Timing selects when Reinitialize runs. See ReinitializationTiming.
	Timing ReinitializationTiming

	// ErrorOnDuplicateReturn makes Put fail when the value is already idle.
	// The check is best-effort under concurrency and requires T to be a
	// comparable type; construction fails otherwise. For interface types the
	// dynamic value is compared instead, and values with non-comparable
	// dynamic types are never reported as duplicates.
	ErrorOnDuplicateReturn bool

	// OnReinitializeError receives errors raised by Reinitialize on the
	// background worker, where no caller is waiting synchronously. When nil,
	// failures are logged through Logger.
	OnReinitializeError func(error)

	// Logger overrides the package-level logger for this pool instance.
	Logger *zap.Logger
}

// validate checks the policy invariants shared by both pool variants.
// It returns the equality function used for duplicate detection, or nil when
// strict duplicate checking is disabled.
func (p *Policy[T]) validate() (func(a, b T) bool, error) {
	if p.Factory == nil {
		return nil, poolerrors.New(poolerrors.ErrorTypeConfig, "policy factory must not be nil")
	}

	if !p.ErrorOnDuplicateReturn {
		return nil, nil
	}

	// Capability resolved once here rather than per call: duplicate
	// detection compares instances with ==, which panics at runtime for
	// non-comparable types.
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Interface {
		// The dynamic type is only known per value; compare through reflect
		// so a non-comparable dynamic type reports not-equal instead of
		// panicking mid-scan.
		return func(a, b T) bool {
			va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
			if !va.Comparable() || !vb.Comparable() {
				return false
			}
			return va.Equal(vb)
		}, nil
	}
	if !t.Comparable() {
		return nil, poolerrors.New(poolerrors.ErrorTypeConfig,
			"ErrorOnDuplicateReturn requires a comparable pooled type").
			WithDetail("type", t.String())
	}

	return func(a, b T) bool { return any(a) == any(b) }, nil
}

// validateUnsync checks the additional constraints of the single-goroutine
// variant: it has no background worker, so Async timing is unsupported, and
// its backing array is sized exactly to MaximumSize at construction, so the
// bound must be positive.
func (p *Policy[T]) validateUnsync() (func(a, b T) bool, error) {
	eq, err := p.validate()
	if err != nil {
		return nil, err
	}
	if p.Timing == Async {
		return nil, poolerrors.New(poolerrors.ErrorTypeConfig,
			"async reinitialization requires the concurrent pool")
	}
	if p.MaximumSize <= 0 {
		return nil, poolerrors.New(poolerrors.ErrorTypeConfig,
			"unsynchronized pool requires a positive maximum size").
			WithDetail("maximum_size", p.MaximumSize)
	}
	return eq, nil
}

// name returns the pool label for logs and metrics.
func (p *Policy[T]) name() string {
	if p.Name == "" {
		return "pool"
	}
	return p.Name
}
