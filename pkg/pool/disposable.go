package pool

import "reflect"

// Disposable is the optional cleanup capability a pooled type may expose.
// The pool invokes Dispose when it evicts a value over capacity, rejects a
// duplicate, or drains the idle store during Close. Values that do not
// implement Disposable are simply released to the garbage collector.
type Disposable interface {
	Dispose()
}

// Pooler is the contract shared by both pool variants.
type Pooler[T any] interface {
	Get() (T, error)
	Put(v T) error
	Close() error
}

// SizedPooler extends the base contract with a size-selecting take for
// capacity-tiered pools (for example byte buffers bucketed by length).
// This package provides no bucketed implementation; the interface exists so
// such pools can interoperate with code written against the base contract.
type SizedPooler[T any] interface {
	Pooler[T]
	GetSized(size int) (T, error)
}

// dispose invokes the Disposable capability when the value carries it.
// Called only on cold discard paths, never on the Get/Put hot paths.
func dispose(v any) {
	if d, ok := v.(Disposable); ok {
		d.Dispose()
	}
}

// isNilValue reports whether a generic value is absent. A plain any(v) == nil
// misses typed nil pointers, so the kinds that have a nil representation are
// checked through reflect. Only runs on the Put validation path.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
