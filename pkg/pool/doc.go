// Package pool implements a policy-driven, type-safe reusable-object pool.
// It hands out instances of a value type on demand, accepts them back for
// reuse, and bounds the number of idle instances kept in memory, trading
// allocation pressure for controlled reuse.
//
// # Architecture
//
// The package uses Go generics to provide type-safe pooling for any object
// type. A Policy describes how the pool is built and operated: the factory,
// an optional reinitializer with one of three timings, a capacity bound, and
// a strictness flag for duplicate returns.
//
// Core types:
//
//   - Pool[T]: concurrent pool, safe for use from any number of goroutines
//   - UnsyncPool[T]: single-goroutine pool over a fixed array stack
//   - Scoped[T]: handle coupling a value with its owning pool, returned
//     automatically via Release
//   - Policy[T]: immutable construction-time configuration
//
// # Capacity
//
// The pool favors throughput over exact bounding. Admission decisions use an
// approximate idle count, so the idle store may transiently exceed
// MaximumSize under concurrent Put from multiple goroutines; it converges
// back once the concurrent inserts stop. Get never blocks and never fails
// due to exhaustion: an empty idle store falls through to the factory.
//
// # Reinitialization timing
//
//   - OnReturn: reset runs synchronously inside Put
//   - OnTake: reset is deferred to the next Get
//   - Async: Put enqueues the value to a background worker; the value is not
//     idle until the worker has reset and admitted it
//
// # Usage
//
//	p, err := pool.New(pool.Policy[*bytes.Buffer]{
//		Factory:     func() *bytes.Buffer { return &bytes.Buffer{} },
//		Reinitialize: func(b *bytes.Buffer) error { b.Reset(); return nil },
//		MaximumSize: 64,
//	})
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	buf, _ := p.Get()
//	// use buf
//	_ = p.Put(buf)
//
// Scope-bound acquisition:
//
//	sp, _ := pool.NewScopedPool(pool.Policy[*bytes.Buffer]{
//		Factory: func() *bytes.Buffer { return &bytes.Buffer{} },
//	})
//	h, _ := sp.Get()
//	defer h.Release() // returns on every exit path
//	h.Value().WriteString("hello")
//
// Values that implement Disposable are disposed when evicted over capacity
// and when the pool shuts down.
package pool
