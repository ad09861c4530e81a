// Package poolsharp provides generic, non-blocking object pools for reusing
// expensive-to-create instances such as buffers, codecs, and protocol state
// machines.
//
// # Packages
//
// The pools themselves live in pkg/pool:
//
//   - pool.Pool is the concurrent variant. Get, Put, Fill and Prewarm are safe
//     from any goroutine and never block; the idle store is a lock-free stack.
//   - pool.UnsyncPool trades all synchronization away for single-goroutine
//     callers. It gives exact counts and a hard capacity bound.
//   - pool.NewScopedPool wraps pooled values in pool.Scoped handles so callers
//     can return values with a deferred Release instead of threading the pool
//     through every function.
//
// Behavior is driven by a pool.Policy: the factory, an optional
// reinitializer with a choice of when it runs (on return, on take, or on a
// background worker), an idle-capacity bound, and an optional strict
// duplicate-return check.
//
// Values that implement pool.Disposable get their Dispose method called when
// the pool drops them: on over-capacity returns, on returns to a closed pool,
// and when the pool itself is closed.
//
// Supporting packages:
//
//   - pkg/lockfree: the Treiber stack and atomic counter backing the
//     concurrent pool.
//   - pkg/metrics: Prometheus collectors bridging pool.Stats snapshots onto
//     monotonic counters.
//   - pkg/config and cmd/poolbench: a YAML-configurable workload driver for
//     measuring pool behavior under synthetic load.
//
// # Quick Start
//
//	p, err := pool.New(pool.Policy[*bytes.Buffer]{
//	    Name:        "buffers",
//	    MaximumSize: 64,
//	    Factory:     func() *bytes.Buffer { return &bytes.Buffer{} },
//	    Reinitialize: func(b *bytes.Buffer) error {
//	        b.Reset()
//	        return nil
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	b, err := p.Get()
//	if err != nil {
//	    return err
//	}
//	defer p.Put(b)
package poolsharp
