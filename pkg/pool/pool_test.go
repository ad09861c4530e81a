package pool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Yortw/PoolSharp/pkg/poolerrors"
)

// resource is the pooled test type; it records reinitializations and
// disposals so tests can observe pool behavior.
type resource struct {
	id       int
	resets   int32
	disposed int32
}

func (r *resource) Dispose() {
	atomic.AddInt32(&r.disposed, 1)
}

func (r *resource) disposeCount() int32 {
	return atomic.LoadInt32(&r.disposed)
}

// testPolicy returns a policy with a counting factory and reinitializer.
func testPolicy(t *testing.T, maximumSize int, timing ReinitializationTiming) (Policy[*resource], *atomic.Int32) {
	t.Helper()
	var created atomic.Int32
	return Policy[*resource]{
		Name:        "test",
		MaximumSize: maximumSize,
		Timing:      timing,
		Factory: func() *resource {
			return &resource{id: int(created.Add(1))}
		},
		Reinitialize: func(r *resource) error {
			atomic.AddInt32(&r.resets, 1)
			return nil
		},
		Logger: zaptest.NewLogger(t),
	}, &created
}

func TestNew_RequiresFactory(t *testing.T) {
	_, err := New(Policy[*resource]{})
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeConfig))
}

func TestNew_StrictModeRequiresComparableType(t *testing.T) {
	_, err := New(Policy[[]byte]{
		Factory:                func() []byte { return make([]byte, 8) },
		ErrorOnDuplicateReturn: true,
	})
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeConfig))
}

func TestGet_EmptyPoolFallsThroughToFactory(t *testing.T) {
	policy, created := testPolicy(t, 4, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, int32(1), created.Load())

	// Still empty, Get never fails due to exhaustion
	w, err := p.Get()
	require.NoError(t, err)
	assert.NotSame(t, v, w)
	assert.Equal(t, int32(2), created.Load())
}

func TestRoundTrip_OnReturn(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)
	assert.Equal(t, int32(0), v.resets)

	require.NoError(t, p.Put(v))
	assert.Equal(t, int32(1), v.resets, "OnReturn resets at return time")

	w, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, v, w, "recycling preserves identity")
	assert.Equal(t, int32(1), w.resets, "reset ran exactly once between the two gets")
}

func TestRoundTrip_OnTake(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnTake)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)

	require.NoError(t, p.Put(v))
	assert.Equal(t, int32(0), v.resets, "OnTake defers the reset")

	w, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, v, w)
	assert.Equal(t, int32(1), w.resets, "reset ran at take time")
}

func TestPut_NilValue(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	err = p.Put(nil)
	require.ErrorIs(t, err, ErrNilValue)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeValidation))
}

func TestPut_OverCapacityDisposes(t *testing.T) {
	policy, _ := testPolicy(t, 1, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	a, err := p.Get()
	require.NoError(t, err)
	b, err := p.Get()
	require.NoError(t, err)

	require.NoError(t, p.Put(a))
	assert.Equal(t, 1, p.Stats().Idle)

	// Store is full; b is rejected and disposed, no error
	require.NoError(t, p.Put(b))
	assert.Equal(t, 1, p.Stats().Idle)
	assert.Equal(t, int32(1), b.disposeCount())
	assert.Equal(t, int32(0), a.disposeCount())

	v, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, a, v)
}

func TestPut_DuplicateStrict(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnTake)
	policy.ErrorOnDuplicateReturn = true
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)

	require.NoError(t, p.Put(v))
	err = p.Put(v)
	require.ErrorIs(t, err, ErrDuplicate)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeConflict))
}

func TestPut_StrictInterfaceTypeSkipsNonComparableValues(t *testing.T) {
	p, err := New(Policy[any]{
		MaximumSize:            4,
		ErrorOnDuplicateReturn: true,
		Factory:                func() any { return make([]byte, 4) },
		Logger:                 zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)
	require.NoError(t, p.Put(v))

	// A non-comparable dynamic type cannot be identity-checked; the second
	// return is admitted rather than panicking mid-scan.
	require.NoError(t, p.Put(v))
}

func TestPut_StrictInterfaceTypeDetectsComparableDuplicates(t *testing.T) {
	p, err := New(Policy[any]{
		MaximumSize:            4,
		ErrorOnDuplicateReturn: true,
		Factory:                func() any { return new(resource) },
		Logger:                 zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)
	require.NoError(t, p.Put(v))

	err = p.Put(v)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestPut_DuplicateAllowedWithoutStrict(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnTake)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)

	require.NoError(t, p.Put(v))
	assert.NoError(t, p.Put(v), "without strict mode the racy check is skipped entirely")
}

func TestReinitializeError_OnReturn(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnReturn)
	policy.Reinitialize = func(r *resource) error {
		return assert.AnError
	}
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)

	err = p.Put(v)
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeReinitialize))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, p.Stats().Idle, "failed value is dropped, not stored")
}

func TestReinitializeError_OnTake(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnTake)
	policy.Reinitialize = func(r *resource) error {
		return assert.AnError
	}
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)
	require.NoError(t, p.Put(v))

	_, err = p.Get()
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeReinitialize))
	assert.Equal(t, 0, p.Stats().Idle)
}

func TestFill_BoundedPool(t *testing.T) {
	policy, created := testPolicy(t, 5, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Fill())
	assert.Equal(t, int32(5), created.Load())
	assert.Equal(t, 5, p.Stats().Idle)

	// Pool is full, second Fill creates nothing
	require.NoError(t, p.Fill())
	assert.Equal(t, int32(5), created.Load())
	assert.Equal(t, 5, p.Stats().Idle)
}

func TestFill_UnlimitedPoolIsNoop(t *testing.T) {
	policy, created := testPolicy(t, 0, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Fill())
	assert.Equal(t, int32(0), created.Load())

	// Explicit Prewarm still works on unlimited pools
	require.NoError(t, p.Prewarm(5))
	assert.Equal(t, int32(5), created.Load())
	assert.Equal(t, 5, p.Stats().Idle)
}

func TestPrewarm_NonPositiveIsNoop(t *testing.T) {
	policy, created := testPolicy(t, 4, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Prewarm(0))
	require.NoError(t, p.Prewarm(-3))
	assert.Equal(t, int32(0), created.Load())
}

func TestPrewarm_StopsAtCapacity(t *testing.T) {
	policy, created := testPolicy(t, 3, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Prewarm(10))
	assert.Equal(t, int32(3), created.Load())
	assert.Equal(t, 3, p.Stats().Idle)
}

func TestPrewarm_SkipsReinitialization(t *testing.T) {
	policy, _ := testPolicy(t, 2, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Fill())
	v, err := p.Get()
	require.NoError(t, err)
	assert.Equal(t, int32(0), v.resets, "prewarmed values are stored without reinitialization")
}

func TestClose_Idempotent(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)

	a, err := p.Get()
	require.NoError(t, err)
	require.NoError(t, p.Put(a))

	require.NoError(t, p.Close())
	assert.Equal(t, int32(1), a.disposeCount(), "idle entries disposed exactly once")

	require.NoError(t, p.Close())
	assert.Equal(t, int32(1), a.disposeCount(), "second close has no additional effect")
}

func TestClose_GetFails(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Get()
	require.ErrorIs(t, err, ErrClosed)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeDisposed))

	require.ErrorIs(t, p.Fill(), ErrClosed)
	require.ErrorIs(t, p.Prewarm(3), ErrClosed)
}

func TestClose_PutDisposesArgument(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)

	v, err := p.Get()
	require.NoError(t, err)
	require.NoError(t, p.Close())

	// Put after close succeeds but disposes the value
	require.NoError(t, p.Put(v))
	assert.Equal(t, int32(1), v.disposeCount())
}

func TestStats(t *testing.T) {
	policy, _ := testPolicy(t, 4, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.Get()
	require.NoError(t, err)
	require.NoError(t, p.Put(v))
	_, err = p.Get()
	require.NoError(t, err)

	s := p.Stats()
	assert.Equal(t, int64(1), s.Allocated)
	assert.Equal(t, int64(1), s.Reused)
	assert.Equal(t, int64(1), s.Returned)
	assert.Equal(t, int64(0), s.Discarded)
}

func TestConcurrentGetPut(t *testing.T) {
	const (
		workers = 8
		ops     = 2000
		max     = 16
	)

	policy, _ := testPolicy(t, max, OnReturn)
	p, err := New(policy)
	require.NoError(t, err)
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				v, err := p.Get()
				if err != nil {
					t.Error(err)
					return
				}
				if err := p.Put(v); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	// The bound is best-effort: concurrent Puts may transiently overshoot,
	// but once quiescent the overshoot is bounded by the racing workers.
	assert.LessOrEqual(t, p.Stats().Idle, max+workers)

	s := p.Stats()
	assert.Equal(t, int64(workers*ops), s.Reused+s.Allocated)
}

func BenchmarkPool_GetPut(b *testing.B) {
	p, err := New(Policy[*resource]{
		Factory:     func() *resource { return &resource{} },
		MaximumSize: 64,
	})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			v, err := p.Get()
			if err != nil {
				b.Fatal(err)
			}
			if err := p.Put(v); err != nil {
				b.Fatal(err)
			}
		}
	})
}
