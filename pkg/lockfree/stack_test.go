package lockfree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack_LIFOOrder(t *testing.T) {
	s := NewStack[int]()
	s.Push(1)
	s.Push(2)
	s.Push(3)

	v, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok = s.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = s.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = s.Pop()
	assert.False(t, ok)
}

func TestStack_Len(t *testing.T) {
	s := NewStack[string]()
	assert.Equal(t, 0, s.Len())

	s.Push("a")
	s.Push("b")
	assert.Equal(t, 2, s.Len())

	s.Pop()
	assert.Equal(t, 1, s.Len())
}

func TestStack_Contains(t *testing.T) {
	s := NewStack[*int]()
	a, b := new(int), new(int)
	s.Push(a)

	eq := func(x, y *int) bool { return x == y }
	assert.True(t, s.Contains(a, eq))
	assert.False(t, s.Contains(b, eq))
}

func TestStack_Drain(t *testing.T) {
	s := NewStack[int]()
	for i := 1; i <= 4; i++ {
		s.Push(i)
	}

	out := s.Drain()
	// Drain returns entries in pop order
	assert.Equal(t, []int{4, 3, 2, 1}, out)
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Drain())
}

func TestStack_ConcurrentPushPop(t *testing.T) {
	const (
		producers = 8
		perWorker = 1000
	)

	s := NewStack[int]()
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.Push(base*perWorker + j)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, producers*perWorker, s.Len())

	seen := make(map[int]bool)
	var mu sync.Mutex
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := s.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, producers*perWorker)
	assert.Equal(t, 0, s.Len())
}

func TestAtomicCounter(t *testing.T) {
	c := NewAtomicCounter()
	assert.Equal(t, int64(0), c.Get())

	c.Increment()
	c.Increment()
	c.Add(3)
	assert.Equal(t, int64(5), c.Get())

	c.Decrement()
	assert.Equal(t, int64(4), c.Get())

	c.Reset()
	assert.Equal(t, int64(0), c.Get())
}

func TestAtomicCounter_ClampsAtZero(t *testing.T) {
	c := NewAtomicCounter()
	c.Decrement()
	assert.Equal(t, int64(0), c.Get())
}

func BenchmarkStack_PushPop(b *testing.B) {
	s := NewStack[int]()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s.Push(1)
			s.Pop()
		}
	})
}
