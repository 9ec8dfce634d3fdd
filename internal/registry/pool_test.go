package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDPoolAcquireRelease(t *testing.T) {
	p := NewIDPool(3)

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		id, err := p.Acquire()
		require.NoError(t, err)
		require.False(t, seen[id], "id %d handed out twice", id)
		require.False(t, p.Free(id))
		seen[id] = true
	}

	_, err := p.Acquire()
	require.ErrorIs(t, err, ErrPoolExhausted)

	require.NoError(t, p.Release(1))
	require.True(t, p.Free(1))

	id, err := p.Acquire()
	require.NoError(t, err)
	require.Equal(t, 1, id)
}

func TestIDPoolDoubleFree(t *testing.T) {
	p := NewIDPool(2)
	id, err := p.Acquire()
	require.NoError(t, err)

	require.NoError(t, p.Release(id))
	err = p.Release(id)
	require.ErrorIs(t, err, ErrDoubleFree)

	require.Error(t, p.Release(99))
	require.Error(t, p.Release(-1))
}

func TestIDPoolFIFOReuse(t *testing.T) {
	p := NewIDPool(2)
	a, _ := p.Acquire()
	b, _ := p.Acquire()

	// Released IDs go to the back of the queue.
	require.NoError(t, p.Release(a))
	require.NoError(t, p.Release(b))

	first, _ := p.Acquire()
	second, _ := p.Acquire()
	require.Equal(t, a, first)
	require.Equal(t, b, second)
}

func TestIDPoolConcurrentAcquire(t *testing.T) {
	const n = 16
	p := NewIDPool(n)

	var mu sync.Mutex
	got := map[int]int{}
	var wg sync.WaitGroup
	for i := 0; i < n*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := p.Acquire()
			if err != nil {
				if !errors.Is(err, ErrPoolExhausted) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			got[id]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, got, n)
	for id, count := range got {
		require.Equal(t, 1, count, "id %d acquired %d times", id, count)
	}
}
