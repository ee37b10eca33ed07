package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenRandomStringWidth(t *testing.T) {
	_, err := GenRandomString(0)
	require.Error(t, err)

	_, err = GenRandomString(3)
	require.Error(t, err)

	buf, err := GenRandomString(24)
	require.NoError(t, err)
	assert.Len(t, buf, 24)
}

func TestGenRandomStringDistinctAcrossCalls(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		buf, err := GenRandomString(24)
		require.NoError(t, err)
		key := string(buf)
		assert.False(t, seen[key], "collision at iteration %d", i)
		seen[key] = true
	}
}

func TestMonotonicTickStrictlyIncreasingUnderContention(t *testing.T) {
	const goroutines = 16
	const callsPerGoroutine = 200

	results := make(chan int64, goroutines*callsPerGoroutine)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < callsPerGoroutine; i++ {
				results <- MonotonicTick()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for v := range results {
		assert.False(t, seen[v], "duplicate tick value %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, goroutines*callsPerGoroutine)
}

func TestGenRandomIndexBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v, err := GenRandomIndex(100)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, int64(0))
		assert.Less(t, v, int64(100))
	}
}
