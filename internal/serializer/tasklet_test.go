package serializer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter is a deliberately not-thread-safe owned object.
type counter struct{ n int }

func TestTaskletSerializesCalls(t *testing.T) {
	tasklet := New(
		func() *counter { return &counter{} },
		func(c *counter, delta int) int {
			c.n += delta // would race if called concurrently
			return c.n
		},
		func(c *counter) {},
	)
	defer tasklet.Stop()

	const goroutines = 32
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := tasklet.Connect()
			_, err := conn.Call(context.Background(), 1)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	conn := tasklet.Connect()
	final, err := conn.Call(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, goroutines, final)
}

func TestTaskletTearDownRunsOnStop(t *testing.T) {
	var torn bool
	tasklet := New(
		func() *counter { return &counter{} },
		func(c *counter, delta int) int { return c.n + delta },
		func(c *counter) { torn = true },
	)
	tasklet.Stop()
	assert.True(t, torn)
}

func TestTaskletCallAfterStopErrors(t *testing.T) {
	tasklet := New(
		func() *counter { return &counter{} },
		func(c *counter, delta int) int { return delta },
		func(c *counter) {},
	)
	tasklet.Stop()

	conn := tasklet.Connect()
	_, err := conn.Call(context.Background(), 1)
	assert.Error(t, err)
}

func TestTaskletCallRespectsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	tasklet := New(
		func() *counter { return &counter{} },
		func(c *counter, _ int) int {
			<-block
			return 0
		},
		func(c *counter) {},
	)
	defer func() {
		close(block)
		tasklet.Stop()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	conn := tasklet.Connect()

	done := make(chan error, 1)
	go func() {
		_, err := conn.Call(ctx, 1)
		done <- err
	}()
	cancel()
	assert.Error(t, <-done)
}
