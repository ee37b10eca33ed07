package listenerbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchToMatchingAndAll(t *testing.T) {
	bus := New()

	var mu sync.Mutex
	var putCount int
	var allKinds []RequestKind

	var wg sync.WaitGroup
	wg.Add(3) // one PUT_RECORDS call + two ALL calls

	bus.Register(PUT_RECORDS, func(kind RequestKind, payload []byte) {
		mu.Lock()
		putCount++
		mu.Unlock()
		wg.Done()
	})
	bus.Register(ALL, func(kind RequestKind, payload []byte) {
		mu.Lock()
		allKinds = append(allKinds, kind)
		mu.Unlock()
		wg.Done()
	})
	bus.Run()

	bus.Publish(PUT_RECORDS, []byte("put"))
	bus.Publish(DELETE_DATASET, []byte("delete"))

	waitOrTimeout(t, &wg, time.Second)

	assert.Equal(t, 1, putCount)
	assert.Equal(t, []RequestKind{PUT_RECORDS, DELETE_DATASET}, allKinds)
}

type fakePublisher struct {
	mu       sync.Mutex
	channel  string
	messages [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel = channel
	f.messages = append(f.messages, payload)
	return nil
}

func TestPublishForwardsToRemoteWithKindPrefix(t *testing.T) {
	bus := New()
	pub := &fakePublisher{}
	bus.SetRemote(pub, "saltfish-listeners", nil)
	bus.Run()

	bus.Publish(PUT_RECORDS, []byte("payload"))

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.messages) == 1
	}, time.Second, time.Millisecond)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, "saltfish-listeners", pub.channel)
	assert.Equal(t, append([]byte{byte(PUT_RECORDS)}, "payload"...), pub.messages[0])
}

func TestRegisterAfterRunPanics(t *testing.T) {
	bus := New()
	bus.Run()
	assert.Panics(t, func() {
		bus.Register(ALL, func(RequestKind, []byte) {})
	})
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for handlers")
	}
}
