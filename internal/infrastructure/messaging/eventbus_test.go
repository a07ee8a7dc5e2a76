package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:     false,
		EnableMetrics: true,
	})
}

func countingHandler(name string, counter *atomic.Int64) shared.EventHandler {
	return shared.EventHandlerFunc{
		HandlerName: name,
		Fn: func(event shared.Event) error {
			counter.Add(1)
			return nil
		},
	}
}

func TestEventBus_PublishToSubscriber(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var calls atomic.Int64
	require.NoError(t, bus.Subscribe(shared.EventGroupCapacityChanged, countingHandler("counter", &calls)))

	require.NoError(t, bus.Publish(shared.NewGroupChangedEvent(shared.EventGroupCapacityChanged, "group-a")))
	require.NoError(t, bus.Publish(shared.NewGroupChangedEvent(shared.EventGroupDeadlineChanged, "group-a")))

	assert.Equal(t, int64(1), calls.Load(), "handler must only see its subscribed event type")
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var calls atomic.Int64
	require.NoError(t, bus.SubscribeAll(countingHandler("all", &calls)))

	require.NoError(t, bus.Publish(shared.NewGroupChangedEvent(shared.EventGroupCapacityChanged, "group-a")))
	require.NoError(t, bus.Publish(shared.NewGroupChangedEvent(shared.EventGroupDeadlineChanged, "group-a")))

	assert.Equal(t, int64(2), calls.Load())
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var calls atomic.Int64
	failing := shared.EventHandlerFunc{
		HandlerName: "failing",
		Fn:          func(event shared.Event) error { return errors.New("boom") },
	}
	require.NoError(t, bus.Subscribe(shared.EventGroupCapacityChanged, failing))
	require.NoError(t, bus.Subscribe(shared.EventGroupCapacityChanged, countingHandler("counter", &calls)))

	require.NoError(t, bus.Publish(shared.NewGroupChangedEvent(shared.EventGroupCapacityChanged, "group-a")))
	assert.Equal(t, int64(1), calls.Load())
}

func TestEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 2,
	})

	var wg sync.WaitGroup
	wg.Add(3)
	var calls atomic.Int64
	handler := shared.EventHandlerFunc{
		HandlerName: "async-counter",
		Fn: func(event shared.Event) error {
			calls.Add(1)
			wg.Done()
			return nil
		},
	}
	require.NoError(t, bus.Subscribe(shared.EventGroupMembershipChanged, handler))

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(shared.NewGroupChangedEvent(shared.EventGroupMembershipChanged, "group-a")))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handlers did not run in time")
	}

	require.NoError(t, bus.Close())
	assert.Equal(t, int64(3), calls.Load())
}

func TestEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewGroupChangedEvent(shared.EventGroupCapacityChanged, "group-a"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventGroupCapacityChanged, countingHandler("late", &atomic.Int64{}))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	// Double close is a no-op
	assert.NoError(t, bus.Close())
}

func TestEventBus_Metrics(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var calls atomic.Int64
	require.NoError(t, bus.Subscribe(shared.EventGroupCapacityChanged, countingHandler("counter", &calls)))
	require.NoError(t, bus.Publish(shared.NewGroupChangedEvent(shared.EventGroupCapacityChanged, "group-a")))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(1), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}
