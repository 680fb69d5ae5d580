package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finquest-app/progression-engine/internal/domain/shared"
)

func xpEvent() shared.Event {
	return shared.NewXPGainedEvent("user-1", "quiz-1", 10, 110, "lesson", time.Now())
}

func TestPublish_DeliversToTypeSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultConfig())

	var received []shared.Event
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		received = append(received, e)
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(e shared.Event) error {
		t.Fatal("level-up handler must not receive xp events")
		return nil
	}))

	require.NoError(t, bus.Publish(xpEvent()))

	require.Len(t, received, 1)
	assert.Equal(t, shared.EventXPGained, received[0].EventType())
	assert.Equal(t, "user-1", received[0].AggregateID())
}

func TestPublish_CatchAllSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultConfig())

	count := 0
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("user-1", 1, 2, 115, time.Now())))
	require.NoError(t, bus.Publish(shared.NewCoinsSpentEvent("user-1", 10, 40, time.Now())))

	assert.Equal(t, 2, count)
}

func TestPublish_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultConfig())

	second := false
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		return errors.New("observer broke")
	}))
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		second = true
		return nil
	}))

	assert.NoError(t, bus.Publish(xpEvent()))
	assert.True(t, second)
}

func TestPublish_HandlerPanicRecovered(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultConfig())

	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		panic("boom")
	}))

	assert.NotPanics(t, func() {
		_ = bus.Publish(xpEvent())
	})
}

func TestPublish_AsyncMode(t *testing.T) {
	bus := NewInMemoryEventBus(Config{AsyncMode: true, WorkerPoolSize: 2})

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(xpEvent()))
	}

	// Close waits for pending handlers.
	require.NoError(t, bus.Close())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, count)
}

func TestClosedBusRejectsOperations(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultConfig())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(xpEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventXPGained, func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.NoError(t, bus.Close()) // idempotent
}

func TestSubscribe_NilHandlerRejected(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultConfig())
	assert.Error(t, bus.Subscribe(shared.EventXPGained, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}
