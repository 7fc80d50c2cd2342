package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-hq/strand/pkg/channels/gochannel"
	"github.com/aurelia-hq/strand/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.ExecutionRequested, 1)

	bus.Handle(events.ExecutionRequestedEvent, func(_ context.Context, event any) error {
		request, ok := event.(*events.ExecutionRequested)
		require.True(t, ok)

		received <- request

		return nil
	})

	require.NoError(t, bus.Subscribe(t.Context(), events.ExecutionTopic))

	sent := events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, "wf-1"),
		UserID:      "user-1",
		TriggeredBy: "schedule:trig-1",
		InitialData: map[string]any{"topic": "pricing"},
	}
	require.NoError(t, bus.Publish(t.Context(), events.ExecutionTopic, "wf-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, "schedule:trig-1", got.TriggeredBy)
		assert.Equal(t, "pricing", got.InitialData["topic"])
	case <-time.After(5 * time.Second):
		t.Fatal("event was never delivered")
	}
}

func TestSubscribe_EventsWithoutHandlerAreDropped(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan struct{}, 2)

	bus.Handle(events.TriggerFiredEvent, func(_ context.Context, _ any) error {
		received <- struct{}{}

		return nil
	})

	require.NoError(t, bus.Subscribe(t.Context(), events.LifecycleTopic))

	// No handler registered for this type; it must be acked and dropped
	// without blocking the handled event behind it.
	require.NoError(t, bus.Publish(t.Context(), events.LifecycleTopic, "wf-1", events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, "wf-1"),
		ExecutionID: "exec-1",
	}))

	require.NoError(t, bus.Publish(t.Context(), events.LifecycleTopic, "wf-1", events.TriggerFired{
		BaseEvent: events.NewBaseEvent(events.TriggerFiredEvent, "wf-1"),
		TriggerID: "trig-1",
		FiredAt:   time.Now().UTC(),
	}))

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("handled event never arrived")
	}

	assert.Empty(t, received, "exactly one event had a handler")
}

func TestGenerateID(t *testing.T) {
	bus := newTestBus(t)

	a := bus.GenerateID()
	b := bus.GenerateID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
