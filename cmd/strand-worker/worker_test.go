package main

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-hq/strand/pkg/channels/gochannel"
	"github.com/aurelia-hq/strand/pkg/cmd"
	"github.com/aurelia-hq/strand/pkg/eventbus"
	"github.com/aurelia-hq/strand/pkg/events"
	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/persistence"
	"github.com/aurelia-hq/strand/pkg/persistence/file"
	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/aurelia-hq/strand/pkg/workflow"
)

func setupTestWorker(t *testing.T) (*Worker, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	runner := workflow.NewRunner(
		store.WorkflowRepository(),
		store.ExecutionRepository(),
		store.TraceRepository(),
		cmd.NewRegistry(slog.Default()),
		eventbus.NewWatermillEventBus(pub, sub),
		protocol.Capabilities{},
		"worker-test",
	)

	worker, err := NewWorker("worker-test", runner, sub, slog.Default())
	require.NoError(t, err)

	return worker, store
}

func saveWorkflow(t *testing.T, store persistence.Persistence, nodes []*models.Node) string {
	t.Helper()

	wf := &models.Workflow{
		ID:        "wf-1",
		AgentID:   "agent-1",
		Name:      "inbox triage",
		Status:    models.WorkflowStatusPublished,
		Nodes:     nodes,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.WorkflowRepository().SaveWorkflow(t.Context(), wf))

	return wf.ID
}

func runJobMessage(t *testing.T, request events.ExecutionRequested) *message.Message {
	t.Helper()

	payload, err := json.Marshal(request)
	require.NoError(t, err)

	msg := message.NewMessage("msg-1", payload)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(events.ExecutionRequestedEvent))
	msg.SetContext(t.Context())

	return msg
}

func TestHandleMessage_RunsWorkflow(t *testing.T) {
	worker, store := setupTestWorker(t)

	workflowID := saveWorkflow(t, store, []*models.Node{
		{ID: "a", Type: "transform", Enabled: true, Data: map[string]any{
			"set": map[string]any{"greeting": "hello"},
		}},
	})

	err := worker.handleMessage(runJobMessage(t, events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, workflowID),
		TriggeredBy: "test",
	}))
	require.NoError(t, err)

	executions, err := store.ExecutionRepository().Executions(t.Context())
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, models.ExecutionStatusSuccess, executions[0].Status)
	assert.Equal(t, "hello", executions[0].Output["greeting"])
}

func TestHandleMessage_MalformedPayloadIsDiscarded(t *testing.T) {
	worker, store := setupTestWorker(t)

	msg := message.NewMessage("msg-1", []byte("{not json"))
	msg.Metadata.Set(events.EventTypeMetadataKey, string(events.ExecutionRequestedEvent))
	msg.SetContext(t.Context())

	assert.NoError(t, worker.handleMessage(msg), "poison messages are acked, not retried")

	executions, err := store.ExecutionRepository().Executions(t.Context())
	require.NoError(t, err)
	assert.Empty(t, executions)
}

func TestHandleMessage_OtherEventTypesAreIgnored(t *testing.T) {
	worker, _ := setupTestWorker(t)

	msg := message.NewMessage("msg-1", []byte("{}"))
	msg.Metadata.Set(events.EventTypeMetadataKey, string(events.TriggerFiredEvent))
	msg.SetContext(t.Context())

	assert.NoError(t, worker.handleMessage(msg))
}

func TestHandleMessage_FailureIsRetriable(t *testing.T) {
	worker, store := setupTestWorker(t)

	workflowID := saveWorkflow(t, store, []*models.Node{
		{ID: "a", Type: "no_such_type", Enabled: true},
	})

	err := worker.handleMessage(runJobMessage(t, events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, workflowID),
		TriggeredBy: "test",
	}))
	assert.Error(t, err, "the router middleware retries on error")
}

func TestHandleMessage_SingleAttemptFailureIsNotRetried(t *testing.T) {
	worker, store := setupTestWorker(t)

	workflowID := saveWorkflow(t, store, []*models.Node{
		{ID: "a", Type: "no_such_type", Enabled: true},
	})

	err := worker.handleMessage(runJobMessage(t, events.ExecutionRequested{
		BaseEvent:     events.NewBaseEvent(events.ExecutionRequestedEvent, workflowID),
		TriggeredBy:   "test",
		SingleAttempt: true,
	}))
	assert.NoError(t, err, "single attempt jobs are acked even on failure")

	executions, err := store.ExecutionRepository().Executions(t.Context())
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, models.ExecutionStatusFailed, executions[0].Status)
}
