// Package events defines the queue payloads and lifecycle notifications
// exchanged between the scheduler, the workers, and observers.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Kafka topics.
const (
	ExecutionTopic = "strand.executions" // run requests consumed by workers
	LifecycleTopic = "strand.lifecycle"  // execution lifecycle notifications
)

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionRequestedEvent EventType = "execution.requested"
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	NodeFinishedEvent       EventType = "node.finished"
	NodeFailedEvent         EventType = "node.failed"
	TriggerFiredEvent       EventType = "trigger.fired"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// ExecutionRequested is the run-job payload: the trigger subsystem (or an
// operator) enqueues one of these and exactly one worker consumes it.
type ExecutionRequested struct {
	BaseEvent

	UserID      string         `json:"user_id,omitempty"`
	InitialData map[string]any `json:"initial_data,omitempty"`
	TriggeredBy string         `json:"triggered_by"`

	// SingleAttempt marks time-critical send jobs that must not be retried,
	// to avoid duplicate external sends.
	SingleAttempt bool `json:"single_attempt,omitempty"`
}

func (e ExecutionRequested) GetType() EventType { return ExecutionRequestedEvent }

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	Result      map[string]any `json:"result,omitempty"`
	Duration    time.Duration  `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

type NodeFinished struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	OutputData  map[string]any `json:"output_data,omitempty"`
	Duration    time.Duration  `json:"duration"`
}

func (e NodeFinished) GetType() EventType { return NodeFinishedEvent }

type NodeFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	NodeID      string        `json:"node_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e NodeFailed) GetType() EventType { return NodeFailedEvent }

// TriggerFired is emitted by the scheduler when a trigger matched its window,
// alongside the ExecutionRequested job itself.
type TriggerFired struct {
	BaseEvent

	TriggerID string    `json:"trigger_id"`
	AgentID   string    `json:"agent_id"`
	FiredAt   time.Time `json:"fired_at"`
}

func (e TriggerFired) GetType() EventType { return TriggerFiredEvent }
