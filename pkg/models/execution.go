package models

import "time"

// ExecutionStatus is the run state machine: pending -> running -> success|failed.
type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "pending"
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// IsTerminal reports whether the status is final.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusFailed
}

// Execution is the persisted record of one workflow run. It is created at run
// start and mutated exactly twice: once to running, once to a terminal state.
// The engine never deletes executions.
type Execution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id" validate:"required"`
	JobID       string          `json:"job_id"` // queue job id, for at-least-once correlation
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Output      map[string]any  `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	ErrorStack  string          `json:"error_stack,omitempty"`
}
