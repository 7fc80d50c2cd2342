package models

import (
	"fmt"
	"time"
)

// ProposalType classifies what a modification proposal changes.
type ProposalType string

const (
	ProposalPromptUpdate    ProposalType = "prompt_update"
	ProposalParameterTuning ProposalType = "parameter_tuning"
	ProposalToolAddition    ProposalType = "tool_addition"
)

// ProposalStatus state machine: pending -> approved|rejected.
type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// ModificationProposal is a human-approvable suggested change to agent
// configuration. Proposals start pending and require explicit external
// approval before any live configuration is touched; the engine never
// self-applies changes.
type ModificationProposal struct {
	ID             string         `json:"id"`
	AgentID        string         `json:"agent_id"`
	Type           ProposalType   `json:"type"`
	Status         ProposalStatus `json:"status"`
	Rationale      string         `json:"rationale"`
	ExpectedImpact string         `json:"expected_impact"`
	Evidence       []string       `json:"evidence,omitempty"`
	Change         map[string]any `json:"change,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	DecidedAt      *time.Time     `json:"decided_at,omitempty"`
	DecidedBy      string         `json:"decided_by,omitempty"`
}

// Approve transitions a pending proposal to approved.
func (p *ModificationProposal) Approve(by string, at time.Time) error {
	return p.decide(ProposalStatusApproved, by, at)
}

// Reject transitions a pending proposal to rejected.
func (p *ModificationProposal) Reject(by string, at time.Time) error {
	return p.decide(ProposalStatusRejected, by, at)
}

func (p *ModificationProposal) decide(to ProposalStatus, by string, at time.Time) error {
	if p.Status != ProposalStatusPending {
		return fmt.Errorf("proposal %s is %s, only pending proposals can be decided", p.ID, p.Status)
	}

	p.Status = to
	p.DecidedBy = by
	p.DecidedAt = &at

	return nil
}

// OptimizationStatus state machine: running -> completed|failed.
type OptimizationStatus string

const (
	OptimizationStatusRunning   OptimizationStatus = "running"
	OptimizationStatusCompleted OptimizationStatus = "completed"
	OptimizationStatusFailed    OptimizationStatus = "failed"
)

// MetricDelta reports a per-metric before/after pair from an optimization run.
type MetricDelta struct {
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// OptimizationRun records one offline optimization pass over an agent. Like
// proposals, its result is never written back to live configuration.
type OptimizationRun struct {
	ID          string                 `json:"id"`
	AgentID     string                 `json:"agent_id"`
	Strategy    string                 `json:"strategy"`
	Status      OptimizationStatus     `json:"status"`
	Deltas      map[string]MetricDelta `json:"deltas,omitempty"`
	Change      map[string]any         `json:"change,omitempty"`
	Error       string                 `json:"error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}
