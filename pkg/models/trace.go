package models

import "time"

// TraceStepKind classifies a single recorded step inside a run trace.
type TraceStepKind string

const (
	TraceStepToolCall TraceStepKind = "tool_call"
	TraceStepLLMCall  TraceStepKind = "llm_call"
	TraceStepDecision TraceStepKind = "decision"
	TraceStepError    TraceStepKind = "error"
)

// TraceStatus is the trace lifecycle state.
type TraceStatus string

const (
	TraceStatusRunning   TraceStatus = "running"
	TraceStatusCompleted TraceStatus = "completed"
	TraceStatusFailed    TraceStatus = "failed"
)

// TraceStep is one ordered, append-only log entry of a run.
type TraceStep struct {
	ID         string         `json:"id"`
	Kind       TraceStepKind  `json:"kind"`
	Name       string         `json:"name"`
	Detail     map[string]any `json:"detail,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	TokensIn   int            `json:"tokens_in,omitempty"`
	TokensOut  int            `json:"tokens_out,omitempty"`
	CostUSD    float64        `json:"cost_usd,omitempty"`
	At         time.Time      `json:"at"`
}

// TraceMetrics are running aggregates over steps, maintained incrementally so
// they are O(1) to read at any point during a run.
type TraceMetrics struct {
	LLMCalls             int     `json:"llm_calls"`
	ToolCalls            int     `json:"tool_calls"`
	Decisions            int     `json:"decisions"`
	Errors               int     `json:"errors"`
	TokensIn             int     `json:"tokens_in"`
	TokensOut            int     `json:"tokens_out"`
	CostUSD              float64 `json:"cost_usd"`
	CumulativeDurationMs int64   `json:"cumulative_duration_ms"`
}

// Trace is the structured log of exactly one execution attempt.
type Trace struct {
	ID              string         `json:"id"`
	ExecutionID     string         `json:"execution_id"`
	AgentID         string         `json:"agent_id"`
	Steps           []*TraceStep   `json:"steps"`
	Metrics         TraceMetrics   `json:"metrics"`
	Status          TraceStatus    `json:"status"`
	Output          map[string]any `json:"output,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	TotalDurationMs int64          `json:"total_duration_ms"`
}
