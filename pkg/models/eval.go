package models

import "time"

// EvalOutcome is the final gate decision for generated content.
type EvalOutcome string

const (
	EvalAutoSend    EvalOutcome = "auto_send"
	EvalNeedsReview EvalOutcome = "needs_review"
	EvalBlocked     EvalOutcome = "blocked"
)

// AssertionSeverity controls whether a failing L1 assertion blocks content.
type AssertionSeverity string

const (
	AssertionSeverityBlock AssertionSeverity = "block"
	AssertionSeverityWarn  AssertionSeverity = "warn"
)

// Assertion selects one deterministic L1 check plus its parameters.
type Assertion struct {
	ID       string            `json:"id"`
	Severity AssertionSeverity `json:"severity"`
	Params   map[string]any    `json:"params,omitempty"`
}

// AssertionResult is the outcome of one L1 check.
type AssertionResult struct {
	ID       string            `json:"id"`
	Severity AssertionSeverity `json:"severity"`
	Passed   bool              `json:"passed"`
	Message  string            `json:"message,omitempty"`
}

// L1Result aggregates the deterministic assertion layer. Passed is true iff
// every block-severity assertion passed.
type L1Result struct {
	Passed     bool              `json:"passed"`
	Assertions []AssertionResult `json:"assertions"`
}

// L2Result is the scored-criteria layer: per-criterion 0..1 scores, averaged.
type L2Result struct {
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// L3Result is the LLM safety veto.
type L3Result struct {
	Blocked    bool    `json:"blocked"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// EvalRuleSet configures one evaluation pass.
type EvalRuleSet struct {
	Assertions        []Assertion `json:"assertions"`
	Criteria          []string    `json:"criteria"`
	ConfidenceFloor   float64     `json:"confidence_floor"`   // below this L2 score, L3 runs
	AutoSendThreshold float64     `json:"auto_send_threshold"`
	MandatoryApproval bool        `json:"mandatory_approval"`
}

// EvalDecision is the full layered result. A blocked decision is a normal
// outcome surfaced to the caller, not an error.
type EvalDecision struct {
	Outcome     EvalOutcome `json:"outcome"`
	L1          *L1Result   `json:"l1,omitempty"`
	L2          *L2Result   `json:"l2,omitempty"`
	L3          *L3Result   `json:"l3,omitempty"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}
