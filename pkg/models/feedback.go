package models

import "time"

// FeedbackKind classifies user feedback on an agent's output.
type FeedbackKind string

const (
	FeedbackThumbsUp   FeedbackKind = "thumbs_up"
	FeedbackThumbsDown FeedbackKind = "thumbs_down"
	FeedbackCorrection FeedbackKind = "correction"
	FeedbackEdit       FeedbackKind = "edit"
)

// Feedback is a single piece of user feedback consumed by the offline
// optimizer; it is never read during execution.
type Feedback struct {
	ID          string       `json:"id"`
	AgentID     string       `json:"agent_id"`
	ExecutionID string       `json:"execution_id,omitempty"`
	Kind        FeedbackKind `json:"kind"`
	Original    string       `json:"original,omitempty"`
	Corrected   string       `json:"corrected,omitempty"`
	Comment     string       `json:"comment,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
