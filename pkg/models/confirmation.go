package models

import "time"

// ConfirmationStatus state machine: pending -> confirmed|cancelled.
type ConfirmationStatus string

const (
	ConfirmationStatusPending   ConfirmationStatus = "pending"
	ConfirmationStatusConfirmed ConfirmationStatus = "confirmed"
	ConfirmationStatusCancelled ConfirmationStatus = "cancelled"
)

// Confirmation is a pending human-approval record created by executors whose
// side effects are irreversible (send email, post to a channel). Creating the
// record instead of acting keeps those executors safe under at-least-once
// job redelivery.
type Confirmation struct {
	ID          string             `json:"id"`
	ExecutionID string             `json:"execution_id"`
	NodeID      string             `json:"node_id"`
	UserID      string             `json:"user_id"`
	Kind        string             `json:"kind"` // e.g. "email", "chat_message"
	Payload     map[string]any     `json:"payload"`
	Status      ConfirmationStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}
