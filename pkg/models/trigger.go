package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// TriggerType classifies what kind of event starts an agent run.
type TriggerType string

const (
	TriggerTypeSchedule     TriggerType = "schedule"
	TriggerTypeWebhook      TriggerType = "webhook"
	TriggerTypeEmail        TriggerType = "email"
	TriggerTypeChat         TriggerType = "chat"
	TriggerTypeAgentMessage TriggerType = "agent_message"
)

// ErrInvalidTrigger is returned when trigger validation fails.
var ErrInvalidTrigger = errors.New("invalid trigger configuration")

// Trigger is a per-agent rule that decides when a workflow execution is
// enqueued. Schedule triggers carry a cron expression evaluated by the
// polling scheduler; LastRunAt/NextRunAt are mutated by the scheduler after
// each fire, Enabled and CronExpression by the user.
type Trigger struct {
	ID             string      `json:"id"       validate:"required"`
	AgentID        string      `json:"agent_id" validate:"required"`
	WorkflowID     string      `json:"workflow_id"`
	Type           TriggerType `json:"type"     validate:"required"`
	CronExpression string      `json:"cron_expression,omitempty"`
	Enabled        bool        `json:"enabled"`
	LastRunAt      *time.Time  `json:"last_run_at,omitempty"`
	NextRunAt      *time.Time  `json:"next_run_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Validate checks structural fields plus the cron expression for schedule
// triggers. Uses the standard 5-field format (minute hour dom month dow).
func (t *Trigger) Validate() error {
	if t.ID == "" || t.AgentID == "" {
		return ErrInvalidTrigger
	}

	if t.Type == TriggerTypeSchedule {
		if t.CronExpression == "" {
			return ErrInvalidTrigger
		}

		if _, err := cron.ParseStandard(t.CronExpression); err != nil {
			return err
		}
	}

	return nil
}
