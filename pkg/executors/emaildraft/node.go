// Package emaildraft provides the outbound email node. Sending email is
// irreversible under at-least-once redelivery, so by default the node records
// a pending confirmation instead of sending; only safe_to_retry nodes send
// directly.
package emaildraft

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/aurelia-hq/strand/pkg/template"
)

type config struct {
	To      []string `mapstructure:"to"`
	Subject string   `mapstructure:"subject"`
	Body    string   `mapstructure:"body"`

	// SafeToRetry marks this node's send as idempotent on the receiving side
	// (e.g. deduplicated by the provider). Only then does the node send
	// directly instead of creating a confirmation.
	SafeToRetry bool `mapstructure:"safe_to_retry"`
}

type Executor struct{}

func (e *Executor) Execute(ctx context.Context, in protocol.ExecInput) (*models.ExecutionContext, error) {
	var cfg config
	if err := mapstructure.Decode(in.Data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid email_draft config: %w", err)
	}

	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("email_draft node %s: at least one recipient is required", in.NodeID)
	}

	if err := template.RenderAll(in.Context, &cfg.Subject, &cfg.Body); err != nil {
		return nil, fmt.Errorf("email_draft node %s: %w", in.NodeID, err)
	}

	started := time.Now()

	if cfg.SafeToRetry {
		if in.Capabilities == nil || in.Capabilities.Mailer == nil {
			return nil, fmt.Errorf("email_draft node %s: mailer capability not available", in.NodeID)
		}

		mail := protocol.Mail{To: cfg.To, Subject: cfg.Subject, Body: cfg.Body}
		if err := in.Capabilities.Mailer.SendMail(ctx, in.UserID, mail); err != nil {
			return nil, fmt.Errorf("email_draft node %s: send failed: %w", in.NodeID, err)
		}

		if in.Capabilities.Trace != nil {
			in.Capabilities.Trace.LogToolCall("email_sent", map[string]any{
				"node_id":    in.NodeID,
				"recipients": len(cfg.To),
			}, time.Since(started).Milliseconds())
		}

		return in.Context.With("email_sent", true), nil
	}

	if in.Capabilities == nil || in.Capabilities.Confirmations == nil {
		return nil, fmt.Errorf("email_draft node %s: confirmations capability not available", in.NodeID)
	}

	confirmation := &models.Confirmation{
		ID:          uuid.New().String(),
		ExecutionID: in.Context.ExecutionID,
		NodeID:      in.NodeID,
		UserID:      in.UserID,
		Kind:        "email",
		Payload: map[string]any{
			"to":      cfg.To,
			"subject": cfg.Subject,
			"body":    cfg.Body,
		},
		Status:    models.ConfirmationStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := in.Capabilities.Confirmations.CreatePending(ctx, confirmation); err != nil {
		return nil, fmt.Errorf("email_draft node %s: failed to create confirmation: %w", in.NodeID, err)
	}

	if in.Capabilities.Trace != nil {
		in.Capabilities.Trace.LogToolCall("email_confirmation_created", map[string]any{
			"node_id":         in.NodeID,
			"confirmation_id": confirmation.ID,
		}, time.Since(started).Milliseconds())
	}

	return in.Context.With("email_confirmation_id", confirmation.ID), nil
}
