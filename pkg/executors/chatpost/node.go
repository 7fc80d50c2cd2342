// Package chatpost provides the channel-message node. Like email, a posted
// message cannot be unposted, so the confirmation-by-default policy applies.
package chatpost

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
	Channel     string `mapstructure:"channel"`
	Text        string `mapstructure:"text"`
	SafeToRetry bool   `mapstructure:"safe_to_retry"`
}

type Executor struct{}

func (e *Executor) Execute(ctx context.Context, in protocol.ExecInput) (*models.ExecutionContext, error) {
	var cfg config
	if err := mapstructure.Decode(in.Data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid chat_post config: %w", err)
	}

	if cfg.Channel == "" || cfg.Text == "" {
		return nil, fmt.Errorf("chat_post node %s: channel and text are required", in.NodeID)
	}

	if err := template.RenderAll(in.Context, &cfg.Text); err != nil {
		return nil, fmt.Errorf("chat_post node %s: %w", in.NodeID, err)
	}

	started := time.Now()

	if cfg.SafeToRetry {
		if in.Capabilities == nil || in.Capabilities.Messenger == nil {
			return nil, fmt.Errorf("chat_post node %s: messenger capability not available", in.NodeID)
		}

		if err := in.Capabilities.Messenger.PostMessage(ctx, in.UserID, cfg.Channel, cfg.Text); err != nil {
			return nil, fmt.Errorf("chat_post node %s: post failed: %w", in.NodeID, err)
		}

		if in.Capabilities.Trace != nil {
			in.Capabilities.Trace.LogToolCall("chat_message_posted", map[string]any{
				"node_id": in.NodeID,
				"channel": cfg.Channel,
			}, time.Since(started).Milliseconds())
		}

		return in.Context.With("chat_posted", true), nil
	}

	if in.Capabilities == nil || in.Capabilities.Confirmations == nil {
		return nil, fmt.Errorf("chat_post node %s: confirmations capability not available", in.NodeID)
	}

	confirmation := &models.Confirmation{
		ID:          uuid.New().String(),
		ExecutionID: in.Context.ExecutionID,
		NodeID:      in.NodeID,
		UserID:      in.UserID,
		Kind:        "chat_message",
		Payload: map[string]any{
			"channel": cfg.Channel,
			"text":    cfg.Text,
		},
		Status:    models.ConfirmationStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := in.Capabilities.Confirmations.CreatePending(ctx, confirmation); err != nil {
		return nil, fmt.Errorf("chat_post node %s: failed to create confirmation: %w", in.NodeID, err)
	}

	if in.Capabilities.Trace != nil {
		in.Capabilities.Trace.LogToolCall("chat_confirmation_created", map[string]any{
			"node_id":         in.NodeID,
			"confirmation_id": confirmation.ID,
		}, time.Since(started).Milliseconds())
	}

	return in.Context.With("chat_confirmation_id", confirmation.ID), nil
}
