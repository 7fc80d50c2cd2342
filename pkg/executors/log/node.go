// Package log provides the logging node for workflow graphs.
package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/aurelia-hq/strand/pkg/template"
)

type config struct {
	Message string `mapstructure:"message"`
	Level   string `mapstructure:"level"`
}

type Executor struct {
	logger *slog.Logger
}

func NewExecutor() *Executor {
	return &Executor{logger: slog.With("module", "log-node")}
}

func (e *Executor) Execute(ctx context.Context, in protocol.ExecInput) (*models.ExecutionContext, error) {
	var cfg config
	if err := mapstructure.Decode(in.Data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	if cfg.Message == "" {
		return nil, fmt.Errorf("log node %s: message is required", in.NodeID)
	}

	message, err := template.Render(cfg.Message, in.Context)
	if err != nil {
		return nil, fmt.Errorf("log node %s: %w", in.NodeID, err)
	}

	logger := e.logger.With("node_id", in.NodeID, "execution_id", in.Context.ExecutionID)

	switch cfg.Level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return in.Context, nil
}
