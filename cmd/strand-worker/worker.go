package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/aurelia-hq/strand/pkg/events"
	"github.com/aurelia-hq/strand/pkg/workflow"
)

const (
	runJobHandler = "strand_run_jobs"

	maxRetries    = 3
	retryInterval = time.Second
)

// Worker consumes run jobs from the execution topic and drives the workflow
// runner. Failed runs are retried by the router middleware unless the job is
// marked single attempt.
type Worker struct {
	id     string
	runner *workflow.Runner
	router *message.Router
	logger *slog.Logger
}

func NewWorker(id string, runner *workflow.Runner, subscriber message.Subscriber, logger *slog.Logger) (*Worker, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	retry := middleware.Retry{
		MaxRetries:      maxRetries,
		InitialInterval: retryInterval,
		Multiplier:      2,
		Logger:          wmLogger,
	}

	router.AddMiddleware(middleware.Recoverer, retry.Middleware)

	w := &Worker{
		id:     id,
		runner: runner,
		router: router,
		logger: logger,
	}

	router.AddNoPublisherHandler(runJobHandler, events.ExecutionTopic, subscriber, w.handleMessage)

	return w, nil
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Worker consuming run jobs", "topic", events.ExecutionTopic)

	return w.router.Run(ctx)
}

func (w *Worker) handleMessage(msg *message.Message) error {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))
	if eventType != events.ExecutionRequestedEvent {
		return nil
	}

	var request events.ExecutionRequested
	if err := json.Unmarshal(msg.Payload, &request); err != nil {
		// Poison message; retrying cannot fix it.
		w.logger.Error("Discarding malformed run job", "message_id", msg.UUID, "error", err)

		return nil
	}

	logger := w.logger.With("job_id", request.ID, "workflow_id", request.WorkflowID)
	logger.Info("Processing run job", "triggered_by", request.TriggeredBy)

	result, err := w.runner.Run(msg.Context(), workflow.RunJob{
		JobID:       request.ID,
		WorkflowID:  request.WorkflowID,
		UserID:      request.UserID,
		InitialData: request.InitialData,
		TriggeredBy: request.TriggeredBy,
	})
	if err != nil {
		if request.SingleAttempt {
			// Time-critical send jobs must not run twice. The failed execution
			// record and lifecycle event already capture the outcome.
			logger.Error("Run failed, single attempt job will not be retried", "error", err)

			return nil
		}

		return err
	}

	logger.Info("Run finished", "execution_id", result.ExecutionID, "status", result.Status)

	return nil
}
