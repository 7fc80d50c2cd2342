// Package workflow drives one execution end to end: sort the graph, fold
// executors over it threading the shared context forward, and record the
// outcome. The run is strictly sequential; later nodes may depend on context
// values written by earlier ones.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/aurelia-hq/strand/pkg/dag"
	"github.com/aurelia-hq/strand/pkg/eventbus"
	"github.com/aurelia-hq/strand/pkg/events"
	"github.com/aurelia-hq/strand/pkg/log"
	"github.com/aurelia-hq/strand/pkg/metrics"
	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/persistence"
	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/aurelia-hq/strand/pkg/registry"
	"github.com/aurelia-hq/strand/pkg/tracer"
)

// RunJob is the dequeued run request.
type RunJob struct {
	JobID       string
	WorkflowID  string
	UserID      string
	InitialData map[string]any
	TriggeredBy string
}

// RunResult reports one finished run back to the queue layer.
type RunResult struct {
	WorkflowID  string         `json:"workflow_id"`
	ExecutionID string         `json:"execution_id"`
	Status      string         `json:"status"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Runner executes workflows. One Runner serves many concurrent runs; all
// per-run state lives on the stack of Run.
type Runner struct {
	workflows    persistence.WorkflowRepository
	executions   persistence.ExecutionRepository
	traces       persistence.TraceRepository
	registry     *registry.Registry
	publisher    eventbus.EventPublisher
	capabilities protocol.Capabilities
	workerID     string
	logger       *slog.Logger
}

func NewRunner(
	workflows persistence.WorkflowRepository,
	executions persistence.ExecutionRepository,
	traces persistence.TraceRepository,
	reg *registry.Registry,
	publisher eventbus.EventPublisher,
	capabilities protocol.Capabilities,
	workerID string,
) *Runner {
	return &Runner{
		workflows:    workflows,
		executions:   executions,
		traces:       traces,
		registry:     reg,
		publisher:    publisher,
		capabilities: capabilities,
		workerID:     workerID,
		logger:       log.WithModule("workflow").With("worker_id", workerID),
	}
}

// Run executes one job. Executor failures produce a failed RunResult AND a
// non-nil error so the queue layer can apply its retry policy; the execution
// record itself is always left in exactly one terminal state.
func (r *Runner) Run(ctx context.Context, job RunJob) (*RunResult, error) {
	ctx, span := otel.Tracer("strand/workflow").Start(ctx, "workflow.run",
		oteltrace.WithAttributes(
			attribute.String("workflow.id", job.WorkflowID),
			attribute.String("job.id", job.JobID),
		))
	defer span.End()

	execution := &models.Execution{
		ID:         uuid.New().String(),
		WorkflowID: job.WorkflowID,
		JobID:      job.JobID,
		Status:     models.ExecutionStatusPending,
		StartedAt:  time.Now().UTC(),
	}

	if err := r.executions.SaveExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution record: %w", err)
	}

	execution.Status = models.ExecutionStatusRunning
	if err := r.executions.SaveExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to mark execution running: %w", err)
	}

	metrics.RunsStarted.Inc()

	r.publishLifecycle(ctx, events.ExecutionStarted{
		BaseEvent:   r.baseEvent(events.ExecutionStartedEvent, job.WorkflowID),
		ExecutionID: execution.ID,
		TriggeredBy: job.TriggeredBy,
	})

	logger := r.logger.With("execution_id", execution.ID, "workflow_id", job.WorkflowID)

	workflow, err := r.workflows.WorkflowByID(ctx, job.WorkflowID)
	if err != nil {
		return r.fail(ctx, execution, nil, logger,
			fmt.Errorf("failed to load workflow: %w", err), "")
	}

	trc := tracer.New(execution.ID, workflow.AgentID, r.traces.SaveTrace)

	sorted, err := dag.Sort(workflow.Nodes, workflow.Connections)
	if err != nil {
		// Cycles and unknown endpoints are fatal before any executor runs.
		return r.fail(ctx, execution, trc, logger, err, "")
	}

	caps := r.capabilities
	caps.Trace = trc

	execCtx := models.NewExecutionContext(execution.ID, job.WorkflowID, job.UserID, job.InitialData)

	execCtx, stack, nodeErr := r.fold(ctx, workflow, sorted, execCtx, caps, logger)
	if nodeErr != nil {
		return r.fail(ctx, execution, trc, logger, nodeErr, stack)
	}

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusSuccess
	execution.CompletedAt = &now
	execution.Output = execCtx.Values

	if err := r.executions.SaveExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to persist successful execution: %w", err)
	}

	metrics.RunsCompleted.WithLabelValues(string(models.ExecutionStatusSuccess)).Inc()

	if err := trc.Complete(ctx, execCtx.Values, models.TraceStatusCompleted); err != nil {
		logger.ErrorContext(ctx, "Failed to persist trace", "error", err)
	}

	r.publishLifecycle(ctx, events.ExecutionCompleted{
		BaseEvent:   r.baseEvent(events.ExecutionCompletedEvent, job.WorkflowID),
		ExecutionID: execution.ID,
		Result:      execCtx.Values,
		Duration:    now.Sub(execution.StartedAt),
	})

	logger.InfoContext(ctx, "Execution completed", "duration", now.Sub(execution.StartedAt))

	return &RunResult{
		WorkflowID:  job.WorkflowID,
		ExecutionID: execution.ID,
		Status:      string(models.ExecutionStatusSuccess),
		Result:      execCtx.Values,
	}, nil
}

// fold runs the sorted nodes in order, threading the context forward and
// pruning branches: a node runs iff at least one taken edge reaches it.
// Roots are always active.
func (r *Runner) fold(
	ctx context.Context,
	workflow *models.Workflow,
	sorted []*models.Node,
	execCtx *models.ExecutionContext,
	caps protocol.Capabilities,
	logger *slog.Logger,
) (*models.ExecutionContext, string, error) {
	successors := dag.Successors(workflow.Connections)

	hasIncoming := make(map[string]bool, len(workflow.Nodes))
	for _, c := range workflow.Connections {
		hasIncoming[c.TargetNode] = true
	}

	active := make(map[string]bool, len(sorted))
	for _, n := range sorted {
		if !hasIncoming[n.ID] {
			active[n.ID] = true
		}
	}

	activateAll := func(node *models.Node) {
		for _, edge := range successors[node.ID] {
			active[edge.TargetNode] = true
		}
	}

	for _, node := range sorted {
		if !active[node.ID] {
			caps.Trace.LogDecision("node_skipped", map[string]any{"node_id": node.ID})
			logger.DebugContext(ctx, "Node skipped, no taken edge reaches it", "node_id", node.ID)

			continue
		}

		if !node.Enabled {
			// Disabled nodes pass through: context unchanged, all edges taken.
			activateAll(node)

			continue
		}

		if err := r.registry.ValidateConfig(node.Type, node.Data); err != nil {
			return execCtx, "", fmt.Errorf("node %s: %w", node.ID, err)
		}

		executor, err := r.registry.Executor(node.Type)
		if err != nil {
			return execCtx, "", fmt.Errorf("node %s: %w", node.ID, err)
		}

		started := time.Now()
		nextCtx, stack, err := r.runNode(ctx, executor, node, execCtx, caps)
		elapsed := time.Since(started)

		metrics.NodeDuration.WithLabelValues(node.Type).Observe(elapsed.Seconds())

		if err != nil {
			metrics.NodesFailed.WithLabelValues(node.Type).Inc()
			caps.Trace.LogError("node_failed", map[string]any{
				"node_id": node.ID,
				"error":   err.Error(),
			})

			r.publishLifecycle(ctx, events.NodeFailed{
				BaseEvent:   r.baseEvent(events.NodeFailedEvent, workflow.ID),
				ExecutionID: execCtx.ExecutionID,
				NodeID:      node.ID,
				Error:       err.Error(),
				Duration:    elapsed,
			})

			return execCtx, stack, fmt.Errorf("node %s (%s) failed: %w", node.ID, node.Type, err)
		}

		if nextCtx == nil {
			nextCtx = execCtx
		}

		r.publishLifecycle(ctx, events.NodeFinished{
			BaseEvent:   r.baseEvent(events.NodeFinishedEvent, workflow.ID),
			ExecutionID: execCtx.ExecutionID,
			NodeID:      node.ID,
			Duration:    elapsed,
		})

		// Take edges. A branch selection filters typed edges by handle;
		// untyped edges (no handle) are always taken. The selection is
		// consumed here and never leaks to later nodes.
		outs := successors[node.ID]

		if nextCtx.SelectedBranch != nil {
			selected := *nextCtx.SelectedBranch

			caps.Trace.LogDecision("branch_selected", map[string]any{
				"node_id": node.ID,
				"handle":  selected,
			})

			for _, edge := range outs {
				if edge.SourceHandle == "" || edge.SourceHandle == selected {
					active[edge.TargetNode] = true
				}
			}

			nextCtx = nextCtx.ClearBranch()
		} else {
			for _, edge := range outs {
				active[edge.TargetNode] = true
			}
		}

		execCtx = nextCtx
	}

	return execCtx, "", nil
}

// runNode invokes one executor with panic containment: a panicking executor
// fails the run like an error would, it never takes the worker down.
func (r *Runner) runNode(
	ctx context.Context,
	executor protocol.NodeExecutor,
	node *models.Node,
	execCtx *models.ExecutionContext,
	caps protocol.Capabilities,
) (result *models.ExecutionContext, stack string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("executor panic: %v", rec)
			stack = string(debug.Stack())
		}
	}()

	ctx, span := otel.Tracer("strand/workflow").Start(ctx, "workflow.node",
		oteltrace.WithAttributes(
			attribute.String("node.id", node.ID),
			attribute.String("node.type", node.Type),
		))
	defer span.End()

	result, err = executor.Execute(ctx, protocol.ExecInput{
		Data:         node.Data,
		NodeID:       node.ID,
		UserID:       execCtx.UserID,
		Context:      execCtx,
		Capabilities: &caps,
	})

	return result, "", err
}

// fail drives the execution to its failed terminal state. Side effects from
// nodes that already ran stay applied; there is no rollback.
func (r *Runner) fail(
	ctx context.Context,
	execution *models.Execution,
	trc *tracer.Tracer,
	logger *slog.Logger,
	cause error,
	stack string,
) (*RunResult, error) {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.CompletedAt = &now
	execution.Error = cause.Error()
	execution.ErrorStack = stack

	if err := r.executions.SaveExecution(ctx, execution); err != nil {
		logger.ErrorContext(ctx, "Failed to persist failed execution", "error", err)
	}

	metrics.RunsCompleted.WithLabelValues(string(models.ExecutionStatusFailed)).Inc()

	if trc != nil {
		if err := trc.Complete(ctx, nil, models.TraceStatusFailed); err != nil {
			logger.ErrorContext(ctx, "Failed to persist trace", "error", err)
		}
	}

	r.publishLifecycle(ctx, events.ExecutionFailed{
		BaseEvent:   r.baseEvent(events.ExecutionFailedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		Error:       cause.Error(),
		Duration:    now.Sub(execution.StartedAt),
	})

	logger.ErrorContext(ctx, "Execution failed", "error", cause)

	return &RunResult{
		WorkflowID:  execution.WorkflowID,
		ExecutionID: execution.ID,
		Status:      string(models.ExecutionStatusFailed),
		Error:       cause.Error(),
	}, cause
}

func (r *Runner) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	base := events.NewBaseEvent(eventType, workflowID)
	base.WorkerID = r.workerID

	return base
}

func (r *Runner) publishLifecycle(ctx context.Context, event eventbus.Event) {
	if err := r.publisher.Publish(ctx, events.LifecycleTopic, r.workerID, event); err != nil {
		r.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", event.GetType(), "error", err)
	}
}
