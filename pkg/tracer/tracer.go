// Package tracer records every step of one execution (LLM calls, tool
// calls, decisions, errors) with token, cost and latency accounting.
package tracer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aurelia-hq/strand/pkg/models"
)

// SaveFunc persists a finished trace. It is invoked exactly once, from
// Complete.
type SaveFunc func(ctx context.Context, trace *models.Trace) error

// Tracer is a single-execution-lifetime recorder. It is never shared across
// executions and keeps no cross-instance state. Aggregate metrics are
// maintained incrementally on each logged step so reading them is O(1).
type Tracer struct {
	trace     *models.Trace
	onSave    SaveFunc
	startedAt time.Time
	completed bool
}

func New(executionID, agentID string, onSave SaveFunc) *Tracer {
	now := time.Now().UTC()

	return &Tracer{
		trace: &models.Trace{
			ID:          uuid.New().String(),
			ExecutionID: executionID,
			AgentID:     agentID,
			Steps:       make([]*models.TraceStep, 0, 16),
			Status:      models.TraceStatusRunning,
			StartedAt:   now,
		},
		onSave:    onSave,
		startedAt: now,
	}
}

// LogStep appends a raw step and folds it into the running metrics.
func (t *Tracer) LogStep(step *models.TraceStep) string {
	if step.ID == "" {
		step.ID = uuid.New().String()
	}

	if step.At.IsZero() {
		step.At = time.Now().UTC()
	}

	t.trace.Steps = append(t.trace.Steps, step)

	m := &t.trace.Metrics

	switch step.Kind {
	case models.TraceStepLLMCall:
		m.LLMCalls++
	case models.TraceStepToolCall:
		m.ToolCalls++
	case models.TraceStepDecision:
		m.Decisions++
	case models.TraceStepError:
		m.Errors++
	}

	m.TokensIn += step.TokensIn
	m.TokensOut += step.TokensOut
	m.CostUSD += step.CostUSD
	m.CumulativeDurationMs += step.DurationMs

	return step.ID
}

func (t *Tracer) LogLLMCall(name string, detail map[string]any, tokensIn, tokensOut int, costUSD float64, durationMs int64) string {
	return t.LogStep(&models.TraceStep{
		Kind:       models.TraceStepLLMCall,
		Name:       name,
		Detail:     detail,
		TokensIn:   tokensIn,
		TokensOut:  tokensOut,
		CostUSD:    costUSD,
		DurationMs: durationMs,
	})
}

func (t *Tracer) LogToolCall(name string, detail map[string]any, durationMs int64) string {
	return t.LogStep(&models.TraceStep{
		Kind:       models.TraceStepToolCall,
		Name:       name,
		Detail:     detail,
		DurationMs: durationMs,
	})
}

func (t *Tracer) LogDecision(name string, detail map[string]any) string {
	return t.LogStep(&models.TraceStep{
		Kind:   models.TraceStepDecision,
		Name:   name,
		Detail: detail,
	})
}

func (t *Tracer) LogError(name string, detail map[string]any) string {
	return t.LogStep(&models.TraceStep{
		Kind:   models.TraceStepError,
		Name:   name,
		Detail: detail,
	})
}

// Metrics returns a snapshot of the running aggregates.
func (t *Tracer) Metrics() models.TraceMetrics {
	return t.trace.Metrics
}

// Complete finalizes the trace and hands it to the persistence callback.
// Calling Complete twice is a no-op returning nil: the trace was already
// saved.
func (t *Tracer) Complete(ctx context.Context, output map[string]any, status models.TraceStatus) error {
	if t.completed {
		return nil
	}

	t.completed = true

	now := time.Now().UTC()
	t.trace.CompletedAt = &now
	t.trace.TotalDurationMs = now.Sub(t.startedAt).Milliseconds()
	t.trace.Output = output
	t.trace.Status = status

	if t.onSave == nil {
		return nil
	}

	return t.onSave(ctx, t.trace)
}
