package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aurelia-hq/strand/pkg/log"
	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
)

// Strategy names reported on optimization runs.
const (
	StrategyFewShotInjection = "few_shot_injection"
	StrategyPromptRewrite    = "prompt_rewrite"
	StrategyModelDowngrade   = "model_downgrade"
)

const (
	fewShotMinCorrections = 5
	rewriteMinThumbsDown  = 10
	maxFewShotExamples    = 3
)

// ErrNoApplicableStrategy means the feedback window gives the optimizer
// nothing to act on.
var ErrNoApplicableStrategy = errors.New("no optimization strategy applies to this feedback window")

// AgentProfile is the read-only slice of agent configuration the optimizer
// consumes. The optimizer never mutates the live configuration it came from.
type AgentProfile struct {
	AgentID       string
	SystemPrompt  string
	Model         string
	AvgCostPerRun float64
	CostCeiling   float64
}

// modelDowngrades maps a model tier to its cheaper sibling with the expected
// relative cost of the downgrade.
var modelDowngrades = map[string]struct {
	to         string
	costFactor float64
}{
	"gpt-4o":         {to: "gpt-4o-mini", costFactor: 0.15},
	"gpt-4.1":        {to: "gpt-4.1-mini", costFactor: 0.2},
	"claude-opus":    {to: "claude-sonnet", costFactor: 0.2},
	"claude-sonnet":  {to: "claude-haiku", costFactor: 0.25},
	"gemini-1.5-pro": {to: "gemini-1.5-flash", costFactor: 0.1},
}

// Optimizer picks one improvement strategy from accumulated feedback and
// reports it as an OptimizationRun with per-metric deltas. Results are
// proposal-shaped records; applying them is someone else's job.
type Optimizer struct {
	llm    protocol.LLM
	logger *slog.Logger
}

func NewOptimizer(llm protocol.LLM) *Optimizer {
	return &Optimizer{llm: llm, logger: log.WithModule("optimizer")}
}

// Optimize chooses, in priority order: few-shot injection when enough
// corrections exist, a prompt rewrite when thumbs-down feedback piles up, or
// a model downgrade when the agent runs over its cost ceiling.
func (o *Optimizer) Optimize(ctx context.Context, agent AgentProfile, feedback []*models.Feedback) (*models.OptimizationRun, error) {
	corrections := filterFeedback(feedback, models.FeedbackCorrection, models.FeedbackEdit)
	thumbsDown := filterFeedback(feedback, models.FeedbackThumbsDown)

	run := &models.OptimizationRun{
		ID:        uuid.New().String(),
		AgentID:   agent.AgentID,
		Status:    models.OptimizationStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	var err error

	switch {
	case len(corrections) >= fewShotMinCorrections:
		o.fewShotInjection(run, agent, corrections)
	case len(thumbsDown) >= rewriteMinThumbsDown:
		err = o.promptRewrite(ctx, run, agent, thumbsDown)
	case agent.CostCeiling > 0 && agent.AvgCostPerRun > agent.CostCeiling:
		err = o.modelDowngrade(run, agent)
	default:
		return nil, ErrNoApplicableStrategy
	}

	now := time.Now().UTC()
	run.CompletedAt = &now

	if err != nil {
		run.Status = models.OptimizationStatusFailed
		run.Error = err.Error()

		return run, err
	}

	run.Status = models.OptimizationStatusCompleted

	o.logger.Info("Optimization run complete",
		"agent_id", agent.AgentID, "strategy", run.Strategy)

	return run, nil
}

func (o *Optimizer) fewShotInjection(run *models.OptimizationRun, agent AgentProfile, corrections []*models.Feedback) {
	examples := make([]map[string]string, 0, maxFewShotExamples)

	for _, c := range corrections {
		if c.Original == "" || c.Corrected == "" {
			continue
		}

		examples = append(examples, map[string]string{
			"before": c.Original,
			"after":  c.Corrected,
		})

		if len(examples) == maxFewShotExamples {
			break
		}
	}

	run.Strategy = StrategyFewShotInjection
	run.Change = map[string]any{
		"system_prompt": agent.SystemPrompt,
		"few_shot":      examples,
	}
	run.Deltas = map[string]models.MetricDelta{
		"correction_rate": estimatedDelta(float64(len(corrections)), 0.5),
	}
}

func (o *Optimizer) promptRewrite(ctx context.Context, run *models.OptimizationRun, agent AgentProfile, thumbsDown []*models.Feedback) error {
	run.Strategy = StrategyPromptRewrite

	complaints := make([]string, 0, len(thumbsDown))

	for _, f := range thumbsDown {
		if f.Comment != "" {
			complaints = append(complaints, "- "+f.Comment)
		}
	}

	rewritten := agent.SystemPrompt

	if o.llm != nil {
		completion, err := o.llm.CompleteText(ctx, protocol.CompletionRequest{
			System: "You improve system prompts for AI agents. Respond with the rewritten prompt only.",
			Prompt: fmt.Sprintf("Current prompt:\n%s\n\nUsers disliked recent outputs:\n%s\n\nRewrite the prompt to address the complaints.",
				agent.SystemPrompt, strings.Join(complaints, "\n")),
			Temperature: 0.3,
		})
		if err != nil {
			return fmt.Errorf("prompt rewrite failed: %w", err)
		}

		rewritten = strings.TrimSpace(completion.Text)
	}

	run.Change = map[string]any{
		"system_prompt": rewritten,
	}
	run.Deltas = map[string]models.MetricDelta{
		"thumbs_down_rate": estimatedDelta(float64(len(thumbsDown)), 0.6),
	}

	return nil
}

func (o *Optimizer) modelDowngrade(run *models.OptimizationRun, agent AgentProfile) error {
	run.Strategy = StrategyModelDowngrade

	downgrade, ok := modelDowngrades[agent.Model]
	if !ok {
		return fmt.Errorf("no cheaper tier known for model %q", agent.Model)
	}

	run.Change = map[string]any{
		"model": downgrade.to,
	}
	run.Deltas = map[string]models.MetricDelta{
		"avg_cost_per_run": {
			Before: agent.AvgCostPerRun,
			After:  agent.AvgCostPerRun * downgrade.costFactor,
		},
	}

	return nil
}

func filterFeedback(feedback []*models.Feedback, kinds ...models.FeedbackKind) []*models.Feedback {
	matched := make([]*models.Feedback, 0, len(feedback))

	for _, f := range feedback {
		for _, kind := range kinds {
			if f.Kind == kind {
				matched = append(matched, f)

				break
			}
		}
	}

	return matched
}

// estimatedDelta projects a relative reduction of a feedback-derived metric.
func estimatedDelta(before, reduction float64) models.MetricDelta {
	return models.MetricDelta{Before: before, After: before * (1 - reduction)}
}
