package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aurelia-hq/strand/pkg/insights"
	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/persistence"
)

// SystemJobs are the offline analysis passes driven by the system cron:
// nightly trace analysis into ranked insights, and a weekly sweep that turns
// feedback and high-signal insights into optimization runs and pending
// modification proposals.
type SystemJobs struct {
	persistence persistence.Persistence
	analyzer    *insights.Analyzer
	optimizer   *insights.Optimizer
	modifier    *insights.SelfModifier
	logger      *slog.Logger
}

func NewSystemJobs(p persistence.Persistence, logger *slog.Logger) *SystemJobs {
	return &SystemJobs{
		persistence: p,
		analyzer:    insights.NewAnalyzer(insights.DefaultAnalyzerConfig()),
		optimizer:   insights.NewOptimizer(nil),
		modifier:    insights.NewSelfModifier(),
		logger:      logger,
	}
}

// NightlyInsights flattens every stored trace into data points, analyzes them
// per agent, and persists whatever patterns surface.
func (j *SystemJobs) NightlyInsights(ctx context.Context) error {
	traces, err := j.persistence.TraceRepository().Traces(ctx)
	if err != nil {
		return fmt.Errorf("failed to load traces: %w", err)
	}

	byAgent := make(map[string][]insights.DataPoint)
	for _, trace := range traces {
		byAgent[trace.AgentID] = append(byAgent[trace.AgentID], insights.FromTrace(trace, j.runLabel(ctx, trace)))
	}

	saved := 0

	for agentID, points := range byAgent {
		for _, insight := range j.analyzer.Analyze(agentID, points) {
			if err := j.persistence.InsightRepository().SaveInsight(ctx, insight); err != nil {
				return fmt.Errorf("failed to save insight for agent %s: %w", agentID, err)
			}

			saved++
		}
	}

	j.logger.InfoContext(ctx, "Nightly insights complete",
		"traces", len(traces), "agents", len(byAgent), "insights", saved)

	return nil
}

// runLabel resolves a trace to its workflow name for clustering. A trace
// whose execution or workflow is gone clusters under the empty label.
func (j *SystemJobs) runLabel(ctx context.Context, trace *models.Trace) string {
	execution, err := j.persistence.ExecutionRepository().ExecutionByID(ctx, trace.ExecutionID)
	if err != nil {
		return ""
	}

	workflow, err := j.persistence.WorkflowRepository().WorkflowByID(ctx, execution.WorkflowID)
	if err != nil {
		return execution.WorkflowID
	}

	return workflow.Name
}

// OptimizationSweep runs the optimizer over each agent's accumulated feedback
// and drafts modification proposals from high-signal insights. Agents with
// nothing actionable are skipped silently.
func (j *SystemJobs) OptimizationSweep(ctx context.Context) error {
	profiles, err := j.agentProfiles(ctx)
	if err != nil {
		return err
	}

	storedInsights, err := j.persistence.InsightRepository().Insights(ctx)
	if err != nil {
		return fmt.Errorf("failed to load insights: %w", err)
	}

	insightsByAgent := make(map[string][]*models.Insight)
	for _, insight := range storedInsights {
		insightsByAgent[insight.AgentID] = append(insightsByAgent[insight.AgentID], insight)
	}

	for agentID, profile := range profiles {
		feedback, err := j.persistence.FeedbackRepository().FeedbackByAgent(ctx, agentID)
		if err != nil {
			j.logger.WarnContext(ctx, "Skipping agent, failed to load feedback",
				"agent_id", agentID, "error", err)

			continue
		}

		run, err := j.optimizer.Optimize(ctx, profile, feedback)
		if err != nil && !errors.Is(err, insights.ErrNoApplicableStrategy) {
			j.logger.WarnContext(ctx, "Optimization failed",
				"agent_id", agentID, "error", err)
		}

		if run != nil {
			if err := j.persistence.OptimizationRepository().SaveOptimizationRun(ctx, run); err != nil {
				return fmt.Errorf("failed to save optimization run for agent %s: %w", agentID, err)
			}
		}

		for _, proposal := range j.modifier.ProposeModifications(agentID, insightsByAgent[agentID], feedback) {
			if err := j.persistence.ProposalRepository().SaveProposal(ctx, proposal); err != nil {
				return fmt.Errorf("failed to save proposal for agent %s: %w", agentID, err)
			}
		}
	}

	j.logger.InfoContext(ctx, "Optimization sweep complete", "agents", len(profiles))

	return nil
}

// agentProfiles builds the optimizer's read-only view of each agent from its
// published workflow metadata plus trace-derived average run cost.
func (j *SystemJobs) agentProfiles(ctx context.Context) (map[string]insights.AgentProfile, error) {
	workflows, err := j.persistence.WorkflowRepository().Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	profiles := make(map[string]insights.AgentProfile)

	for _, workflow := range workflows {
		if workflow.Status != models.WorkflowStatusPublished {
			continue
		}

		profiles[workflow.AgentID] = insights.AgentProfile{
			AgentID:      workflow.AgentID,
			SystemPrompt: metaString(workflow.Metadata, "system_prompt"),
			Model:        metaString(workflow.Metadata, "model"),
			CostCeiling:  metaFloat(workflow.Metadata, "cost_ceiling_usd"),
		}
	}

	traces, err := j.persistence.TraceRepository().Traces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load traces: %w", err)
	}

	costs := make(map[string]struct {
		total float64
		runs  int
	})

	for _, trace := range traces {
		entry := costs[trace.AgentID]
		entry.total += trace.Metrics.CostUSD
		entry.runs++
		costs[trace.AgentID] = entry
	}

	for agentID, profile := range profiles {
		if entry := costs[agentID]; entry.runs > 0 {
			profile.AvgCostPerRun = entry.total / float64(entry.runs)
			profiles[agentID] = profile
		}
	}

	return profiles, nil
}

func metaString(metadata map[string]any, key string) string {
	if s, ok := metadata[key].(string); ok {
		return s
	}

	return ""
}

func metaFloat(metadata map[string]any, key string) float64 {
	switch n := metadata[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
