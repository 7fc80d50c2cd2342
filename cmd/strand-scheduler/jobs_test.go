package main

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/persistence"
	"github.com/aurelia-hq/strand/pkg/persistence/file"
)

func setupTestJobs(t *testing.T) (*SystemJobs, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	return NewSystemJobs(store, slog.Default()), store
}

func saveTraces(t *testing.T, store persistence.Persistence, agentID string, total, failed int) {
	t.Helper()

	for i := range total {
		status := models.TraceStatusCompleted
		if i < failed {
			status = models.TraceStatusFailed
		}

		trace := &models.Trace{
			ID:              fmt.Sprintf("%s-trace-%d", agentID, i),
			ExecutionID:     fmt.Sprintf("%s-exec-%d", agentID, i),
			AgentID:         agentID,
			Status:          status,
			Metrics:         models.TraceMetrics{CostUSD: 0.02},
			StartedAt:       time.Now().UTC().Add(-time.Duration(i) * time.Hour),
			TotalDurationMs: 1200,
		}
		require.NoError(t, store.TraceRepository().SaveTrace(t.Context(), trace))
	}
}

func TestNightlyInsights_SurfacesFailureSpike(t *testing.T) {
	jobs, store := setupTestJobs(t)

	// 4 of 10 runs failed, well past the critical threshold.
	saveTraces(t, store, "agent-1", 10, 4)

	require.NoError(t, jobs.NightlyInsights(t.Context()))

	insights, err := store.InsightRepository().Insights(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, insights)

	var spike *models.Insight

	for _, insight := range insights {
		if insight.Type == models.InsightFailureSpike {
			spike = insight
		}
	}

	require.NotNil(t, spike, "a failure spike insight is stored")
	assert.Equal(t, "agent-1", spike.AgentID)
	assert.Equal(t, models.SeverityCritical, spike.Severity)
}

func TestNightlyInsights_NoTraces(t *testing.T) {
	jobs, store := setupTestJobs(t)

	require.NoError(t, jobs.NightlyInsights(t.Context()))

	insights, err := store.InsightRepository().Insights(t.Context())
	require.NoError(t, err)
	assert.Empty(t, insights)
}

func publishedWorkflow(agentID string, metadata map[string]any) *models.Workflow {
	return &models.Workflow{
		ID:       "wf-" + agentID,
		AgentID:  agentID,
		Name:     "triage",
		Status:   models.WorkflowStatusPublished,
		Metadata: metadata,
	}
}

func TestOptimizationSweep_FewShotInjection(t *testing.T) {
	jobs, store := setupTestJobs(t)

	require.NoError(t, store.WorkflowRepository().SaveWorkflow(t.Context(),
		publishedWorkflow("agent-1", map[string]any{
			"system_prompt": "You triage the inbox.",
			"model":         "gpt-4o",
		})))

	for i := range 6 {
		require.NoError(t, store.FeedbackRepository().SaveFeedback(t.Context(), &models.Feedback{
			ID:        fmt.Sprintf("fb-%d", i),
			AgentID:   "agent-1",
			Kind:      models.FeedbackCorrection,
			Original:  "too formal",
			Corrected: "casual tone",
			CreatedAt: time.Now().UTC(),
		}))
	}

	require.NoError(t, jobs.OptimizationSweep(t.Context()))

	runs, err := store.OptimizationRepository().OptimizationRuns(t.Context())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "few_shot_injection", runs[0].Strategy)
	assert.Equal(t, models.OptimizationStatusCompleted, runs[0].Status)

	// Six corrections also fold into a pending prompt-update proposal.
	proposals, err := store.ProposalRepository().Proposals(t.Context())
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, models.ProposalPromptUpdate, proposals[0].Type)
	assert.Equal(t, models.ProposalStatusPending, proposals[0].Status)
}

func TestOptimizationSweep_NothingActionable(t *testing.T) {
	jobs, store := setupTestJobs(t)

	require.NoError(t, store.WorkflowRepository().SaveWorkflow(t.Context(),
		publishedWorkflow("agent-1", nil)))

	require.NoError(t, jobs.OptimizationSweep(t.Context()))

	runs, err := store.OptimizationRepository().OptimizationRuns(t.Context())
	require.NoError(t, err)
	assert.Empty(t, runs)

	proposals, err := store.ProposalRepository().Proposals(t.Context())
	require.NoError(t, err)
	assert.Empty(t, proposals)
}

func TestOptimizationSweep_DraftWorkflowsAreIgnored(t *testing.T) {
	jobs, store := setupTestJobs(t)

	draft := publishedWorkflow("agent-2", nil)
	draft.Status = models.WorkflowStatusDraft
	require.NoError(t, store.WorkflowRepository().SaveWorkflow(t.Context(), draft))

	for i := range 6 {
		require.NoError(t, store.FeedbackRepository().SaveFeedback(t.Context(), &models.Feedback{
			ID:        fmt.Sprintf("fb-%d", i),
			AgentID:   "agent-2",
			Kind:      models.FeedbackCorrection,
			Original:  "a",
			Corrected: "b",
			CreatedAt: time.Now().UTC(),
		}))
	}

	require.NoError(t, jobs.OptimizationSweep(t.Context()))

	runs, err := store.OptimizationRepository().OptimizationRuns(t.Context())
	require.NoError(t, err)
	assert.Empty(t, runs, "agents without a published workflow are not optimized")
}
