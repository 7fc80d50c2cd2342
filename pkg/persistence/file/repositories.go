package file

import (
	"context"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/persistence"
)

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository         { return p }
func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository       { return p }
func (p *Persistence) TriggerRepository() persistence.TriggerRepository           { return p }
func (p *Persistence) TraceRepository() persistence.TraceRepository               { return p }
func (p *Persistence) InsightRepository() persistence.InsightRepository           { return p }
func (p *Persistence) ProposalRepository() persistence.ProposalRepository         { return p }
func (p *Persistence) ConfirmationRepository() persistence.ConfirmationRepository { return p }
func (p *Persistence) FeedbackRepository() persistence.FeedbackRepository         { return p }
func (p *Persistence) OptimizationRepository() persistence.OptimizationRepository { return p }

// Workflows

func (p *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	return p.workflows.list()
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	return p.workflows.get(id)
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	return p.workflows.save(workflow.ID, workflow)
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	return p.workflows.delete(id)
}

// Executions

func (p *Persistence) Executions(_ context.Context) ([]*models.Execution, error) {
	return p.executions.list()
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	return p.executions.get(id)
}

func (p *Persistence) SaveExecution(_ context.Context, execution *models.Execution) error {
	return p.executions.save(execution.ID, execution)
}

// Triggers

func (p *Persistence) Triggers(_ context.Context) ([]*models.Trigger, error) {
	return p.triggers.list()
}

func (p *Persistence) EnabledTriggersByType(ctx context.Context, triggerType models.TriggerType) ([]*models.Trigger, error) {
	all, err := p.triggers.list()
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Trigger, 0, len(all))

	for _, t := range all {
		if t.Enabled && t.Type == triggerType {
			matched = append(matched, t)
		}
	}

	return matched, nil
}

func (p *Persistence) TriggerByID(_ context.Context, id string) (*models.Trigger, error) {
	return p.triggers.get(id)
}

func (p *Persistence) SaveTrigger(_ context.Context, trigger *models.Trigger) error {
	return p.triggers.save(trigger.ID, trigger)
}

func (p *Persistence) DeleteTrigger(_ context.Context, id string) error {
	return p.triggers.delete(id)
}

// Traces

func (p *Persistence) Traces(_ context.Context) ([]*models.Trace, error) {
	return p.traces.list()
}

func (p *Persistence) TraceByID(_ context.Context, id string) (*models.Trace, error) {
	return p.traces.get(id)
}

func (p *Persistence) SaveTrace(_ context.Context, trace *models.Trace) error {
	return p.traces.save(trace.ID, trace)
}

// Insights

func (p *Persistence) Insights(_ context.Context) ([]*models.Insight, error) {
	return p.insights.list()
}

func (p *Persistence) SaveInsight(_ context.Context, insight *models.Insight) error {
	return p.insights.save(insight.ID, insight)
}

// Proposals

func (p *Persistence) Proposals(_ context.Context) ([]*models.ModificationProposal, error) {
	return p.proposals.list()
}

func (p *Persistence) ProposalByID(_ context.Context, id string) (*models.ModificationProposal, error) {
	return p.proposals.get(id)
}

func (p *Persistence) SaveProposal(_ context.Context, proposal *models.ModificationProposal) error {
	return p.proposals.save(proposal.ID, proposal)
}

// Confirmations

func (p *Persistence) Confirmations(_ context.Context) ([]*models.Confirmation, error) {
	return p.confirmations.list()
}

func (p *Persistence) SaveConfirmation(_ context.Context, confirmation *models.Confirmation) error {
	return p.confirmations.save(confirmation.ID, confirmation)
}

// Feedback

func (p *Persistence) FeedbackByAgent(_ context.Context, agentID string) ([]*models.Feedback, error) {
	all, err := p.feedback.list()
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Feedback, 0, len(all))

	for _, f := range all {
		if f.AgentID == agentID {
			matched = append(matched, f)
		}
	}

	return matched, nil
}

func (p *Persistence) SaveFeedback(_ context.Context, feedback *models.Feedback) error {
	return p.feedback.save(feedback.ID, feedback)
}

// Optimization runs

func (p *Persistence) OptimizationRuns(_ context.Context) ([]*models.OptimizationRun, error) {
	return p.optimizations.list()
}

func (p *Persistence) SaveOptimizationRun(_ context.Context, run *models.OptimizationRun) error {
	return p.optimizations.save(run.ID, run)
}
