// Package persistence abstracts storage for workflows, executions, triggers,
// traces and the offline analysis artifacts. Any datastore can back it.
package persistence

import (
	"context"
	"errors"

	"github.com/aurelia-hq/strand/pkg/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
}

type ExecutionRepository interface {
	Executions(ctx context.Context) ([]*models.Execution, error)
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	SaveExecution(ctx context.Context, execution *models.Execution) error
}

type TriggerRepository interface {
	Triggers(ctx context.Context) ([]*models.Trigger, error)
	EnabledTriggersByType(ctx context.Context, triggerType models.TriggerType) ([]*models.Trigger, error)
	TriggerByID(ctx context.Context, id string) (*models.Trigger, error)
	SaveTrigger(ctx context.Context, trigger *models.Trigger) error
	DeleteTrigger(ctx context.Context, id string) error
}

type TraceRepository interface {
	Traces(ctx context.Context) ([]*models.Trace, error)
	TraceByID(ctx context.Context, id string) (*models.Trace, error)
	SaveTrace(ctx context.Context, trace *models.Trace) error
}

type InsightRepository interface {
	Insights(ctx context.Context) ([]*models.Insight, error)
	SaveInsight(ctx context.Context, insight *models.Insight) error
}

type ProposalRepository interface {
	Proposals(ctx context.Context) ([]*models.ModificationProposal, error)
	ProposalByID(ctx context.Context, id string) (*models.ModificationProposal, error)
	SaveProposal(ctx context.Context, proposal *models.ModificationProposal) error
}

type ConfirmationRepository interface {
	Confirmations(ctx context.Context) ([]*models.Confirmation, error)
	SaveConfirmation(ctx context.Context, confirmation *models.Confirmation) error
}

type FeedbackRepository interface {
	FeedbackByAgent(ctx context.Context, agentID string) ([]*models.Feedback, error)
	SaveFeedback(ctx context.Context, feedback *models.Feedback) error
}

type OptimizationRepository interface {
	OptimizationRuns(ctx context.Context) ([]*models.OptimizationRun, error)
	SaveOptimizationRun(ctx context.Context, run *models.OptimizationRun) error
}

// Persistence is the root storage handle handed to the daemons.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	TriggerRepository() TriggerRepository
	TraceRepository() TraceRepository
	InsightRepository() InsightRepository
	ProposalRepository() ProposalRepository
	ConfirmationRepository() ConfirmationRepository
	FeedbackRepository() FeedbackRepository
	OptimizationRepository() OptimizationRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
