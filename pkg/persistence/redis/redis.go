// Package redis provides Redis-backed persistence. Records are stored as
// JSON strings under strand:<collection>:<id> with a set per collection
// acting as the index.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/persistence"
)

const keyPrefix = "strand"

// Persistence implements persistence.Persistence on Redis.
type Persistence struct {
	client *redis.Client
}

func NewPersistence(redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Persistence{client: redis.NewClient(opts)}, nil
}

// NewPersistenceWithClient is used by tests running against miniredis.
func NewPersistenceWithClient(client *redis.Client) *Persistence {
	return &Persistence{client: client}
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func recordKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, collection, id)
}

func indexKey(collection string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, collection)
}

func save[T any](ctx context.Context, client *redis.Client, collection, id string, record *T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	pipe := client.TxPipeline()
	pipe.Set(ctx, recordKey(collection, id), data, 0)
	pipe.SAdd(ctx, indexKey(collection), id)

	_, err = pipe.Exec(ctx)

	return err
}

func get[T any](ctx context.Context, client *redis.Client, collection, id string) (*T, error) {
	data, err := client.Get(ctx, recordKey(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrNotFound
		}

		return nil, err
	}

	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode %s record %s: %w", collection, id, err)
	}

	return &record, nil
}

func list[T any](ctx context.Context, client *redis.Client, collection string) ([]*T, error) {
	ids, err := client.SMembers(ctx, indexKey(collection)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*T, 0, len(ids))

	for _, id := range ids {
		record, err := get[T](ctx, client, collection, id)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				continue // index entry outlived the record
			}

			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

func remove(ctx context.Context, client *redis.Client, collection, id string) error {
	pipe := client.TxPipeline()
	del := pipe.Del(ctx, recordKey(collection, id))
	pipe.SRem(ctx, indexKey(collection), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	if del.Val() == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

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

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return list[models.Workflow](ctx, p.client, "workflows")
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return get[models.Workflow](ctx, p.client, "workflows", id)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return save(ctx, p.client, "workflows", workflow.ID, workflow)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return remove(ctx, p.client, "workflows", id)
}

// Executions

func (p *Persistence) Executions(ctx context.Context) ([]*models.Execution, error) {
	return list[models.Execution](ctx, p.client, "executions")
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	return get[models.Execution](ctx, p.client, "executions", id)
}

func (p *Persistence) SaveExecution(ctx context.Context, execution *models.Execution) error {
	return save(ctx, p.client, "executions", execution.ID, execution)
}

// Triggers

func (p *Persistence) Triggers(ctx context.Context) ([]*models.Trigger, error) {
	return list[models.Trigger](ctx, p.client, "triggers")
}

func (p *Persistence) EnabledTriggersByType(ctx context.Context, triggerType models.TriggerType) ([]*models.Trigger, error) {
	all, err := p.Triggers(ctx)
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

func (p *Persistence) TriggerByID(ctx context.Context, id string) (*models.Trigger, error) {
	return get[models.Trigger](ctx, p.client, "triggers", id)
}

func (p *Persistence) SaveTrigger(ctx context.Context, trigger *models.Trigger) error {
	return save(ctx, p.client, "triggers", trigger.ID, trigger)
}

func (p *Persistence) DeleteTrigger(ctx context.Context, id string) error {
	return remove(ctx, p.client, "triggers", id)
}

// Traces

func (p *Persistence) Traces(ctx context.Context) ([]*models.Trace, error) {
	return list[models.Trace](ctx, p.client, "traces")
}

func (p *Persistence) TraceByID(ctx context.Context, id string) (*models.Trace, error) {
	return get[models.Trace](ctx, p.client, "traces", id)
}

func (p *Persistence) SaveTrace(ctx context.Context, trace *models.Trace) error {
	return save(ctx, p.client, "traces", trace.ID, trace)
}

// Insights

func (p *Persistence) Insights(ctx context.Context) ([]*models.Insight, error) {
	return list[models.Insight](ctx, p.client, "insights")
}

func (p *Persistence) SaveInsight(ctx context.Context, insight *models.Insight) error {
	return save(ctx, p.client, "insights", insight.ID, insight)
}

// Proposals

func (p *Persistence) Proposals(ctx context.Context) ([]*models.ModificationProposal, error) {
	return list[models.ModificationProposal](ctx, p.client, "proposals")
}

func (p *Persistence) ProposalByID(ctx context.Context, id string) (*models.ModificationProposal, error) {
	return get[models.ModificationProposal](ctx, p.client, "proposals", id)
}

func (p *Persistence) SaveProposal(ctx context.Context, proposal *models.ModificationProposal) error {
	return save(ctx, p.client, "proposals", proposal.ID, proposal)
}

// Confirmations

func (p *Persistence) Confirmations(ctx context.Context) ([]*models.Confirmation, error) {
	return list[models.Confirmation](ctx, p.client, "confirmations")
}

func (p *Persistence) SaveConfirmation(ctx context.Context, confirmation *models.Confirmation) error {
	return save(ctx, p.client, "confirmations", confirmation.ID, confirmation)
}

// Feedback

func (p *Persistence) FeedbackByAgent(ctx context.Context, agentID string) ([]*models.Feedback, error) {
	all, err := list[models.Feedback](ctx, p.client, "feedback")
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

func (p *Persistence) SaveFeedback(ctx context.Context, feedback *models.Feedback) error {
	return save(ctx, p.client, "feedback", feedback.ID, feedback)
}

// Optimization runs

func (p *Persistence) OptimizationRuns(ctx context.Context) ([]*models.OptimizationRun, error) {
	return list[models.OptimizationRun](ctx, p.client, "optimizations")
}

func (p *Persistence) SaveOptimizationRun(ctx context.Context, run *models.OptimizationRun) error {
	return save(ctx, p.client, "optimizations", run.ID, run)
}
