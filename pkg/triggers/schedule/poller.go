package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/aurelia-hq/strand/pkg/eventbus"
	"github.com/aurelia-hq/strand/pkg/events"
	"github.com/aurelia-hq/strand/pkg/log"
	"github.com/aurelia-hq/strand/pkg/metrics"
	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/persistence"
)

// Poller is the single logical schedule evaluator. It runs at concurrency=1;
// running more than one poller instance reintroduces duplicate-fire races
// the lastRunAt guard cannot fully cover.
type Poller struct {
	triggers     persistence.TriggerRepository
	publisher    eventbus.EventPublisher
	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

func NewPoller(triggers persistence.TriggerRepository, publisher eventbus.EventPublisher) *Poller {
	return &Poller{
		triggers:     triggers,
		publisher:    publisher,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		logger:       log.WithModule("schedule-poller"),
	}
}

// Start polls until the context is cancelled. The first poll happens after
// one interval, not immediately, so restarts do not re-evaluate a window the
// previous process already covered.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.logger.Info("Schedule poller started", "interval", p.pollInterval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Schedule poller stopped")

			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce evaluates every enabled schedule trigger against the current
// window. Per-trigger failures (bad cron, publish error) are logged and
// skipped; they never block the remaining triggers.
func (p *Poller) PollOnce(ctx context.Context) {
	now := p.now().UTC()

	triggers, err := p.triggers.EnabledTriggersByType(ctx, models.TriggerTypeSchedule)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to list schedule triggers", "error", err)

		return
	}

	fired := 0

	for _, trigger := range triggers {
		ok, err := p.evaluate(ctx, trigger, now)
		if err != nil {
			p.logger.WarnContext(ctx, "Skipping trigger",
				"trigger_id", trigger.ID, "error", err)

			continue
		}

		if ok {
			fired++
		}
	}

	p.logger.DebugContext(ctx, "Poll complete",
		"triggers", len(triggers), "fired", fired, "at", now)
}

func (p *Poller) evaluate(ctx context.Context, trigger *models.Trigger, now time.Time) (bool, error) {
	matched, prev, err := Match(trigger.CronExpression, trigger.LastRunAt, now, p.pollInterval)
	if err != nil {
		return false, err
	}

	if !matched {
		return false, nil
	}

	if err := p.enqueue(ctx, trigger, prev); err != nil {
		// Leave lastRunAt untouched so the next poll retries this instant.
		return false, err
	}

	trigger.LastRunAt = &prev

	next, err := ComputeNextRunAt(trigger.CronExpression, now)
	if err == nil {
		trigger.NextRunAt = next
	}

	trigger.UpdatedAt = now

	if err := p.triggers.SaveTrigger(ctx, trigger); err != nil {
		// The run is already enqueued; a failed save means the next poll may
		// fire the same instant again. Workers correlate on job id, so the
		// duplicate is observable and survivable.
		p.logger.ErrorContext(ctx, "Failed to persist trigger fire",
			"trigger_id", trigger.ID, "error", err)
	}

	return true, nil
}

func (p *Poller) enqueue(ctx context.Context, trigger *models.Trigger, firedAt time.Time) error {
	request := events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, trigger.WorkflowID),
		TriggeredBy: "schedule:" + trigger.ID,
		InitialData: map[string]any{
			"trigger_id": trigger.ID,
			"fired_at":   firedAt.Format(time.RFC3339),
		},
	}

	if err := p.publisher.Publish(ctx, events.ExecutionTopic, trigger.WorkflowID, request); err != nil {
		return err
	}

	metrics.TriggersFired.Inc()

	notice := events.TriggerFired{
		BaseEvent: events.NewBaseEvent(events.TriggerFiredEvent, trigger.WorkflowID),
		TriggerID: trigger.ID,
		AgentID:   trigger.AgentID,
		FiredAt:   firedAt,
	}

	if err := p.publisher.Publish(ctx, events.LifecycleTopic, trigger.AgentID, notice); err != nil {
		// The run request is already out; the missing notification only
		// affects observers.
		p.logger.WarnContext(ctx, "Failed to publish trigger notification",
			"trigger_id", trigger.ID, "error", err)
	}

	p.logger.InfoContext(ctx, "Trigger fired",
		"trigger_id", trigger.ID, "workflow_id", trigger.WorkflowID, "instant", firedAt)

	return nil
}
