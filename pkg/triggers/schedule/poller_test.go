package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-hq/strand/pkg/eventbus"
	"github.com/aurelia-hq/strand/pkg/events"
	"github.com/aurelia-hq/strand/pkg/models"
)

type fakeTriggerRepo struct {
	triggers []*models.Trigger
	saved    []*models.Trigger
	listErr  error
}

func (f *fakeTriggerRepo) Triggers(_ context.Context) ([]*models.Trigger, error) {
	return f.triggers, nil
}

func (f *fakeTriggerRepo) EnabledTriggersByType(_ context.Context, triggerType models.TriggerType) ([]*models.Trigger, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	matched := make([]*models.Trigger, 0)

	for _, t := range f.triggers {
		if t.Enabled && t.Type == triggerType {
			matched = append(matched, t)
		}
	}

	return matched, nil
}

func (f *fakeTriggerRepo) TriggerByID(_ context.Context, id string) (*models.Trigger, error) {
	for _, t := range f.triggers {
		if t.ID == id {
			return t, nil
		}
	}

	return nil, errors.New("not found")
}

func (f *fakeTriggerRepo) SaveTrigger(_ context.Context, trigger *models.Trigger) error {
	f.saved = append(f.saved, trigger)

	return nil
}

func (f *fakeTriggerRepo) DeleteTrigger(_ context.Context, _ string) error { return nil }

type capturingPublisher struct {
	published []eventbus.Event
	err       error
}

func (c *capturingPublisher) Publish(_ context.Context, _, _ string, event eventbus.Event) error {
	if c.err != nil {
		return c.err
	}

	c.published = append(c.published, event)

	return nil
}

func newTestPoller(repo *fakeTriggerRepo, pub *capturingPublisher, now time.Time) *Poller {
	p := NewPoller(repo, pub)
	p.now = func() time.Time { return now }

	return p
}

func scheduleTrigger(id, expr string) *models.Trigger {
	return &models.Trigger{
		ID:             id,
		AgentID:        "agent-1",
		WorkflowID:     "wf-1",
		Type:           models.TriggerTypeSchedule,
		CronExpression: expr,
		Enabled:        true,
	}
}

func TestPollOnce_FiresAndPersists(t *testing.T) {
	now := mondayAt(9, 0, 15)
	repo := &fakeTriggerRepo{triggers: []*models.Trigger{scheduleTrigger("t1", "0 9 * * 1-5")}}
	pub := &capturingPublisher{}

	newTestPoller(repo, pub, now).PollOnce(context.Background())

	// One run request plus one lifecycle notification.
	require.Len(t, pub.published, 2)

	request, ok := pub.published[0].(events.ExecutionRequested)
	require.True(t, ok)
	assert.Equal(t, "schedule:t1", request.TriggeredBy)
	assert.Equal(t, "wf-1", request.WorkflowID)

	notice, ok := pub.published[1].(events.TriggerFired)
	require.True(t, ok)
	assert.Equal(t, "t1", notice.TriggerID)
	assert.Equal(t, mondayAt(9, 0, 0), notice.FiredAt)

	// lastRunAt is the cron instant, nextRunAt the following one.
	require.Len(t, repo.saved, 1)
	require.NotNil(t, repo.saved[0].LastRunAt)
	assert.Equal(t, mondayAt(9, 0, 0), *repo.saved[0].LastRunAt)
	require.NotNil(t, repo.saved[0].NextRunAt)
	assert.Equal(t, mondayAt(9, 0, 0).AddDate(0, 0, 1), *repo.saved[0].NextRunAt)
}

func TestPollOnce_SecondPollDoesNotRefire(t *testing.T) {
	repo := &fakeTriggerRepo{triggers: []*models.Trigger{scheduleTrigger("t1", "0 9 * * 1-5")}}
	pub := &capturingPublisher{}

	newTestPoller(repo, pub, mondayAt(9, 0, 15)).PollOnce(context.Background())
	require.Len(t, pub.published, 2)

	// The first poll updated LastRunAt in place; 30 seconds later nothing new.
	newTestPoller(repo, pub, mondayAt(9, 0, 45)).PollOnce(context.Background())
	assert.Len(t, pub.published, 2)
}

func TestPollOnce_BadCronSkippedOthersStillFire(t *testing.T) {
	repo := &fakeTriggerRepo{triggers: []*models.Trigger{
		scheduleTrigger("bad", "this is not cron"),
		scheduleTrigger("good", "0 9 * * 1-5"),
	}}
	pub := &capturingPublisher{}

	newTestPoller(repo, pub, mondayAt(9, 0, 15)).PollOnce(context.Background())

	require.Len(t, pub.published, 2)
	request := pub.published[0].(events.ExecutionRequested)
	assert.Equal(t, "schedule:good", request.TriggeredBy)
}

func TestPollOnce_PublishFailureLeavesLastRunUntouched(t *testing.T) {
	trigger := scheduleTrigger("t1", "0 9 * * 1-5")
	repo := &fakeTriggerRepo{triggers: []*models.Trigger{trigger}}
	pub := &capturingPublisher{err: errors.New("broker down")}

	newTestPoller(repo, pub, mondayAt(9, 0, 15)).PollOnce(context.Background())

	assert.Nil(t, trigger.LastRunAt, "failed enqueue must be retried next poll")
	assert.Empty(t, repo.saved)
}

func TestPollOnce_ListErrorDoesNotPanic(t *testing.T) {
	repo := &fakeTriggerRepo{listErr: errors.New("store down")}
	pub := &capturingPublisher{}

	newTestPoller(repo, pub, mondayAt(9, 0, 15)).PollOnce(context.Background())

	assert.Empty(t, pub.published)
}
