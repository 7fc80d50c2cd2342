package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_InvalidSpec(t *testing.T) {
	s := New()

	err := s.Register(context.Background(), "not a spec", "broken", func(context.Context) error {
		return nil
	})
	assert.Error(t, err)
}

func TestRegister_ValidSpecs(t *testing.T) {
	s := New()
	ctx := context.Background()
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register(ctx, PollTickSpec, "poll-tick", noop))
	require.NoError(t, s.Register(ctx, NightlyInsightsSpec, "nightly-insights", noop))
	require.NoError(t, s.Register(ctx, OptimizationSweepSpec, "optimization-sweep", noop))
}

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	s := New()

	var ticks atomic.Int32

	require.NoError(t, s.Register(context.Background(), "@every 10ms", "ticker", func(context.Context) error {
		ticks.Add(1)

		return nil
	}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return ticks.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_JobErrorDoesNotStopScheduling(t *testing.T) {
	s := New()

	var ticks atomic.Int32

	require.NoError(t, s.Register(context.Background(), "@every 10ms", "flaky", func(context.Context) error {
		ticks.Add(1)

		return errors.New("sweep failed")
	}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return ticks.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_StopWaitsForInflightJobs(t *testing.T) {
	s := New()

	done := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, s.Register(context.Background(), "@every 10ms", "slow", func(context.Context) error {
		select {
		case <-started:
		default:
			close(started)
			time.Sleep(50 * time.Millisecond)
			close(done)
		}

		return nil
	}))

	s.Start()
	<-started
	s.Stop()

	select {
	case <-done:
	default:
		t.Fatal("Stop returned before the in-flight job finished")
	}
}
