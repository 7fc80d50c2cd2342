// Package schedule decides when cron-based triggers fire. A single polling
// worker evaluates every enabled schedule trigger once per interval; the
// window check plus the lastRunAt guard together prevent missed fires and
// duplicate fires under overlapping polls.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPollInterval is how often the poller wakes up.
const DefaultPollInterval = 60 * time.Second

// PreviousInstant returns the most recent instant at or before now on the
// cron schedule, or the zero time when the schedule has not matched yet
// inside the lookback horizon.
func PreviousInstant(cronExpr string, now time.Time, lookback time.Duration) (time.Time, error) {
	sched, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	// The parser only exposes Next, so walk forward from the window start
	// keeping the last instant that is not after now.
	cursor := now.Add(-lookback - time.Second)

	var prev time.Time

	for {
		next := sched.Next(cursor)
		if next.IsZero() || next.After(now) {
			return prev, nil
		}

		prev = next
		cursor = next
	}
}

// Match reports whether a trigger fires in this poll window, along with the
// scheduled instant that matched. prev is the most recent scheduled instant
// <= now; the trigger fires iff prev falls within [now - pollInterval, now]
// AND lastRunAt is nil or strictly before prev. The window check catches
// fires between polls; the lastRunAt guard prevents a second fire when the
// same instant is polled twice (clock skew, worker restarts).
func Match(cronExpr string, lastRunAt *time.Time, now time.Time, pollInterval time.Duration) (bool, time.Time, error) {
	prev, err := PreviousInstant(cronExpr, now, pollInterval)
	if err != nil {
		return false, time.Time{}, err
	}

	if prev.IsZero() || prev.Before(now.Add(-pollInterval)) {
		return false, prev, nil
	}

	if lastRunAt != nil && !lastRunAt.Before(prev) {
		return false, prev, nil
	}

	return true, prev, nil
}

// ShouldRunNow is Match without the matched instant.
func ShouldRunNow(cronExpr string, lastRunAt *time.Time, now time.Time, pollInterval time.Duration) (bool, error) {
	fired, _, err := Match(cronExpr, lastRunAt, now, pollInterval)

	return fired, err
}

// ComputeNextRunAt returns the next scheduled instant strictly after now, or
// nil when the expression never matches again.
func ComputeNextRunAt(cronExpr string, now time.Time) (*time.Time, error) {
	sched, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	next := sched.Next(now)
	if next.IsZero() {
		return nil, nil
	}

	return &next, nil
}
