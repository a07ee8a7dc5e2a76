package scheduler

import (
	"fmt"
	"time"
)

// minInterval keeps a misconfigured schedule from busy-looping the runner.
const minInterval = time.Second

// IntervalSchedule runs a job at a fixed interval. Used by the pending
// re-sweep, which acts as a safety net behind the event-driven path.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	if interval < minInterval {
		interval = minInterval
	}
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}
