package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// maxLookback bounds the search for the previous trigger.
const maxLookback = 2 * 366 * 24 * time.Hour

type TriggerInfo struct {
	Expression string    `json:"expression"`
	Next       time.Time `json:"next"`
	// Last is zero when the expression did not fire within the lookback.
	Last time.Time `json:"last,omitempty"`

	TimeSinceLast time.Duration `json:"time_since_last,omitempty"`
	TimeUntilNext time.Duration `json:"time_until_next"`
}

// Validate checks a standard five-field cron expression or descriptor, the
// syntax accepted by cron.New().
func Validate(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// GetTriggerInfo reports the triggers of expr around refTime.
func GetTriggerInfo(expr string, refTime time.Time) (TriggerInfo, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return TriggerInfo{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	info := TriggerInfo{
		Expression: expr,
		Next:       schedule.Next(refTime),
		Last:       lastTrigger(schedule, refTime),
	}
	info.TimeUntilNext = info.Next.Sub(refTime)
	if !info.Last.IsZero() {
		info.TimeSinceLast = refTime.Sub(info.Last)
	}
	return info, nil
}

// lastTrigger widens a window behind refTime until it holds a trigger, then
// walks forward to the latest one not after refTime.
func lastTrigger(schedule cron.Schedule, refTime time.Time) time.Time {
	for window := time.Minute; window <= maxLookback; window *= 2 {
		t := refTime.Add(-window)
		first := schedule.Next(t)
		if first.IsZero() || first.After(refTime) {
			continue
		}
		last := first
		for {
			n := schedule.Next(last)
			if n.IsZero() || n.After(refTime) {
				return last
			}
			last = n
		}
	}
	return time.Time{}
}
