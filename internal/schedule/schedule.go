// Package schedule turns a poll_interval setting into the next wake-up time.
//
// Supported forms:
//   - Go duration: "120s", "2m30s" (constant delay after each pass)
//   - Cron (robfig/cron): "*/2 8-20 * * 1-5", "@hourly", "@every 2m"
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule reports the next time a polling pass should start.
type Schedule interface {
	Next(time.Time) time.Time
}

// ErrNeverFires is returned for schedules with no future activation, such as
// "0 0 30 2 *".
var ErrNeverFires = errors.New("schedule never fires")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Interval is a fixed delay between passes.
type Interval time.Duration

func (i Interval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(i))
}

func (i Interval) String() string {
	return time.Duration(i).String()
}

// Parse accepts either a positive Go duration or a cron expression.
func Parse(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("schedule required")
	}

	// any whitespace or leading '@' => cron
	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		sched, err := parser.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse cron %q: %w", s, err)
		}
		if sched.Next(time.Now()).IsZero() {
			return nil, fmt.Errorf("cron %q: %w", s, ErrNeverFires)
		}
		return sched, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q (use a duration like '120s' or cron like '*/2 * * * *')", raw)
	}
	if d <= 0 {
		return nil, fmt.Errorf("interval must be > 0, got %s", s)
	}
	return Interval(d), nil
}

// Delay is how long to wait at now before the next pass; never negative. A
// schedule without a next activation returns ErrNeverFires rather than a zero
// delay.
func Delay(s Schedule, now time.Time) (time.Duration, error) {
	next := s.Next(now)
	if next.IsZero() {
		return 0, ErrNeverFires
	}
	if !next.After(now) {
		return 0, nil
	}
	return next.Sub(now), nil
}
