package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cadence is the recurrence rule controlling how often a job triggers.
// It is a small closed sum (interval or daily-at-time), deliberately
// not a cron evaluator: jobs in this system recur on a handful of
// shorthand rhythms and nothing finer.
type Cadence interface {
	// Next computes the trigger time following now.
	Next(now time.Time) time.Time
	String() string
}

// Interval triggers every fixed duration.
type Interval struct {
	Every time.Duration
}

func (i Interval) Next(now time.Time) time.Time {
	return now.Add(i.Every)
}

func (i Interval) String() string {
	return "every " + i.Every.String()
}

// DailyAt triggers once a day at a fixed local time.
type DailyAt struct {
	Hour   int
	Minute int
}

func (d DailyAt) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (d DailyAt) String() string {
	return fmt.Sprintf("daily at %02d:%02d", d.Hour, d.Minute)
}

// DefaultCadence is the explicit fallback for unrecognized expressions.
var DefaultCadence Cadence = Interval{Every: time.Hour}

// shorthands is the fixed cadence vocabulary.
var shorthands = map[string]Cadence{
	"every-minute":     Interval{Every: time.Minute},
	"every-5-minutes":  Interval{Every: 5 * time.Minute},
	"every-15-minutes": Interval{Every: 15 * time.Minute},
	"every-30-minutes": Interval{Every: 30 * time.Minute},
	"hourly":           Interval{Every: time.Hour},
	"every-6-hours":    Interval{Every: 6 * time.Hour},
	"every-12-hours":   Interval{Every: 12 * time.Hour},
	"daily":            Interval{Every: 24 * time.Hour},
}

// ParseCadence resolves a cadence expression. Recognized forms are the
// fixed shorthand vocabulary plus "daily-at-HH:MM". Unrecognized
// expressions return (DefaultCadence, false) so the caller can log the
// fallback rather than fail the schedule.
func ParseCadence(expr string) (Cadence, bool) {
	expr = strings.ToLower(strings.TrimSpace(expr))

	if c, ok := shorthands[expr]; ok {
		return c, true
	}

	if rest, ok := strings.CutPrefix(expr, "daily-at-"); ok {
		if hh, mm, ok := strings.Cut(rest, ":"); ok {
			hour, err1 := strconv.Atoi(hh)
			minute, err2 := strconv.Atoi(mm)
			if err1 == nil && err2 == nil &&
				hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
				return DailyAt{Hour: hour, Minute: minute}, true
			}
		}
	}

	return DefaultCadence, false
}
