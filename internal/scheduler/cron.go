package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type scheduleKind int

const (
	everyMinutes scheduleKind = iota
	everyHours
	daily
	weekly
)

// schedule is the subset of cron the jobs need:
// "*/n * * * *", "m */n * * *", "m h * * *" and "m h * * d".
type schedule struct {
	kind     scheduleKind
	interval int
	minute   int
	hour     int
	weekday  time.Weekday
}

// parseCron parses a five-field cron expression.
// Examples: "0 9 * * 1" = Monday 9 AM, "0 8 * * *" = Daily 8 AM, "*/5 * * * *" = Every 5 minutes
func parseCron(expr string) (schedule, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return schedule{}, fmt.Errorf("invalid cron expression: %s (expected 5 fields)", expr)
	}

	if n, ok := strings.CutPrefix(parts[0], "*/"); ok {
		interval, err := strconv.Atoi(n)
		if err != nil || interval < 1 || interval > 59 {
			return schedule{}, fmt.Errorf("invalid minute interval in cron: %s", parts[0])
		}
		return schedule{kind: everyMinutes, interval: interval}, nil
	}

	minute, err := strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return schedule{}, fmt.Errorf("invalid minute in cron: %s", parts[0])
	}

	if n, ok := strings.CutPrefix(parts[1], "*/"); ok {
		interval, err := strconv.Atoi(n)
		if err != nil || interval < 1 || interval > 23 {
			return schedule{}, fmt.Errorf("invalid hour interval in cron: %s", parts[1])
		}
		return schedule{kind: everyHours, interval: interval, minute: minute}, nil
	}

	hour, err := strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return schedule{}, fmt.Errorf("invalid hour in cron: %s", parts[1])
	}

	if parts[4] == "*" {
		return schedule{kind: daily, minute: minute, hour: hour}, nil
	}
	weekday, err := strconv.Atoi(parts[4])
	if err != nil || weekday < 0 || weekday > 6 {
		return schedule{}, fmt.Errorf("invalid weekday in cron: %s (0-6, 0=Sunday)", parts[4])
	}
	return schedule{kind: weekly, minute: minute, hour: hour, weekday: time.Weekday(weekday)}, nil
}

// next returns the first run strictly after from
func (s schedule) next(from time.Time) time.Time {
	switch s.kind {
	case everyMinutes:
		return from.Truncate(time.Minute).Add(time.Duration(s.interval) * time.Minute)

	case everyHours:
		next := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(), s.minute, 0, 0, from.Location())
		if !next.After(from) {
			next = next.Add(time.Hour)
		}
		for next.Hour()%s.interval != 0 {
			next = next.Add(time.Hour)
		}
		return next

	case daily:
		next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, from.Location())
		if !next.After(from) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}

	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, from.Location())
	daysUntil := int(s.weekday - from.Weekday())
	if daysUntil < 0 {
		daysUntil += 7
	}
	next = next.AddDate(0, 0, daysUntil)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
