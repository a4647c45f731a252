package domain

import (
	"strconv"
	"strings"
	"time"
)

// CutoffInstant computes the ordering deadline anchored on ref: the cutoff
// time of day on ref in the configured zone, shifted back by the offset.
// The zone falls back to the lunch schedule's zone, then UTC.
func CutoffInstant(cfg OrderScheduleConfig, lunchCfg LunchScheduleConfig, ref Date) (time.Time, error) {
	hour, minute, err := parseTimeOfDay(cfg.Cutoff.TimeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := cutoffLocation(cfg.Cutoff, lunchCfg)
	if err != nil {
		return time.Time{}, err
	}
	anchor := ref.At(hour, minute, loc)
	return anchor.Add(-time.Duration(cfg.Cutoff.OffsetHours) * time.Hour), nil
}

// IsBeforeCutoff reports whether now is strictly before the group's cutoff
// instant. Equality counts as closed: orders close exactly at cutoff. A
// malformed cutoff rule closes the group rather than leaving it open.
func IsBeforeCutoff(group ScheduleGroup, cfg OrderScheduleConfig, lunchCfg LunchScheduleConfig, now time.Time) bool {
	if len(group.Dates) == 0 {
		return false
	}
	cutoff, err := CutoffInstant(cfg, lunchCfg, group.First())
	if err != nil {
		return false
	}
	return now.Before(cutoff)
}

// CutoffBoundaryDate returns the earliest date whose cutoff has not yet
// passed at now. Order records dated entirely before the boundary are stale.
func CutoffBoundaryDate(cfg OrderScheduleConfig, lunchCfg LunchScheduleConfig, now time.Time) (Date, error) {
	hour, minute, err := parseTimeOfDay(cfg.Cutoff.TimeOfDay)
	if err != nil {
		return Date{}, err
	}
	loc, err := cutoffLocation(cfg.Cutoff, lunchCfg)
	if err != nil {
		return Date{}, err
	}

	// now < cutoff(d) iff now+offset falls before the anchor time of day
	// on d, so the boundary is the day of now+offset, bumped by one when
	// that day's anchor is already behind.
	shifted := now.Add(time.Duration(cfg.Cutoff.OffsetHours) * time.Hour).In(loc)
	boundary := DateOf(shifted)
	if !shifted.Before(boundary.At(hour, minute, loc)) {
		boundary = boundary.AddDays(1)
	}
	return boundary, nil
}

func parseTimeOfDay(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, ErrMalformedConfig
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrMalformedConfig
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrMalformedConfig
	}
	return hour, minute, nil
}

func cutoffLocation(rule CutoffRule, lunchCfg LunchScheduleConfig) (*time.Location, error) {
	name := strings.TrimSpace(rule.Timezone)
	if name == "" {
		name = strings.TrimSpace(lunchCfg.Timezone)
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrMalformedConfig
	}
	return loc, nil
}
