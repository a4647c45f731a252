package domain

import (
	"errors"
	"testing"
	"time"
)

func cutoffConfig(timeOfDay string, offsetHours int, zone string) OrderScheduleConfig {
	cfg := weekdayConfig(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	cfg.Cutoff = CutoffRule{TimeOfDay: timeOfDay, OffsetHours: offsetHours, Timezone: zone}
	return cfg
}

func TestCutoffInstantAppliesOffset(t *testing.T) {
	cfg := cutoffConfig("09:30", 24, "")
	ref := NewDate(2026, time.September, 8)

	cutoff, err := CutoffInstant(cfg, LunchScheduleConfig{}, ref)
	if err != nil {
		t.Fatalf("cutoff instant: %v", err)
	}
	want := time.Date(2026, time.September, 7, 9, 30, 0, 0, time.UTC)
	if !cutoff.Equal(want) {
		t.Fatalf("expected %s, got %s", want, cutoff)
	}
}

func TestCutoffInstantZoneFallsBackToLunchSchedule(t *testing.T) {
	cfg := cutoffConfig("10:00", 0, "")
	lunch := LunchScheduleConfig{Timezone: "Europe/Berlin"}

	cutoff, err := CutoffInstant(cfg, lunch, NewDate(2026, time.September, 8))
	if err != nil {
		t.Fatalf("cutoff instant: %v", err)
	}
	loc, _ := time.LoadLocation("Europe/Berlin")
	want := time.Date(2026, time.September, 8, 10, 0, 0, 0, loc)
	if !cutoff.Equal(want) {
		t.Fatalf("expected %s, got %s", want, cutoff)
	}
}

func TestCutoffInstantMalformedTimeOfDay(t *testing.T) {
	for _, raw := range []string{"", "25:00", "09:61", "morning", "9"} {
		cfg := cutoffConfig(raw, 0, "")
		if _, err := CutoffInstant(cfg, LunchScheduleConfig{}, NewDate(2026, time.September, 8)); !errors.Is(err, ErrMalformedConfig) {
			t.Fatalf("time of day %q: expected malformed config, got %v", raw, err)
		}
	}
}

func TestIsBeforeCutoffBoundaryIsClosed(t *testing.T) {
	cfg := cutoffConfig("09:00", 0, "")
	group := ScheduleGroup{Dates: []Date{NewDate(2026, time.September, 8)}}
	cutoff := time.Date(2026, time.September, 8, 9, 0, 0, 0, time.UTC)

	if !IsBeforeCutoff(group, cfg, LunchScheduleConfig{}, cutoff.Add(-time.Minute)) {
		t.Fatalf("one minute before cutoff should be open")
	}
	if IsBeforeCutoff(group, cfg, LunchScheduleConfig{}, cutoff) {
		t.Fatalf("exactly at cutoff should be closed")
	}
	if IsBeforeCutoff(group, cfg, LunchScheduleConfig{}, cutoff.Add(time.Minute)) {
		t.Fatalf("after cutoff should be closed")
	}
}

func TestIsBeforeCutoffMonotonicInNow(t *testing.T) {
	cfg := cutoffConfig("11:45", 12, "")
	group := ScheduleGroup{Dates: []Date{NewDate(2026, time.September, 10), NewDate(2026, time.September, 11)}}

	start := time.Date(2026, time.September, 8, 0, 0, 0, 0, time.UTC)
	open := true
	for i := 0; i < 96; i++ {
		now := start.Add(time.Duration(i) * time.Hour)
		current := IsBeforeCutoff(group, cfg, LunchScheduleConfig{}, now)
		if current && !open {
			t.Fatalf("cutoff reopened at %s", now)
		}
		open = current
	}
	if open {
		t.Fatalf("cutoff never closed over the scanned window")
	}
}

func TestCutoffBoundaryDateTracksNow(t *testing.T) {
	cfg := cutoffConfig("09:00", 0, "")

	before := time.Date(2026, time.September, 8, 8, 59, 0, 0, time.UTC)
	boundary, err := CutoffBoundaryDate(cfg, LunchScheduleConfig{}, before)
	if err != nil {
		t.Fatalf("boundary: %v", err)
	}
	if boundary != NewDate(2026, time.September, 8) {
		t.Fatalf("expected boundary on the same day, got %s", boundary)
	}

	after := time.Date(2026, time.September, 8, 9, 0, 0, 0, time.UTC)
	boundary, err = CutoffBoundaryDate(cfg, LunchScheduleConfig{}, after)
	if err != nil {
		t.Fatalf("boundary: %v", err)
	}
	if boundary != NewDate(2026, time.September, 9) {
		t.Fatalf("expected boundary to advance a day, got %s", boundary)
	}
}

func TestCutoffBoundaryDateWithOffset(t *testing.T) {
	// A 48 hour lead time moves the boundary two days ahead of now.
	cfg := cutoffConfig("12:00", 48, "")

	now := time.Date(2026, time.September, 8, 11, 0, 0, 0, time.UTC)
	boundary, err := CutoffBoundaryDate(cfg, LunchScheduleConfig{}, now)
	if err != nil {
		t.Fatalf("boundary: %v", err)
	}
	if boundary != NewDate(2026, time.September, 10) {
		t.Fatalf("expected 2026-09-10, got %s", boundary)
	}
}
