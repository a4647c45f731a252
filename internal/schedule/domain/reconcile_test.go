package domain

import (
	"reflect"
	"testing"
	"time"
)

func dailyConfig() OrderScheduleConfig {
	cfg := weekdayConfig(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	cfg.Cutoff = CutoffRule{TimeOfDay: "09:00"}
	return cfg
}

func customConfig(groupSize int) OrderScheduleConfig {
	cfg := dailyConfig()
	cfg.ScheduleType = ScheduleTypeCustom
	cfg.Grouping = GroupingRule{GroupSize: groupSize}
	return cfg
}

func resolveGroups(t *testing.T, cfg OrderScheduleConfig, from, to Date) []ScheduleGroup {
	t.Helper()
	dates, err := ResolveOpenDates(cfg, from, to)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return Partition(dates, cfg.ScheduleType, cfg.Grouping)
}

func TestReconcileDailyAllOpenUnclaimed(t *testing.T) {
	cfg := dailyConfig()
	groups := resolveGroups(t, cfg, NewDate(2026, time.September, 7), NewDate(2026, time.September, 9))
	if len(groups) != 3 {
		t.Fatalf("expected 3 singleton groups, got %d", len(groups))
	}

	now := time.Date(2026, time.September, 6, 12, 0, 0, 0, time.UTC)
	out := Reconcile(nil, groups, cfg, LunchScheduleConfig{}, now)
	if len(out) != 3 {
		t.Fatalf("expected 3 reconciled groups, got %d", len(out))
	}
	for i, g := range out {
		if g.Claimed() {
			t.Fatalf("group %d should be unclaimed", i)
		}
		if !g.Editable {
			t.Fatalf("group %d should be editable", i)
		}
		if g.AvailabilityIndex != i {
			t.Fatalf("group %d: expected index %d, got %d", i, i, g.AvailabilityIndex)
		}
	}
}

func TestReconcileCustomClaimedGroup(t *testing.T) {
	cfg := customConfig(5)
	groups := resolveGroups(t, cfg, NewDate(2026, time.September, 7), NewDate(2026, time.September, 18))
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups of 5, got %d", len(groups))
	}

	// An order covering only part of the first group still claims it whole.
	record := OrderRecord{ID: "order-1", Dates: groups[0].Dates[:3]}
	now := time.Date(2026, time.September, 4, 8, 0, 0, 0, time.UTC)

	out := Reconcile([]OrderRecord{record}, groups, cfg, LunchScheduleConfig{}, now)
	if !out[0].Claimed() || len(out[0].OrderIDs) != 1 || out[0].OrderIDs[0] != "order-1" {
		t.Fatalf("first group should be claimed by order-1: %+v", out[0])
	}
	if out[0].AvailabilityIndex >= 0 {
		t.Fatalf("claimed group must not hold a fresh availability index, got %d", out[0].AvailabilityIndex)
	}
	if out[1].Claimed() {
		t.Fatalf("second group should be unclaimed")
	}
	if out[1].AvailabilityIndex != 0 {
		t.Fatalf("second group should receive index 0, got %d", out[1].AvailabilityIndex)
	}
}

func TestReconcileCutoffPassedGroup(t *testing.T) {
	cfg := customConfig(5)
	groups := resolveGroups(t, cfg, NewDate(2026, time.September, 7), NewDate(2026, time.September, 18))

	// Past the first group's cutoff, before the second's.
	now := time.Date(2026, time.September, 9, 12, 0, 0, 0, time.UTC)
	out := Reconcile(nil, groups, cfg, LunchScheduleConfig{}, now)

	if out[0].Editable {
		t.Fatalf("first group should be past cutoff")
	}
	if out[0].AvailabilityIndex != -1 {
		t.Fatalf("closed unclaimed group should carry index -1, got %d", out[0].AvailabilityIndex)
	}
	if !out[1].Editable || out[1].AvailabilityIndex != 0 {
		t.Fatalf("second group should be the first open slot: %+v", out[1])
	}
}

func TestReconcileDropsStaleRecords(t *testing.T) {
	cfg := dailyConfig()
	groups := resolveGroups(t, cfg, NewDate(2026, time.September, 7), NewDate(2026, time.September, 11))

	stale := OrderRecord{ID: "old", Dates: []Date{NewDate(2026, time.September, 7)}}
	current := OrderRecord{ID: "current", Dates: []Date{NewDate(2026, time.September, 10)}}

	// The 7th and 8th are already past cutoff; the boundary sits on the 9th.
	now := time.Date(2026, time.September, 8, 10, 0, 0, 0, time.UTC)
	out := Reconcile([]OrderRecord{stale, current}, groups, cfg, LunchScheduleConfig{}, now)

	for _, g := range out {
		for _, id := range g.OrderIDs {
			if id == "old" {
				t.Fatalf("stale record leaked into group %d", g.Group.Ordinal)
			}
		}
	}
	if len(out[3].OrderIDs) != 1 || out[3].OrderIDs[0] != "current" {
		t.Fatalf("current record should claim the 10th: %+v", out[3])
	}
}

func TestReconcileIgnoresOrphanRecords(t *testing.T) {
	cfg := dailyConfig()
	groups := resolveGroups(t, cfg, NewDate(2026, time.September, 7), NewDate(2026, time.September, 9))

	orphan := OrderRecord{ID: "outside", Dates: []Date{NewDate(2026, time.October, 5)}}
	now := time.Date(2026, time.September, 6, 12, 0, 0, 0, time.UTC)

	out := Reconcile([]OrderRecord{orphan}, groups, cfg, LunchScheduleConfig{}, now)
	for _, g := range out {
		if g.Claimed() {
			t.Fatalf("orphan record must not claim any group: %+v", g)
		}
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	cfg := dailyConfig()
	now := time.Date(2026, time.September, 6, 12, 0, 0, 0, time.UTC)

	if out := Reconcile(nil, nil, cfg, LunchScheduleConfig{}, now); len(out) != 0 {
		t.Fatalf("empty groups should yield empty output, got %v", out)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	cfg := customConfig(3)
	groups := resolveGroups(t, cfg, NewDate(2026, time.September, 7), NewDate(2026, time.September, 18))
	records := []OrderRecord{
		{ID: "a", Dates: groups[1].Dates},
		{ID: "b", Dates: groups[2].Dates[:1]},
	}
	now := time.Date(2026, time.September, 8, 8, 0, 0, 0, time.UTC)

	first := Reconcile(records, groups, cfg, LunchScheduleConfig{}, now)
	second := Reconcile(records, groups, cfg, LunchScheduleConfig{}, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconcile is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestReconcileRecordsNeverDuplicatedAcrossGroups(t *testing.T) {
	cfg := customConfig(4)
	groups := resolveGroups(t, cfg, NewDate(2026, time.September, 7), NewDate(2026, time.September, 25))
	records := []OrderRecord{
		{ID: "a", Dates: groups[0].Dates},
		{ID: "b", Dates: groups[1].Dates[1:]},
	}
	now := time.Date(2026, time.September, 4, 8, 0, 0, 0, time.UTC)

	out := Reconcile(records, groups, cfg, LunchScheduleConfig{}, now)
	seen := map[string]int{}
	for _, g := range out {
		for _, id := range g.OrderIDs {
			seen[id]++
		}
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("record %s assigned %d times", id, count)
		}
	}
	if len(seen) != len(records) {
		t.Fatalf("expected every surviving record assigned once, got %v", seen)
	}
}
