package domain

import "time"

// Partition slices an ordered date sequence into schedule groups. DAILY
// schedules yield one singleton group per date. CUSTOM schedules consume
// dates greedily: a group closes once it holds GroupSize dates, or when the
// next date crosses into a new week starting on WeekStart. Trailing partial
// groups are still emitted. The concatenation of all group dates equals the
// input exactly.
func Partition(dates []Date, scheduleType ScheduleType, grouping GroupingRule) []ScheduleGroup {
	if len(dates) == 0 {
		return nil
	}

	if scheduleType == ScheduleTypeDaily {
		groups := make([]ScheduleGroup, 0, len(dates))
		for i, d := range dates {
			groups = append(groups, ScheduleGroup{Ordinal: i, Dates: []Date{d}})
		}
		return groups
	}

	var groups []ScheduleGroup
	var current []Date
	flush := func() {
		if len(current) == 0 {
			return
		}
		groups = append(groups, ScheduleGroup{Ordinal: len(groups), Dates: current})
		current = nil
	}

	for _, d := range dates {
		if len(current) > 0 {
			if grouping.GroupSize > 0 && len(current) >= grouping.GroupSize {
				flush()
			} else if grouping.BreakOnWeekStart && crossesWeekStart(current[len(current)-1], d, grouping.WeekStart.Weekday()) {
				flush()
			}
		}
		current = append(current, d)
	}
	flush()
	return groups
}

// crossesWeekStart reports whether moving from prev to next passes the start
// of a new week.
func crossesWeekStart(prev, next Date, weekStart time.Weekday) bool {
	for d := prev.AddDays(1); !d.After(next); d = d.AddDays(1) {
		if d.Weekday() == weekStart {
			return true
		}
	}
	return false
}

// WeekAnchor returns the latest week start on or before d.
func WeekAnchor(d Date, weekStart WeekStart) Date {
	day := weekStart.Weekday()
	for d.Weekday() != day {
		d = d.AddDays(-1)
	}
	return d
}

// PartitionAnchor returns the canonical start of the partition window
// holding first: the recurrence start when one is set on or before first,
// otherwise the start of first's week. Group boundaries derived from this
// anchor are the same for every request window, so a run of dates maps to
// one group regardless of which dates a caller names.
func PartitionAnchor(cfg OrderScheduleConfig, first Date) Date {
	if cfg.Recurrence.Start != nil && !cfg.Recurrence.Start.After(first) {
		return *cfg.Recurrence.Start
	}
	return WeekAnchor(first, cfg.Grouping.WeekStart)
}
