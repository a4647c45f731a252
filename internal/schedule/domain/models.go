package domain

import (
	"time"
)

// ScheduleType selects how open ordering days are grouped into cycles.
type ScheduleType string

const (
	// ScheduleTypeDaily produces one orderable cycle per calendar day.
	ScheduleTypeDaily ScheduleType = "DAILY"
	// ScheduleTypeCustom batches open days into multi-day cycles.
	ScheduleTypeCustom ScheduleType = "CUSTOM"
)

// Weekdays is a set of eligible days of week.
type Weekdays []time.Weekday

// Contains reports whether the set includes the given weekday.
func (w Weekdays) Contains(day time.Weekday) bool {
	for _, candidate := range w {
		if candidate == day {
			return true
		}
	}
	return false
}

// RecurrenceRule describes which calendar days an ordering schedule covers.
type RecurrenceRule struct {
	Weekdays Weekdays `json:"weekdays"`
	Blackout []Date   `json:"blackout,omitempty"`
	Start    *Date    `json:"start,omitempty"`
	End      *Date    `json:"end,omitempty"`
}

// CutoffRule anchors the ordering deadline of a cycle. The deadline is the
// anchor time of day on the cycle's first date, shifted back by OffsetHours.
type CutoffRule struct {
	TimeOfDay   string `json:"time_of_day"`
	OffsetHours int    `json:"offset_hours,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// WeekStart numbers the first day of a grouping week per ISO 8601, 1 for
// Monday through 7 for Sunday. The zero value means Monday so stored
// configs may omit the field while an explicit Sunday stays expressible.
type WeekStart int

const (
	WeekStartMonday    WeekStart = 1
	WeekStartTuesday   WeekStart = 2
	WeekStartWednesday WeekStart = 3
	WeekStartThursday  WeekStart = 4
	WeekStartFriday    WeekStart = 5
	WeekStartSaturday  WeekStart = 6
	WeekStartSunday    WeekStart = 7
)

// Weekday converts the week start to a time.Weekday, defaulting to Monday.
func (w WeekStart) Weekday() time.Weekday {
	switch {
	case w == WeekStartSunday:
		return time.Sunday
	case w < WeekStartMonday || w > WeekStartSaturday:
		return time.Monday
	default:
		return time.Weekday(w)
	}
}

// Valid reports whether w is unset or a defined weekday number.
func (w WeekStart) Valid() bool {
	return w >= 0 && w <= 7
}

// GroupingRule controls how open days are sliced into CUSTOM cycles.
// A group closes once it reaches GroupSize dates, or when the next date
// would cross into a new week starting on WeekStart.
type GroupingRule struct {
	GroupSize        int       `json:"group_size,omitempty"`
	BreakOnWeekStart bool      `json:"break_on_week_start,omitempty"`
	WeekStart        WeekStart `json:"week_start,omitempty"`
}

// OrderScheduleConfig is the organization's immutable ordering calendar:
// which days are open for ordering, how they batch into cycles, and when
// each cycle's cutoff falls.
type OrderScheduleConfig struct {
	ScheduleType ScheduleType   `json:"schedule_type"`
	Recurrence   RecurrenceRule `json:"recurrence"`
	Cutoff       CutoffRule     `json:"cutoff"`
	Grouping     GroupingRule   `json:"grouping,omitempty"`
}

// LunchScheduleConfig describes which days lunch is served at all. A
// dependent config varies by a member attribute and holds one branch per
// attribute value; each member resolves to exactly one branch.
type LunchScheduleConfig struct {
	Timezone     string                         `json:"timezone,omitempty"`
	Weekdays     Weekdays                       `json:"weekdays,omitempty"`
	Dependent    bool                           `json:"dependent,omitempty"`
	AttributeKey string                         `json:"attribute_key,omitempty"`
	Branches     map[string]LunchScheduleConfig `json:"branches,omitempty"`
}

// ScheduleGroup is one orderable cycle: a non-empty run of strictly
// increasing open dates. Identity is the ordinal among all groups in the
// resolved window plus the first date.
type ScheduleGroup struct {
	Ordinal int    `json:"ordinal"`
	Dates   []Date `json:"dates"`
}

// First returns the group's first date.
func (g ScheduleGroup) First() Date {
	if len(g.Dates) == 0 {
		return Date{}
	}
	return g.Dates[0]
}

// Last returns the group's last date.
func (g ScheduleGroup) Last() Date {
	if len(g.Dates) == 0 {
		return Date{}
	}
	return g.Dates[len(g.Dates)-1]
}

// OrderRecord is the engine's view of a persisted order: its identifier and
// the dates it covers. The selection payload stays opaque to the engine.
type OrderRecord struct {
	ID    string `json:"id"`
	Dates []Date `json:"dates"`
}

// LastDate returns the latest date the record covers.
func (r OrderRecord) LastDate() Date {
	var last Date
	for _, d := range r.Dates {
		if last.IsZero() || d.After(last) {
			last = d
		}
	}
	return last
}

// ReconciledGroup is a ScheduleGroup annotated with the matching order
// records, the availability index, and whether it can still be edited.
// Rebuilt from scratch on every snapshot change, never mutated in place.
type ReconciledGroup struct {
	Group             ScheduleGroup `json:"group"`
	OrderIDs          []string      `json:"order_ids,omitempty"`
	AvailabilityIndex int           `json:"availability_index"`
	Editable          bool          `json:"editable"`
	ClosesAt          time.Time     `json:"closes_at"`
}

// Claimed reports whether at least one order record matched the group.
func (g ReconciledGroup) Claimed() bool { return len(g.OrderIDs) > 0 }
