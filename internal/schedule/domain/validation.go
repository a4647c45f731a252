package domain

import (
	"fmt"
	"strings"
	"time"
)

// ValidateOrderSchedule checks that an ordering schedule carries every field
// the engine needs. Failures are configuration defects for the operator, not
// end-user errors.
func ValidateOrderSchedule(cfg OrderScheduleConfig) error {
	switch cfg.ScheduleType {
	case ScheduleTypeDaily, ScheduleTypeCustom:
	default:
		return fmt.Errorf("%w: unknown schedule type %q", ErrMalformedConfig, cfg.ScheduleType)
	}

	if len(cfg.Recurrence.Weekdays) == 0 {
		return fmt.Errorf("%w: recurrence weekdays required", ErrMalformedConfig)
	}
	for _, day := range cfg.Recurrence.Weekdays {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrMalformedConfig, day)
		}
	}
	if cfg.Recurrence.Start != nil && cfg.Recurrence.End != nil && cfg.Recurrence.Start.After(*cfg.Recurrence.End) {
		return fmt.Errorf("%w: recurrence bounds inverted", ErrMalformedConfig)
	}

	if _, _, err := parseTimeOfDay(cfg.Cutoff.TimeOfDay); err != nil {
		return fmt.Errorf("%w: cutoff time of day", ErrMalformedConfig)
	}
	if name := strings.TrimSpace(cfg.Cutoff.Timezone); name != "" {
		if _, err := time.LoadLocation(name); err != nil {
			return fmt.Errorf("%w: cutoff timezone %q", ErrMalformedConfig, name)
		}
	}

	if cfg.ScheduleType == ScheduleTypeCustom {
		if cfg.Grouping.GroupSize <= 0 && !cfg.Grouping.BreakOnWeekStart {
			return fmt.Errorf("%w: custom schedule needs a grouping rule", ErrMalformedConfig)
		}
		if cfg.Grouping.GroupSize < 0 {
			return fmt.Errorf("%w: negative group size", ErrMalformedConfig)
		}
		if !cfg.Grouping.WeekStart.Valid() {
			return fmt.Errorf("%w: week start %d out of range", ErrMalformedConfig, cfg.Grouping.WeekStart)
		}
	}
	return nil
}

// ValidateLunchSchedule checks a lunch schedule, descending into every
// branch of a dependent config.
func ValidateLunchSchedule(cfg LunchScheduleConfig) error {
	if name := strings.TrimSpace(cfg.Timezone); name != "" {
		if _, err := time.LoadLocation(name); err != nil {
			return fmt.Errorf("%w: lunch timezone %q", ErrMalformedConfig, name)
		}
	}
	for _, day := range cfg.Weekdays {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrMalformedConfig, day)
		}
	}

	if !cfg.Dependent {
		return nil
	}
	if strings.TrimSpace(cfg.AttributeKey) == "" {
		return fmt.Errorf("%w: dependent schedule needs an attribute key", ErrMalformedConfig)
	}
	if len(cfg.Branches) == 0 {
		return fmt.Errorf("%w: dependent schedule needs branches", ErrMalformedConfig)
	}
	for key, branch := range cfg.Branches {
		if branch.Dependent {
			return fmt.Errorf("%w: nested dependent branch %q", ErrMalformedConfig, key)
		}
		if err := ValidateLunchSchedule(branch); err != nil {
			return err
		}
	}
	return nil
}
