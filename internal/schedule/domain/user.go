package domain

import "strings"

// ResolveForUser resolves the effective lunch schedule for one member. A
// non-dependent config is returned unchanged. A dependent config resolves
// through the branch keyed by the member's attribute value; a missing branch
// is an error, never a silent fallback, because serving the wrong days is a
// correctness violation. Fields a branch leaves unset inherit from the root.
func ResolveForUser(cfg LunchScheduleConfig, attrs map[string]string) (LunchScheduleConfig, error) {
	if !cfg.Dependent {
		return cfg, nil
	}

	key := strings.TrimSpace(cfg.AttributeKey)
	if key == "" || len(cfg.Branches) == 0 {
		return LunchScheduleConfig{}, ErrMalformedConfig
	}

	branch, ok := cfg.Branches[strings.TrimSpace(attrs[key])]
	if !ok {
		return LunchScheduleConfig{}, ErrUnresolvedUserSchedule
	}
	if branch.Dependent {
		return LunchScheduleConfig{}, ErrMalformedConfig
	}
	if branch.Timezone == "" {
		branch.Timezone = cfg.Timezone
	}
	if len(branch.Weekdays) == 0 {
		branch.Weekdays = cfg.Weekdays
	}
	return branch, nil
}
