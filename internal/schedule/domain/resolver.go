package domain

// ResolveOpenDates returns every calendar day in [from, to] that the
// ordering schedule keeps open: the day matches the recurrence weekday set,
// is not blacked out, and falls inside the rule's own bounds. The result is
// strictly increasing and duplicate-free; an empty result is a valid state.
func ResolveOpenDates(cfg OrderScheduleConfig, from, to Date) ([]Date, error) {
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	rule := cfg.Recurrence
	start, end := from, to
	if rule.Start != nil && rule.Start.After(start) {
		start = *rule.Start
	}
	if rule.End != nil && rule.End.Before(end) {
		end = *rule.End
	}

	blackout := make(map[Date]struct{}, len(rule.Blackout))
	for _, d := range rule.Blackout {
		blackout[d] = struct{}{}
	}

	var open []Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		if !rule.Weekdays.Contains(d.Weekday()) {
			continue
		}
		if _, skip := blackout[d]; skip {
			continue
		}
		open = append(open, d)
	}
	return open, nil
}

// FilterServed drops open dates on which lunch is not served. An empty lunch
// weekday set keeps every date.
func FilterServed(dates []Date, lunchCfg LunchScheduleConfig) []Date {
	if len(lunchCfg.Weekdays) == 0 {
		return dates
	}
	served := make([]Date, 0, len(dates))
	for _, d := range dates {
		if lunchCfg.Weekdays.Contains(d.Weekday()) {
			served = append(served, d)
		}
	}
	return served
}
