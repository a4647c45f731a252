package domain

import "time"

// Reconcile matches persisted order records against the ordered group
// sequence and annotates every group with its record IDs, editability, and
// availability index. Records dated entirely before the current cutoff
// boundary are dropped; records matching no group are ignored as orphans.
// Unclaimed groups that are still open receive indexes 0, 1, 2, … in group
// order; claimed groups and unclaimed groups past cutoff receive -1. The
// output preserves the input group order and is rebuilt in full on every
// call.
func Reconcile(records []OrderRecord, groups []ScheduleGroup, cfg OrderScheduleConfig, lunchCfg LunchScheduleConfig, now time.Time) []ReconciledGroup {
	out := make([]ReconciledGroup, 0, len(groups))
	if len(groups) == 0 {
		return out
	}

	surviving := survivingRecords(records, cfg, lunchCfg, now)

	recordsByDate := make(map[Date][]int)
	for i, r := range surviving {
		for _, d := range r.Dates {
			recordsByDate[d] = append(recordsByDate[d], i)
		}
	}

	assigned := make(map[int]bool, len(surviving))
	available := 0
	for _, g := range groups {
		var ids []string
		for _, d := range g.Dates {
			for _, i := range recordsByDate[d] {
				if assigned[i] {
					continue
				}
				assigned[i] = true
				ids = append(ids, surviving[i].ID)
			}
		}

		editable := IsBeforeCutoff(g, cfg, lunchCfg, now)
		closesAt, _ := CutoffInstant(cfg, lunchCfg, g.First())

		index := -1
		if len(ids) == 0 && editable {
			index = available
			available++
		}

		out = append(out, ReconciledGroup{
			Group:             g,
			OrderIDs:          ids,
			AvailabilityIndex: index,
			Editable:          editable,
			ClosesAt:          closesAt,
		})
	}
	return out
}

// survivingRecords drops records whose dates all precede the cutoff boundary
// for the current cycle. A malformed cutoff rule keeps every record; the
// config validation path reports it separately.
func survivingRecords(records []OrderRecord, cfg OrderScheduleConfig, lunchCfg LunchScheduleConfig, now time.Time) []OrderRecord {
	boundary, err := CutoffBoundaryDate(cfg, lunchCfg, now)
	surviving := make([]OrderRecord, 0, len(records))
	for _, r := range records {
		if len(r.Dates) == 0 {
			continue
		}
		if err == nil && r.LastDate().Before(boundary) {
			continue
		}
		surviving = append(surviving, r)
	}
	return surviving
}
