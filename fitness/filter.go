package fitness

import (
	"time"

	"github.com/samber/lo"
)

// Period is a named relative date range used by the dashboard.
type Period string

const (
	PeriodWeek    Period = "Week"
	PeriodMonth   Period = "Month"
	PeriodSeason  Period = "Season"
	PeriodAllTime Period = "All time"
)

// Periods lists the supported time periods.
func Periods() []Period {
	return []Period{PeriodWeek, PeriodMonth, PeriodSeason, PeriodAllTime}
}

// Start returns the inclusive start of the period relative to now. The second
// return value is false for "All time", which has no lower bound.
func (p Period) Start(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), true
	case PeriodMonth:
		return now.AddDate(0, 0, -30), true
	case PeriodSeason:
		return now.AddDate(0, 0, -90), true
	}
	return time.Time{}, false
}

// FilterActivities returns the subset of activities whose date falls in
// [from, to] (inclusive on both ends) and whose type is in types, if any are
// given. Zero from/to values leave that side of the range open. Input order
// is preserved; an empty result is valid.
func FilterActivities(activities []Activity, from, to time.Time, types []string) []Activity {
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	return lo.Filter(activities, func(a Activity, _ int) bool {
		if !from.IsZero() && a.Date.Before(from) {
			return false
		}
		if !to.IsZero() && a.Date.After(to) {
			return false
		}
		if len(typeSet) > 0 {
			if _, ok := typeSet[a.Type]; !ok {
				return false
			}
		}
		return true
	})
}

// FilterWeightEntries returns the subset of weight entries whose date falls
// in [from, to] (inclusive), preserving input order.
func FilterWeightEntries(entries []WeightEntry, from, to time.Time) []WeightEntry {
	return lo.Filter(entries, func(w WeightEntry, _ int) bool {
		if !from.IsZero() && w.Date.Before(from) {
			return false
		}
		if !to.IsZero() && w.Date.After(to) {
			return false
		}
		return true
	})
}
