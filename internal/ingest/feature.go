package ingest

import (
	"sort"
	"time"
)

// DeriveDaysSince computes, for each distinct date in records, the number of
// whole days since the most recent date with positive irrigation volume
// strictly before it, or NoPriorIrrigation if none exists. The value is
// computed once per date and broadcast to every location sharing it:
// irrigation is field-wide, so all locations share the same history.
//
// The strict inequality keeps the feature causal: events on or after a
// date never influence that date's value.
func DeriveDaysSince(records []DailyRecord, irrigation map[time.Time]float64) {
	var irrigationDates []time.Time
	for date, amount := range irrigation {
		if amount > 0 {
			irrigationDates = append(irrigationDates, date)
		}
	}
	sort.Slice(irrigationDates, func(i, j int) bool {
		return irrigationDates[i].Before(irrigationDates[j])
	})

	lagByDate := make(map[time.Time]int)
	for i := range records {
		date := records[i].Date
		lag, ok := lagByDate[date]
		if !ok {
			lag = daysSince(date, irrigationDates)
			lagByDate[date] = lag
		}
		records[i].DaysSinceIrrigation = lag
	}
}

func daysSince(date time.Time, irrigationDates []time.Time) int {
	// index of the first irrigation date >= date; the one before it is the
	// most recent strictly-earlier event
	i := sort.Search(len(irrigationDates), func(i int) bool {
		return !irrigationDates[i].Before(date)
	})
	if i == 0 {
		return NoPriorIrrigation
	}
	return daysBetween(irrigationDates[i-1], date)
}
