package ingest

import (
	"testing"
	"time"
)

func TestDeriveDaysSince(t *testing.T) {
	tests := []struct {
		name       string
		dates      []time.Time
		irrigation map[time.Time]float64
		expected   []int
	}{
		{
			name:       "no events means sentinel everywhere",
			dates:      []time.Time{day(2024, 7, 1), day(2024, 7, 2), day(2024, 7, 3)},
			irrigation: nil,
			expected:   []int{NoPriorIrrigation, NoPriorIrrigation, NoPriorIrrigation},
		},
		{
			name:  "same day event does not count",
			dates: []time.Time{day(2024, 7, 1), day(2024, 7, 2), day(2024, 7, 3)},
			irrigation: map[time.Time]float64{
				day(2024, 7, 2): 15.0,
			},
			expected: []int{NoPriorIrrigation, NoPriorIrrigation, 1},
		},
		{
			name:  "counts from most recent prior event",
			dates: []time.Time{day(2024, 7, 1), day(2024, 7, 5), day(2024, 7, 10)},
			irrigation: map[time.Time]float64{
				day(2024, 6, 28): 10.0,
				day(2024, 7, 4):  20.0,
			},
			expected: []int{3, 1, 6},
		},
		{
			name:  "zero volume events ignored",
			dates: []time.Time{day(2024, 7, 3)},
			irrigation: map[time.Time]float64{
				day(2024, 7, 1): 0.0,
			},
			expected: []int{NoPriorIrrigation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]DailyRecord, len(tt.dates))
			for i, d := range tt.dates {
				records[i] = DailyRecord{Date: d, LocX: 1.0, LocY: 2.0}
			}

			DeriveDaysSince(records, tt.irrigation)

			for i, want := range tt.expected {
				if records[i].DaysSinceIrrigation != want {
					t.Errorf("date %v: got %d, expected %d",
						records[i].Date.Format("2006-01-02"), records[i].DaysSinceIrrigation, want)
				}
			}
		})
	}
}

func TestDeriveDaysSinceBroadcastsAcrossLocations(t *testing.T) {
	d := day(2024, 7, 10)
	records := []DailyRecord{
		{Date: d, LocX: 1.0, LocY: 1.0},
		{Date: d, LocX: 2.0, LocY: 2.0},
		{Date: d, LocX: 3.0, LocY: 3.0},
	}
	irrigation := map[time.Time]float64{
		day(2024, 7, 6): 12.0,
	}

	DeriveDaysSince(records, irrigation)

	for _, r := range records {
		if r.DaysSinceIrrigation != 4 {
			t.Errorf("location (%v, %v): got %d, expected 4", r.LocX, r.LocY, r.DaysSinceIrrigation)
		}
	}
}

// A date's lag must depend only on events strictly before it; later events
// in the same ingestion window are invisible to it.
func TestDeriveDaysSinceIsCausal(t *testing.T) {
	records := []DailyRecord{
		{Date: day(2024, 7, 1)},
		{Date: day(2024, 7, 2)},
	}
	irrigation := map[time.Time]float64{
		day(2024, 7, 1): 15.0,
		day(2024, 7, 2): 15.0,
	}

	DeriveDaysSince(records, irrigation)

	if records[0].DaysSinceIrrigation != NoPriorIrrigation {
		t.Errorf("first date: got %d, expected sentinel %d",
			records[0].DaysSinceIrrigation, NoPriorIrrigation)
	}
	if records[1].DaysSinceIrrigation != 1 {
		t.Errorf("second date: got %d, expected 1", records[1].DaysSinceIrrigation)
	}
}
