package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/agromesh/cottonwatch/internal/database"
	"github.com/agromesh/cottonwatch/internal/ingest"
	"github.com/agromesh/cottonwatch/internal/model"
)

func TestSimulate(t *testing.T) {
	store := newFakeStore(1)
	base := day(2024, 7, 10)
	seedReadings(store, 1, base, map[[2]float64]float64{
		{86.05, 41.18}: 40.0,
		{86.06, 41.19}: 50.0,
	})
	svc := testService(store, drydownPredictor())

	predictions, err := svc.Simulate(1, base, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// exactly days x locations rows
	if len(predictions) != 6 {
		t.Fatalf("got %d predictions, expected 6", len(predictions))
	}

	byLoc := make(map[[2]float64][]database.IrrigationPrediction)
	for _, p := range predictions {
		if !p.IsFuture {
			t.Error("every simulated row must be marked future")
		}
		if p.CurrentHumidity != nil {
			t.Error("simulated rows carry no observed humidity")
		}
		byLoc[[2]float64{p.LocX, p.LocY}] = append(byLoc[[2]float64{p.LocX, p.LocY}], p)
	}
	if len(byLoc) != 2 {
		t.Fatalf("got %d locations, expected 2", len(byLoc))
	}

	// each location advances one day per step and drops two points per day
	for loc, rows := range byLoc {
		if len(rows) != 3 {
			t.Fatalf("location %v: got %d rows, expected 3", loc, len(rows))
		}
		start := 40.0
		if loc[0] == 86.06 {
			start = 50.0
		}
		for i, p := range rows {
			wantDate := base.AddDate(0, 0, i+1)
			if !p.Date.Equal(wantDate) {
				t.Errorf("location %v step %d: date %v, expected %v", loc, i, p.Date, wantDate)
			}
			want := start - 2.0*float64(i+1)
			if p.PredictedHumidity != want {
				t.Errorf("location %v step %d: humidity %v, expected %v", loc, i, p.PredictedHumidity, want)
			}
		}
	}
}

func TestSimulateRecursesOnOwnOutput(t *testing.T) {
	store := newFakeStore(1)
	base := day(2024, 7, 10)
	seedReadings(store, 1, base, map[[2]float64]float64{{86.05, 41.18}: 32.0})

	// halving makes compounding visible: 16, 8, 4 rather than any linear
	// extrapolation of the base day
	halving := &stubPredictor{
		version: "stub-halving",
		fn:      func(f model.Features) float64 { return f.SoilHumidity / 2.0 },
	}
	svc := testService(store, halving)

	predictions, err := svc.Simulate(1, base, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []float64{16.0, 8.0, 4.0}
	for i, p := range predictions {
		if p.PredictedHumidity != expected[i] {
			t.Errorf("step %d: got %v, expected %v", i+1, p.PredictedHumidity, expected[i])
		}
	}
}

func TestSimulateLagAdvances(t *testing.T) {
	store := newFakeStore(1)
	base := day(2024, 7, 10)
	store.readings = append(store.readings, database.SensorReading{
		FieldID: 1, Date: base, LocX: 86.05, LocY: 41.18,
		SoilHumidity: 40.0, DaysSinceIrrigation: 3,
	})

	var seenLags []int
	spy := &stubPredictor{
		version: "stub-spy",
		fn: func(f model.Features) float64 {
			seenLags = append(seenLags, f.DaysSinceIrrigation)
			if f.IrrigationAmount != 0 {
				t.Errorf("scenario irrigation must be zero, got %v", f.IrrigationAmount)
			}
			return f.SoilHumidity
		},
	}
	svc := testService(store, spy)

	if _, err := svc.Simulate(1, base, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []int{3, 4, 5}
	if len(seenLags) != len(expected) {
		t.Fatalf("got %d model calls, expected %d", len(seenLags), len(expected))
	}
	for i, want := range expected {
		if seenLags[i] != want {
			t.Errorf("step %d: lag %d, expected %d", i+1, seenLags[i], want)
		}
	}
}

// A never-irrigated location keeps its sentinel through the whole
// simulation instead of drifting toward "irrigated recently".
func TestSimulateSentinelLagDoesNotAdvance(t *testing.T) {
	store := newFakeStore(1)
	base := day(2024, 7, 10)
	store.readings = append(store.readings, database.SensorReading{
		FieldID: 1, Date: base, LocX: 86.05, LocY: 41.18,
		SoilHumidity: 40.0, DaysSinceIrrigation: ingest.NoPriorIrrigation,
	})

	var seenLags []int
	spy := &stubPredictor{
		version: "stub-spy",
		fn: func(f model.Features) float64 {
			seenLags = append(seenLags, f.DaysSinceIrrigation)
			return f.SoilHumidity
		},
	}
	svc := testService(store, spy)

	if _, err := svc.Simulate(1, base, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, lag := range seenLags {
		if lag != ingest.NoPriorIrrigation {
			t.Errorf("step %d: lag %d, expected sentinel %d", i+1, lag, ingest.NoPriorIrrigation)
		}
	}
}

func TestSimulateValidation(t *testing.T) {
	store := newFakeStore(1)
	base := day(2024, 7, 10)
	seedReadings(store, 1, base, map[[2]float64]float64{{86.05, 41.18}: 40.0})
	svc := testService(store, drydownPredictor())

	tests := []struct {
		name     string
		days     int
		expected error
	}{
		{name: "zero days", days: 0, expected: ErrInvalidRequest},
		{name: "negative days", days: -2, expected: ErrInvalidRequest},
		{name: "beyond cap", days: 31, expected: ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Simulate(1, base, tt.days)
			if !errors.Is(err, tt.expected) {
				t.Errorf("got %v, expected %v", err, tt.expected)
			}
		})
	}
	if len(store.predictions) != 0 {
		t.Error("rejected simulations must not write predictions")
	}
}

func TestSimulateModelUnavailable(t *testing.T) {
	store := newFakeStore(1)
	base := day(2024, 7, 10)
	seedReadings(store, 1, base, map[[2]float64]float64{{86.05, 41.18}: 40.0})
	svc := testService(store, nil)

	_, err := svc.Simulate(1, base, 3)
	if !errors.Is(err, model.ErrUnavailable) {
		t.Errorf("got %v, expected model.ErrUnavailable", err)
	}
	if len(store.predictions) != 0 {
		t.Error("no prediction may be written without a model")
	}
}

func TestSimulateDefaultsToLatestDate(t *testing.T) {
	store := newFakeStore(1)
	seedReadings(store, 1, day(2024, 7, 8), map[[2]float64]float64{{86.05, 41.18}: 44.0})
	seedReadings(store, 1, day(2024, 7, 10), map[[2]float64]float64{{86.05, 41.18}: 40.0})
	svc := testService(store, drydownPredictor())

	predictions, err := svc.Simulate(1, time.Time{}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 1 {
		t.Fatalf("got %d predictions, expected 1", len(predictions))
	}
	// starts from the 2024-07-10 observation, not the earlier one
	if predictions[0].PredictedHumidity != 38.0 {
		t.Errorf("got %v, expected 38.0", predictions[0].PredictedHumidity)
	}
	if !predictions[0].Date.Equal(day(2024, 7, 11)) {
		t.Errorf("got date %v, expected 2024-07-11", predictions[0].Date)
	}
}

func TestSimulateNoObservations(t *testing.T) {
	store := newFakeStore(1)
	svc := testService(store, drydownPredictor())

	_, err := svc.Simulate(1, time.Time{}, 3)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("got %v, expected ErrDataUnavailable", err)
	}
}
