package forecast

import (
	"fmt"
	"time"

	"github.com/agromesh/cottonwatch/internal/database"
	"github.com/agromesh/cottonwatch/internal/ingest"
	"github.com/agromesh/cottonwatch/internal/model"
)

// simState carries every location of a field across simulation steps. One
// explicit state struct, updated in place per step, keeps step k+1's inputs
// cleanly separated from step k's outputs and avoids aliasing through the
// model call.
type simState struct {
	date time.Time

	locX     []float64
	locY     []float64
	humidity []float64
	lag      []int
	soilTemp []float64

	// scenario weather: the base day's values from the first location,
	// broadcast to all. The simulation answers "what if weather stays as it
	// was", not "what if forecast X occurs".
	rain    float64
	airTemp float64
}

func newSimState(base []database.SensorReading) *simState {
	st := &simState{
		date:     base[0].Date,
		locX:     make([]float64, len(base)),
		locY:     make([]float64, len(base)),
		humidity: make([]float64, len(base)),
		lag:      make([]int, len(base)),
		soilTemp: make([]float64, len(base)),
		rain:     base[0].Rain,
		airTemp:  base[0].AirTemperature,
	}
	for i, r := range base {
		st.locX[i] = r.LocX
		st.locY[i] = r.LocY
		st.humidity[i] = r.SoilHumidity
		st.lag[i] = r.DaysSinceIrrigation
		st.soilTemp[i] = r.SoilTemperature
	}
	return st
}

// step advances every location one day: one batch model call, then state
// update. The scenario applies no irrigation, so the feature is fixed at
// zero and the lag grows by one per day, except the never-irrigated
// sentinel, which stays -1 rather than aliasing into "irrigated today".
func (st *simState) step(predictor model.Predictor) error {
	batch := make([]model.Features, len(st.humidity))
	for i := range batch {
		batch[i] = model.Features{
			SoilHumidity:        st.humidity[i],
			SoilTemperature:     st.soilTemp[i],
			Rain:                st.rain,
			AirTemperature:      st.airTemp,
			IrrigationAmount:    0,
			DaysSinceIrrigation: st.lag[i],
			LocX:                st.locX[i],
			LocY:                st.locY[i],
		}
	}

	predicted, err := predictor.PredictBatch(batch)
	if err != nil {
		return err
	}

	copy(st.humidity, predicted)
	for i := range st.lag {
		if st.lag[i] != ingest.NoPriorIrrigation {
			st.lag[i]++
		}
	}
	st.date = st.date.AddDate(0, 0, 1)
	return nil
}

// Simulate projects all locations of a field forward daysAhead days from
// baseDate (or the latest fully-observed date when baseDate is zero),
// persisting one future Prediction per location per day. The simulation
// always runs to completion: there is no early stop, even if humidity
// saturates.
func (s *Service) Simulate(fieldID int, baseDate time.Time, daysAhead int) ([]database.IrrigationPrediction, error) {
	if err := s.requireField(fieldID); err != nil {
		return nil, err
	}
	if daysAhead < 1 || daysAhead > s.cfg.MaxSimulationDays {
		return nil, fmt.Errorf("%w: days_ahead must be between 1 and %d, got %d",
			ErrInvalidRequest, s.cfg.MaxSimulationDays, daysAhead)
	}
	predictor, err := s.predictorOrErr()
	if err != nil {
		return nil, err
	}

	if baseDate.IsZero() {
		baseDate, err = s.store.LatestReadingDate(fieldID)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d has no observations", ErrDataUnavailable, fieldID)
		}
	}

	base, err := s.store.ReadingsForDate(fieldID, baseDate)
	if err != nil {
		return nil, err
	}
	if len(base) == 0 {
		return nil, fmt.Errorf("%w: no readings for field %d on %s",
			ErrDataUnavailable, fieldID, baseDate.Format(dateFormat))
	}

	state := newSimState(base)
	now := time.Now().UTC()
	version := s.ModelVersion()

	predictions := make([]database.IrrigationPrediction, 0, len(base)*daysAhead)
	for step := 0; step < daysAhead; step++ {
		if err := state.step(predictor); err != nil {
			return nil, err
		}
		for i := range state.humidity {
			rec := Recommend(state.humidity[i], s.cfg)
			predictions = append(predictions, database.IrrigationPrediction{
				FieldID:           fieldID,
				Date:              state.date,
				LocX:              state.locX[i],
				LocY:              state.locY[i],
				PredictedHumidity: state.humidity[i],
				CurrentHumidity:   nil,
				RiskLevel:         string(rec.RiskLevel),
				Action:            string(rec.Action),
				RecommendedAmount: rec.RecommendedAmount,
				IsFuture:          true,
				ModelVersion:      version,
				UpdatedAt:         now,
			})
		}
	}

	if err := s.store.UpsertPredictions(predictions); err != nil {
		return nil, err
	}

	s.logger.Infow("simulation persisted", "field_id", fieldID,
		"base_date", baseDate.Format(dateFormat), "days_ahead", daysAhead,
		"locations", len(base))
	return predictions, nil
}
