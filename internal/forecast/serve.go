package forecast

import (
	"sort"
	"time"

	"github.com/agromesh/cottonwatch/internal/database"
	"github.com/agromesh/cottonwatch/internal/ingest"
)

// MapPoint is one location's joined reading and prediction for a map
// snapshot. Reading fields are nil on pure-future dates; prediction fields
// are nil for a location not yet scored, which surfaces as unknown risk
// rather than omission.
type MapPoint struct {
	LocX float64 `json:"loc_x"`
	LocY float64 `json:"loc_y"`

	SoilHumidity        *float64 `json:"soil_humidity"`
	SoilTemperature     *float64 `json:"soil_temperature"`
	Rain                *float64 `json:"rain"`
	AirTemperature      *float64 `json:"air_temperature"`
	IrrigationAmount    *float64 `json:"irrigation_amount"`
	DaysSinceIrrigation *int     `json:"days_since_irrigation"`

	PredictedHumidity *float64 `json:"predicted_humidity"`
	RiskLevel         string   `json:"risk_level"`
	Action            string   `json:"action,omitempty"`
	RecommendedAmount *float64 `json:"recommended_amount"`
	IsFuture          bool     `json:"is_future"`
}

// MapSnapshot is the per-date map view of one field
type MapSnapshot struct {
	FieldID int        `json:"field_id"`
	Date    string     `json:"date"`
	Points  []MapPoint `json:"points"`
}

// Timeseries is the per-location view stitching observed and predicted
// series onto one gap-free date axis. All arrays share the axis length;
// Actual is nil strictly after the last observed date and is never
// backfilled.
type Timeseries struct {
	FieldID int     `json:"field_id"`
	LocX    float64 `json:"loc_x"`
	LocY    float64 `json:"loc_y"`

	Dates      []string   `json:"dates"`
	Actual     []*float64 `json:"actual"`
	Predicted  []*float64 `json:"predicted"`
	Irrigation []float64  `json:"irrigation"`
	Fallback   []bool     `json:"fallback"`

	LastObservedDate string `json:"last_observed_date,omitempty"`
}

// DateSummaryEntry aggregates one date's predictions across a field
type DateSummaryEntry struct {
	Date          string  `json:"date"`
	AvgPredicted  float64 `json:"avg_predicted"`
	HighRiskCount int     `json:"high_risk_count"`
	LocationCount int     `json:"location_count"`
}

// DateIndex lists the dates a field has data for
type DateIndex struct {
	Dates            []string `json:"dates"`
	FirstDate        string   `json:"first_date,omitempty"`
	LastObservedDate string   `json:"last_observed_date,omitempty"`
	LastFullDate     string   `json:"last_full_date,omitempty"`
}

// MapSnapshot joins every location's reading with its prediction for one
// date. A location with a reading but no prediction appears with unknown
// risk; a prediction-only location (future dates) appears with nil reading
// fields.
func (s *Service) MapSnapshot(fieldID int, date time.Time) (*MapSnapshot, error) {
	if err := s.requireField(fieldID); err != nil {
		return nil, err
	}

	readings, err := s.store.ReadingsForDate(fieldID, date)
	if err != nil {
		return nil, err
	}
	predictions, err := s.store.PredictionsForDate(fieldID, date)
	if err != nil {
		return nil, err
	}

	predByLoc := make(map[ingest.Location]database.IrrigationPrediction, len(predictions))
	for _, p := range predictions {
		predByLoc[ingest.Location{X: p.LocX, Y: p.LocY}] = p
	}

	points := make([]MapPoint, 0, len(readings)+len(predictions))
	seen := make(map[ingest.Location]bool, len(readings))

	for i := range readings {
		r := readings[i]
		loc := ingest.Location{X: r.LocX, Y: r.LocY}
		seen[loc] = true

		lag := r.DaysSinceIrrigation
		point := MapPoint{
			LocX:                r.LocX,
			LocY:                r.LocY,
			SoilHumidity:        &readings[i].SoilHumidity,
			SoilTemperature:     &readings[i].SoilTemperature,
			Rain:                &readings[i].Rain,
			AirTemperature:      &readings[i].AirTemperature,
			IrrigationAmount:    &readings[i].IrrigationAmount,
			DaysSinceIrrigation: &lag,
			RiskLevel:           string(RiskUnknown),
		}
		if p, ok := predByLoc[loc]; ok {
			point.PredictedHumidity = &p.PredictedHumidity
			point.RiskLevel = p.RiskLevel
			point.Action = p.Action
			point.RecommendedAmount = &p.RecommendedAmount
			point.IsFuture = p.IsFuture
		}
		points = append(points, point)
	}

	// prediction-only locations: simulated days have no readings at all
	for _, p := range predictions {
		loc := ingest.Location{X: p.LocX, Y: p.LocY}
		if seen[loc] {
			continue
		}
		predicted := p.PredictedHumidity
		amount := p.RecommendedAmount
		points = append(points, MapPoint{
			LocX:              p.LocX,
			LocY:              p.LocY,
			PredictedHumidity: &predicted,
			RiskLevel:         p.RiskLevel,
			Action:            p.Action,
			RecommendedAmount: &amount,
			IsFuture:          p.IsFuture,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].LocX != points[j].LocX {
			return points[i].LocX < points[j].LocX
		}
		return points[i].LocY < points[j].LocY
	})

	return &MapSnapshot{
		FieldID: fieldID,
		Date:    date.Format(dateFormat),
		Points:  points,
	}, nil
}

// Timeseries assembles one location's observed and predicted series over
// the union of reading and prediction dates, auto-extended past the latest
// date so forecasts stay visible even when no simulation was run for the
// tail. Dates with no stored prediction past the last simulated day get a
// linearly decaying fallback estimate, clearly flagged and floored at the
// configured minimum.
func (s *Service) Timeseries(fieldID int, locX, locY float64, from, to time.Time) (*Timeseries, error) {
	if err := s.requireField(fieldID); err != nil {
		return nil, err
	}

	readings, err := s.store.ReadingsForLocation(fieldID, locX, locY, from, to)
	if err != nil {
		return nil, err
	}
	predictions, err := s.store.PredictionsForLocation(fieldID, locX, locY, from, to)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 && len(predictions) == 0 {
		return nil, ErrDataUnavailable
	}

	readingByDate := make(map[time.Time]database.SensorReading, len(readings))
	var lastObserved time.Time
	for _, r := range readings {
		readingByDate[r.Date] = r
		if r.Date.After(lastObserved) {
			lastObserved = r.Date
		}
	}

	predByDate := make(map[time.Time]database.IrrigationPrediction, len(predictions))
	var lastPredicted time.Time
	for _, p := range predictions {
		predByDate[p.Date] = p
		if p.Date.After(lastPredicted) {
			lastPredicted = p.Date
		}
	}

	axis := buildDateAxis(readingByDate, predByDate, to, s.cfg.ExtendDays)

	ts := &Timeseries{
		FieldID:    fieldID,
		LocX:       locX,
		LocY:       locY,
		Dates:      make([]string, len(axis)),
		Actual:     make([]*float64, len(axis)),
		Predicted:  make([]*float64, len(axis)),
		Irrigation: make([]float64, len(axis)),
		Fallback:   make([]bool, len(axis)),
	}
	if !lastObserved.IsZero() {
		ts.LastObservedDate = lastObserved.Format(dateFormat)
	}

	for i, date := range axis {
		ts.Dates[i] = date.Format(dateFormat)

		if r, ok := readingByDate[date]; ok {
			humidity := r.SoilHumidity
			ts.Irrigation[i] = r.IrrigationAmount
			// actual is only ever a real observation
			if !date.After(lastObserved) {
				ts.Actual[i] = &humidity
			}
		}

		if p, ok := predByDate[date]; ok {
			predicted := p.PredictedHumidity
			ts.Predicted[i] = &predicted
			continue
		}

		// degraded tail estimate, distinct from a real simulation
		if !lastPredicted.IsZero() && date.After(lastPredicted) && date.After(lastObserved) {
			daysAhead := int(date.Sub(lastPredicted).Hours() / 24)
			value := predByDate[lastPredicted].PredictedHumidity -
				s.cfg.FallbackDecayPerDay*float64(daysAhead)
			if value < s.cfg.FallbackFloor {
				value = s.cfg.FallbackFloor
			}
			ts.Predicted[i] = &value
			ts.Fallback[i] = true
		}
	}

	return ts, nil
}

// buildDateAxis returns every calendar day from the earliest reading or
// prediction through the latest one plus extendDays, clamped to an explicit
// range end. Interior days with no data are present so the series never has
// holes.
func buildDateAxis(readings map[time.Time]database.SensorReading, predictions map[time.Time]database.IrrigationPrediction, to time.Time, extendDays int) []time.Time {
	var earliest, latest time.Time
	observe := func(d time.Time) {
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
		if d.After(latest) {
			latest = d
		}
	}
	for d := range readings {
		observe(d)
	}
	for d := range predictions {
		observe(d)
	}

	end := latest.AddDate(0, 0, extendDays)
	if !to.IsZero() && end.After(to) {
		end = to
	}
	if end.Before(latest) {
		end = latest
	}

	var axis []time.Time
	for d := earliest; !d.After(end); d = d.AddDate(0, 0, 1) {
		axis = append(axis, d)
	}
	return axis
}

// DateSummary aggregates each date carrying at least one prediction
func (s *Service) DateSummary(fieldID int) ([]DateSummaryEntry, error) {
	if err := s.requireField(fieldID); err != nil {
		return nil, err
	}

	rows, err := s.store.DateSummary(fieldID)
	if err != nil {
		return nil, err
	}

	entries := make([]DateSummaryEntry, len(rows))
	for i, row := range rows {
		entries[i] = DateSummaryEntry{
			Date:          row.Date.Format(dateFormat),
			AvgPredicted:  row.AvgPredicted,
			HighRiskCount: row.HighRiskCount,
			LocationCount: row.LocationCount,
		}
	}
	return entries, nil
}

// DateIndex lists every date the field has readings or predictions for,
// plus the observation boundary the dashboard pivots on
func (s *Service) DateIndex(fieldID int) (*DateIndex, error) {
	if err := s.requireField(fieldID); err != nil {
		return nil, err
	}

	dates, err := s.store.AvailableDates(fieldID)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return &DateIndex{Dates: []string{}}, nil
	}

	index := &DateIndex{
		Dates:        make([]string, len(dates)),
		FirstDate:    dates[0].Format(dateFormat),
		LastFullDate: dates[len(dates)-1].Format(dateFormat),
	}
	for i, d := range dates {
		index.Dates[i] = d.Format(dateFormat)
	}

	if lastObserved, err := s.store.LatestReadingDate(fieldID); err == nil {
		index.LastObservedDate = lastObserved.Format(dateFormat)
	}

	return index, nil
}
