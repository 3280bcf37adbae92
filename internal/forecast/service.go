// Package forecast turns the ingested base dataset into irrigation
// guidance: single-day nowcasts, recursive multi-day simulations, and the
// read views the operations dashboard consumes.
package forecast

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agromesh/cottonwatch/internal/database"
	"github.com/agromesh/cottonwatch/internal/model"
	"github.com/agromesh/cottonwatch/pkg/config"
)

const dateFormat = "2006-01-02"

// Store is the persistence surface the forecasting service depends on.
// *database.Client satisfies it; tests substitute an in-memory fake.
type Store interface {
	FieldExists(fieldID int) (bool, error)
	ReadingsForDate(fieldID int, date time.Time) ([]database.SensorReading, error)
	Reading(fieldID int, date time.Time, locX, locY float64) (*database.SensorReading, error)
	ReadingsForLocation(fieldID int, locX, locY float64, from, to time.Time) ([]database.SensorReading, error)
	LatestReadingDate(fieldID int) (time.Time, error)
	UpsertPredictions(predictions []database.IrrigationPrediction) error
	PredictionsForDate(fieldID int, date time.Time) ([]database.IrrigationPrediction, error)
	PredictionsForLocation(fieldID int, locX, locY float64, from, to time.Time) ([]database.IrrigationPrediction, error)
	DateSummary(fieldID int) ([]database.DateSummaryRow, error)
	AvailableDates(fieldID int) ([]time.Time, error)
}

// Service owns the fitted model for the life of the process and serves all
// prediction, simulation, and read-view requests. The predictor is loaded
// once and shared read-only across concurrent callers; a nil predictor
// means the artifact was unavailable at startup, which fails prediction
// calls fast while leaving read views serviceable.
type Service struct {
	store     Store
	predictor model.Predictor
	cfg       config.ForecastData
	logger    *zap.SugaredLogger
}

// NewService creates the forecasting service
func NewService(store Store, predictor model.Predictor, cfg config.ForecastData, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:     store,
		predictor: predictor,
		cfg:       cfg,
		logger:    logger,
	}
}

// ModelVersion returns the loaded artifact version, or empty when no model
// is available
func (s *Service) ModelVersion() string {
	if s.predictor == nil {
		return ""
	}
	return s.predictor.Version()
}

func (s *Service) predictorOrErr() (model.Predictor, error) {
	if s.predictor == nil {
		return nil, model.ErrUnavailable
	}
	return s.predictor, nil
}

func (s *Service) requireField(fieldID int) error {
	exists, err := s.store.FieldExists(fieldID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: unknown field %d", ErrInvalidRequest, fieldID)
	}
	return nil
}

// PredictOne computes and persists a nowcast for a single location/date.
// No prediction is written when the model is unavailable or the reading is
// missing.
func (s *Service) PredictOne(fieldID int, locX, locY float64, date time.Time) (*database.IrrigationPrediction, error) {
	if err := s.requireField(fieldID); err != nil {
		return nil, err
	}
	predictor, err := s.predictorOrErr()
	if err != nil {
		return nil, err
	}

	reading, err := s.store.Reading(fieldID, date, locX, locY)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no reading for (%g, %g) on %s",
			ErrDataUnavailable, locX, locY, date.Format(dateFormat))
	}
	if err != nil {
		return nil, err
	}

	predicted, err := predictor.Predict(featuresFromReading(*reading))
	if err != nil {
		return nil, err
	}

	prediction := s.nowcastRow(*reading, predicted)
	if err := s.store.UpsertPredictions([]database.IrrigationPrediction{prediction}); err != nil {
		return nil, err
	}
	return &prediction, nil
}

// PredictField computes and persists nowcasts for every location of a field
// on one date (or the latest observed date when date is zero), scoring the
// whole batch in a single model call
func (s *Service) PredictField(fieldID int, date time.Time) ([]database.IrrigationPrediction, error) {
	if err := s.requireField(fieldID); err != nil {
		return nil, err
	}
	predictor, err := s.predictorOrErr()
	if err != nil {
		return nil, err
	}

	if date.IsZero() {
		date, err = s.store.LatestReadingDate(fieldID)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d has no observations", ErrDataUnavailable, fieldID)
		}
	}

	readings, err := s.store.ReadingsForDate(fieldID, date)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: no readings for field %d on %s",
			ErrDataUnavailable, fieldID, date.Format(dateFormat))
	}

	batch := make([]model.Features, len(readings))
	for i, r := range readings {
		batch[i] = featuresFromReading(r)
	}
	predicted, err := predictor.PredictBatch(batch)
	if err != nil {
		return nil, err
	}

	predictions := make([]database.IrrigationPrediction, len(readings))
	for i, r := range readings {
		predictions[i] = s.nowcastRow(r, predicted[i])
	}
	if err := s.store.UpsertPredictions(predictions); err != nil {
		return nil, err
	}

	s.logger.Infow("nowcast batch persisted", "field_id", fieldID,
		"date", date.Format(dateFormat), "locations", len(predictions))
	return predictions, nil
}

// nowcastRow builds a Prediction derived from an observed reading
func (s *Service) nowcastRow(r database.SensorReading, predicted float64) database.IrrigationPrediction {
	rec := Recommend(predicted, s.cfg)
	observed := r.SoilHumidity
	return database.IrrigationPrediction{
		FieldID:           r.FieldID,
		Date:              r.Date,
		LocX:              r.LocX,
		LocY:              r.LocY,
		PredictedHumidity: predicted,
		CurrentHumidity:   &observed,
		RiskLevel:         string(rec.RiskLevel),
		Action:            string(rec.Action),
		RecommendedAmount: rec.RecommendedAmount,
		IsFuture:          false,
		ModelVersion:      s.ModelVersion(),
		UpdatedAt:         time.Now().UTC(),
	}
}

func featuresFromReading(r database.SensorReading) model.Features {
	return model.Features{
		SoilHumidity:        r.SoilHumidity,
		SoilTemperature:     r.SoilTemperature,
		Rain:                r.Rain,
		AirTemperature:      r.AirTemperature,
		IrrigationAmount:    r.IrrigationAmount,
		DaysSinceIrrigation: r.DaysSinceIrrigation,
		LocX:                r.LocX,
		LocY:                r.LocY,
	}
}
