// Package model implements the predictive model interface: a fitted
// regression artifact mapping a fixed feature vector to the following
// day's soil humidity. The engine never mutates a loaded model; one
// instance is shared by all callers.
package model

import "errors"

var (
	// ErrUnavailable indicates that no model artifact could be loaded.
	// Prediction and simulation must fail fast on this; results are never
	// defaulted to a guess.
	ErrUnavailable = errors.New("model artifact unavailable")

	// ErrFeatureMismatch indicates the artifact was fitted against a
	// different feature contract than this engine speaks
	ErrFeatureMismatch = errors.New("model feature contract mismatch")

	// ErrSchemaVersion indicates an unsupported artifact schema version
	ErrSchemaVersion = errors.New("unsupported model artifact schema version")
)

// FeatureNames is the fixed, ordered feature contract. An artifact whose
// feature list differs is refused at load time.
var FeatureNames = []string{
	"soil_humidity",
	"soil_temperature",
	"rain",
	"air_temperature",
	"irrigation_amount",
	"days_since_irrigation",
	"loc_x",
	"loc_y",
}

// NumFeatures is the width of the feature vector
const NumFeatures = 8

// Features is one scoring input row
type Features struct {
	SoilHumidity        float64
	SoilTemperature     float64
	Rain                float64
	AirTemperature      float64
	IrrigationAmount    float64
	DaysSinceIrrigation int
	LocX                float64
	LocY                float64
}

// Vector returns the features in contract order
func (f Features) Vector() []float64 {
	return []float64{
		f.SoilHumidity,
		f.SoilTemperature,
		f.Rain,
		f.AirTemperature,
		f.IrrigationAmount,
		float64(f.DaysSinceIrrigation),
		f.LocX,
		f.LocY,
	}
}

// Predictor scores feature vectors against the fitted model. Implementations
// must be safe for concurrent use and stateless per call.
type Predictor interface {
	// Predict returns the predicted next-day soil humidity for one row
	Predict(f Features) (float64, error)

	// PredictBatch scores one row per location without per-row overhead
	PredictBatch(batch []Features) ([]float64, error)

	// Version identifies the fitted artifact in use
	Version() string
}
