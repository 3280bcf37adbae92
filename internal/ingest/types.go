// Package ingest builds the daily per-location dataset: it parses raw
// timestamped sensor exports, aggregates them to one value per day and
// location, joins the date-keyed weather and irrigation series onto every
// location, and derives the causal days-since-irrigation feature.
package ingest

import (
	"errors"
	"math"
	"time"
)

// ErrNoRows indicates a sensor stream yielded zero parseable rows. The
// pipeline reports it as "insufficient data"; it never aborts the process.
var ErrNoRows = errors.New("no parseable rows in sensor stream")

// NoPriorIrrigation is the days_since_irrigation sentinel for dates with no
// irrigation event anywhere before them in the ingestion window
const NoPriorIrrigation = -1

// Location is a rounded coordinate pair acting as the spatial join key for
// one sensed plot
type Location struct {
	X float64
	Y float64
}

// DailyKey identifies one aggregated sample: a calendar date and a location
type DailyKey struct {
	Date time.Time
	Loc  Location
}

// WeatherDay is the date-keyed weather record broadcast to all locations
type WeatherDay struct {
	Rain           float64
	AirTemperature float64
}

// DailyRecord is one joined row of the base dataset: all Reading fields for
// a single (date, location) key
type DailyRecord struct {
	Date                time.Time
	LocX                float64
	LocY                float64
	SoilHumidity        float64
	SoilTemperature     float64
	Rain                float64
	AirTemperature      float64
	IrrigationAmount    float64
	DaysSinceIrrigation int
}

// RoundCoord normalizes a raw sensor coordinate to the 4-decimal join
// precision, absorbing floating-point jitter between readings of the same
// plot
func RoundCoord(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// DateOnly truncates a timestamp to its UTC calendar date
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
