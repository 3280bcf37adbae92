package database

import (
	"time"
)

// Field represents one managed field whose sensor locations are forecast
type Field struct {
	ID   int    `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name;not null"`
}

// TableName specifies the table name for Field
func (Field) TableName() string {
	return "fields"
}

// SensorReading is one daily per-location observation produced by the
// ingestion pipeline. (field_id, date, loc_x, loc_y) is the unique key;
// re-ingestion of the same key supersedes the row.
type SensorReading struct {
	ID      uint      `gorm:"primaryKey;autoIncrement;column:id"`
	FieldID int       `gorm:"column:field_id;not null;uniqueIndex:idx_reading_key"`
	Date    time.Time `gorm:"column:date;not null;uniqueIndex:idx_reading_key"`
	LocX    float64   `gorm:"column:loc_x;not null;uniqueIndex:idx_reading_key"`
	LocY    float64   `gorm:"column:loc_y;not null;uniqueIndex:idx_reading_key"`

	SoilHumidity        float64 `gorm:"column:soil_humidity"`
	SoilTemperature     float64 `gorm:"column:soil_temperature"`
	Rain                float64 `gorm:"column:rain"`
	AirTemperature      float64 `gorm:"column:air_temperature"`
	IrrigationAmount    float64 `gorm:"column:irrigation_amount"`
	DaysSinceIrrigation int     `gorm:"column:days_since_irrigation"`

	IngestRunID string    `gorm:"column:ingest_run_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for SensorReading
func (SensorReading) TableName() string {
	return "sensor_readings"
}

// IrrigationEvent is an actual application of water, aggregated to one
// row per (field_id, date). Events are field-wide; they carry no location.
type IrrigationEvent struct {
	ID      uint      `gorm:"primaryKey;autoIncrement;column:id"`
	FieldID int       `gorm:"column:field_id;not null;uniqueIndex:idx_event_key"`
	Date    time.Time `gorm:"column:date;not null;uniqueIndex:idx_event_key"`
	Amount  float64   `gorm:"column:amount"`
	Notes   string    `gorm:"column:notes"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for IrrigationEvent
func (IrrigationEvent) TableName() string {
	return "irrigation_events"
}

// IrrigationPrediction is one forecast for a location/date. Nowcasts carry
// the observed humidity in CurrentHumidity; pure-future rows leave it nil.
// Later computations overwrite earlier ones for the same key.
type IrrigationPrediction struct {
	ID      uint      `gorm:"primaryKey;autoIncrement;column:id"`
	FieldID int       `gorm:"column:field_id;not null;uniqueIndex:idx_prediction_key"`
	Date    time.Time `gorm:"column:date;not null;uniqueIndex:idx_prediction_key"`
	LocX    float64   `gorm:"column:loc_x;not null;uniqueIndex:idx_prediction_key"`
	LocY    float64   `gorm:"column:loc_y;not null;uniqueIndex:idx_prediction_key"`

	PredictedHumidity float64  `gorm:"column:predicted_humidity"`
	CurrentHumidity   *float64 `gorm:"column:current_humidity"`
	RiskLevel         string   `gorm:"column:risk_level"`
	Action            string   `gorm:"column:action"`
	RecommendedAmount float64  `gorm:"column:recommended_amount"`
	IsFuture          bool     `gorm:"column:is_future"`

	ModelVersion string    `gorm:"column:model_version"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for IrrigationPrediction
func (IrrigationPrediction) TableName() string {
	return "irrigation_predictions"
}
