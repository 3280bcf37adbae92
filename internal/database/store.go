package database

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoReadings indicates that the store holds no sensor readings for the
// requested scope.
var ErrNoReadings = errors.New("no sensor readings for field")

// DateSummaryRow is one aggregate row of the per-date prediction summary
type DateSummaryRow struct {
	Date          time.Time `gorm:"column:date"`
	AvgPredicted  float64   `gorm:"column:avg_predicted"`
	HighRiskCount int       `gorm:"column:high_risk_count"`
	LocationCount int       `gorm:"column:location_count"`
}

// FieldExists reports whether a field with the given ID is registered
func (c *Client) FieldExists(fieldID int) (bool, error) {
	var count int64
	if err := c.DB.Model(&Field{}).Where("id = ?", fieldID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking field existence: %w", err)
	}
	return count > 0, nil
}

// UpsertField registers a field, updating the name if it already exists
func (c *Client) UpsertField(field Field) error {
	return c.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&field).Error
}

// ReplaceFieldData atomically commits one ingestion run. When clear is set,
// prior readings and events for the field are removed first. A failure at
// any point rolls the whole run back; no partial join is ever committed.
func (c *Client) ReplaceFieldData(fieldID int, clear bool, readings []SensorReading, events []IrrigationEvent) error {
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if clear {
			if err := tx.Where("field_id = ?", fieldID).Delete(&SensorReading{}).Error; err != nil {
				return fmt.Errorf("error clearing readings: %w", err)
			}
			if err := tx.Where("field_id = ?", fieldID).Delete(&IrrigationEvent{}).Error; err != nil {
				return fmt.Errorf("error clearing irrigation events: %w", err)
			}
		}

		if len(readings) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "field_id"}, {Name: "date"}, {Name: "loc_x"}, {Name: "loc_y"},
				},
				DoUpdates: clause.AssignmentColumns([]string{
					"soil_humidity", "soil_temperature", "rain", "air_temperature",
					"irrigation_amount", "days_since_irrigation", "ingest_run_id",
				}),
			}).CreateInBatches(readings, 500).Error; err != nil {
				return fmt.Errorf("error inserting readings: %w", err)
			}
		}

		if len(events) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "field_id"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"amount", "notes"}),
			}).CreateInBatches(events, 500).Error; err != nil {
				return fmt.Errorf("error inserting irrigation events: %w", err)
			}
		}

		return nil
	})
}

// ReadingsForDate returns all locations' readings for one field and date
func (c *Client) ReadingsForDate(fieldID int, date time.Time) ([]SensorReading, error) {
	var readings []SensorReading
	err := c.DB.Where("field_id = ? AND date = ?", fieldID, date).
		Order("loc_x, loc_y").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("error querying readings for date: %w", err)
	}
	return readings, nil
}

// Reading returns the single reading for a location/date key, or
// gorm.ErrRecordNotFound
func (c *Client) Reading(fieldID int, date time.Time, locX, locY float64) (*SensorReading, error) {
	var reading SensorReading
	err := c.DB.Where("field_id = ? AND date = ? AND loc_x = ? AND loc_y = ?",
		fieldID, date, locX, locY).First(&reading).Error
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// ReadingsForLocation returns one location's readings ordered by date.
// Zero-valued bounds are open.
func (c *Client) ReadingsForLocation(fieldID int, locX, locY float64, from, to time.Time) ([]SensorReading, error) {
	q := c.DB.Where("field_id = ? AND loc_x = ? AND loc_y = ?", fieldID, locX, locY)
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", to)
	}

	var readings []SensorReading
	if err := q.Order("date").Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("error querying location readings: %w", err)
	}
	return readings, nil
}

// LatestReadingDate returns the most recent fully-observed date for a field,
// or ErrNoReadings when the field has no data
func (c *Client) LatestReadingDate(fieldID int) (time.Time, error) {
	var reading SensorReading
	err := c.DB.Where("field_id = ?", fieldID).
		Order("date DESC").
		First(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, ErrNoReadings
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("error querying latest reading date: %w", err)
	}
	return reading.Date, nil
}

// UpsertPredictions writes a batch of predictions, overwriting earlier
// computations for the same (field_id, date, loc_x, loc_y) key
func (c *Client) UpsertPredictions(predictions []IrrigationPrediction) error {
	if len(predictions) == 0 {
		return nil
	}
	err := c.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "field_id"}, {Name: "date"}, {Name: "loc_x"}, {Name: "loc_y"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"predicted_humidity", "current_humidity", "risk_level", "action",
			"recommended_amount", "is_future", "model_version", "updated_at",
		}),
	}).CreateInBatches(predictions, 500).Error
	if err != nil {
		return fmt.Errorf("error upserting predictions: %w", err)
	}
	return nil
}

// PredictionsForDate returns all locations' predictions for one field and date
func (c *Client) PredictionsForDate(fieldID int, date time.Time) ([]IrrigationPrediction, error) {
	var predictions []IrrigationPrediction
	err := c.DB.Where("field_id = ? AND date = ?", fieldID, date).
		Order("loc_x, loc_y").
		Find(&predictions).Error
	if err != nil {
		return nil, fmt.Errorf("error querying predictions for date: %w", err)
	}
	return predictions, nil
}

// PredictionsForLocation returns one location's predictions ordered by date.
// Zero-valued bounds are open.
func (c *Client) PredictionsForLocation(fieldID int, locX, locY float64, from, to time.Time) ([]IrrigationPrediction, error) {
	q := c.DB.Where("field_id = ? AND loc_x = ? AND loc_y = ?", fieldID, locX, locY)
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", to)
	}

	var predictions []IrrigationPrediction
	if err := q.Order("date").Find(&predictions).Error; err != nil {
		return nil, fmt.Errorf("error querying location predictions: %w", err)
	}
	return predictions, nil
}

// DateSummary aggregates predictions per date: mean predicted humidity,
// count of high-risk locations, and total location count
func (c *Client) DateSummary(fieldID int) ([]DateSummaryRow, error) {
	var rows []DateSummaryRow
	err := c.DB.Model(&IrrigationPrediction{}).
		Select("date, AVG(predicted_humidity) AS avg_predicted, "+
			"SUM(CASE WHEN risk_level = 'high' THEN 1 ELSE 0 END) AS high_risk_count, "+
			"COUNT(*) AS location_count").
		Where("field_id = ?", fieldID).
		Group("date").
		Order("date").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error aggregating date summary: %w", err)
	}
	return rows, nil
}

// AvailableDates returns the sorted union of reading and prediction dates
// for a field
func (c *Client) AvailableDates(fieldID int) ([]time.Time, error) {
	var readingDates, predictionDates []time.Time

	err := c.DB.Model(&SensorReading{}).
		Where("field_id = ?", fieldID).
		Distinct("date").
		Order("date").
		Pluck("date", &readingDates).Error
	if err != nil {
		return nil, fmt.Errorf("error querying reading dates: %w", err)
	}

	err = c.DB.Model(&IrrigationPrediction{}).
		Where("field_id = ?", fieldID).
		Distinct("date").
		Order("date").
		Pluck("date", &predictionDates).Error
	if err != nil {
		return nil, fmt.Errorf("error querying prediction dates: %w", err)
	}

	seen := make(map[time.Time]bool, len(readingDates)+len(predictionDates))
	var dates []time.Time
	for _, d := range readingDates {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	for _, d := range predictionDates {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates, nil
}
