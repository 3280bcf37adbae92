package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agromesh/cottonwatch/internal/database"
)

// Expected layout of a sensor export directory, matching the data logger's
// delivery format.
const (
	humidityFile   = "CottonSensor/HumiditySensor.csv"
	temperatureF   = "CottonSensor/TemSensor.csv"
	weatherFile    = "Weather/Weather.csv"
	managementFile = "ManagementInfo.csv"
)

// Result summarizes one completed ingestion run
type Result struct {
	RunID    string
	Readings int
	Events   int
}

// Pipeline runs the batch ingestion job: parse, join, derive, and commit in
// one transaction. It is not resumable; a failure discards the whole run.
type Pipeline struct {
	store  *database.Client
	opts   JoinOptions
	logger *zap.SugaredLogger
}

// NewPipeline creates an ingestion pipeline over the given store
func NewPipeline(store *database.Client, opts JoinOptions, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

// Run ingests a sensor export directory for one field. When clear is set,
// the field's prior readings and events are replaced rather than merged.
func (p *Pipeline) Run(fieldID int, dataDir string, clear bool) (*Result, error) {
	exists, err := p.store.FieldExists(fieldID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("field %d is not registered", fieldID)
	}

	runID := uuid.NewString()
	p.logger.Infow("starting ingestion run", "run_id", runID, "field_id", fieldID, "data_dir", dataDir)

	humidity, err := p.parseSensorFile(dataDir, humidityFile, "soil_humidity(%)")
	if err != nil {
		return nil, fmt.Errorf("humidity stream: %w", err)
	}
	temperature, err := p.parseSensorFile(dataDir, temperatureF, "soil_temperature(°C)")
	if err != nil {
		return nil, fmt.Errorf("temperature stream: %w", err)
	}

	weatherF, err := os.Open(filepath.Join(dataDir, weatherFile))
	if err != nil {
		return nil, fmt.Errorf("error opening weather file: %w", err)
	}
	weather, err := ParseWeatherCSV(weatherF)
	weatherF.Close()
	if err != nil {
		return nil, fmt.Errorf("weather stream: %w", err)
	}

	mgmtF, err := os.Open(filepath.Join(dataDir, managementFile))
	if err != nil {
		return nil, fmt.Errorf("error opening management file: %w", err)
	}
	irrigation, err := ParseIrrigationCSV(mgmtF)
	mgmtF.Close()
	if err != nil {
		return nil, fmt.Errorf("irrigation stream: %w", err)
	}

	records, err := BuildDailyDataset(humidity, temperature, weather, irrigation, p.opts)
	if err != nil {
		return nil, err
	}
	DeriveDaysSince(records, irrigation)

	now := time.Now().UTC()
	readings := make([]database.SensorReading, len(records))
	for i, r := range records {
		readings[i] = database.SensorReading{
			FieldID:             fieldID,
			Date:                r.Date,
			LocX:                r.LocX,
			LocY:                r.LocY,
			SoilHumidity:        r.SoilHumidity,
			SoilTemperature:     r.SoilTemperature,
			Rain:                r.Rain,
			AirTemperature:      r.AirTemperature,
			IrrigationAmount:    r.IrrigationAmount,
			DaysSinceIrrigation: r.DaysSinceIrrigation,
			IngestRunID:         runID,
			CreatedAt:           now,
		}
	}

	var events []database.IrrigationEvent
	for date, amount := range irrigation {
		if amount > 0 {
			events = append(events, database.IrrigationEvent{
				FieldID:   fieldID,
				Date:      date,
				Amount:    amount,
				Notes:     "imported from sensor export",
				CreatedAt: now,
			})
		}
	}

	if err := p.store.ReplaceFieldData(fieldID, clear, readings, events); err != nil {
		return nil, fmt.Errorf("error committing ingestion run: %w", err)
	}

	p.logger.Infow("ingestion run committed",
		"run_id", runID, "readings", len(readings), "events", len(events))

	return &Result{RunID: runID, Readings: len(readings), Events: len(events)}, nil
}

func (p *Pipeline) parseSensorFile(dataDir, name, valueColumn string) (map[DailyKey]float64, error) {
	f, err := os.Open(filepath.Join(dataDir, name))
	if err != nil {
		return nil, fmt.Errorf("error opening sensor file: %w", err)
	}
	defer f.Close()
	return ParseSensorCSV(f, valueColumn)
}
