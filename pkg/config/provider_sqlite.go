package config

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" database/sql driver. The gorm storage backend
	// rides the same registrar, so each binary links it exactly once.
	_ "github.com/glebarez/go-sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	fields, err := s.getFields()
	if err != nil {
		return nil, fmt.Errorf("failed to load fields: %w", err)
	}
	config.Fields = fields

	if err := s.loadSettings(config); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	controllers, err := s.getControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	config.Forecast.ApplyDefaults()
	config.Ingest.ApplyDefaults()

	return config, nil
}

func (s *SQLiteProvider) getFields() ([]FieldData, error) {
	rows, err := s.db.Query(`SELECT id, name FROM fields ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	var fields []FieldData
	for rows.Next() {
		var f FieldData
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("failed to scan field row: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// loadSettings reads scalar configuration from the key/value settings table
func (s *SQLiteProvider) loadSettings(config *ConfigData) error {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("failed to scan setting row: %w", err)
		}
		settings[k] = v
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if dsn, ok := settings["storage.postgres.connection_string"]; ok && dsn != "" {
		config.Storage.Postgres = &PostgresData{ConnectionString: dsn}
	}
	if path, ok := settings["storage.sqlite.path"]; ok && path != "" {
		config.Storage.SQLite = &SQLiteData{Path: path}
	}
	config.Model.Path = settings["model.path"]
	config.Ingest.DataDir = settings["ingest.data_dir"]

	scanFloat := func(key string, dst *float64) {
		if v, ok := settings[key]; ok {
			fmt.Sscanf(v, "%f", dst)
		}
	}
	scanInt := func(key string, dst *int) {
		if v, ok := settings[key]; ok {
			fmt.Sscanf(v, "%d", dst)
		}
	}

	scanFloat("forecast.dry_threshold", &config.Forecast.DryThreshold)
	scanFloat("forecast.target_humidity", &config.Forecast.TargetHumidity)
	scanFloat("forecast.max_daily_amount", &config.Forecast.MaxDailyAmount)
	scanFloat("forecast.fallback_decay_per_day", &config.Forecast.FallbackDecayPerDay)
	scanFloat("forecast.fallback_floor", &config.Forecast.FallbackFloor)
	scanInt("forecast.max_simulation_days", &config.Forecast.MaxSimulationDays)
	scanInt("forecast.extend_days", &config.Forecast.ExtendDays)
	scanInt("ingest.max_fill_gap_days", &config.Ingest.MaxFillGapDays)

	return nil
}

func (s *SQLiteProvider) getControllers() ([]ControllerData, error) {
	query := `
		SELECT type, listen_addr, http_port, cert, key, cron, simulate_days
		FROM controllers
		ORDER BY type
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var c ControllerData
		var listenAddr, cert, key, cronSpec sql.NullString
		var httpPort, simulateDays sql.NullInt64

		err := rows.Scan(&c.Type, &listenAddr, &httpPort, &cert, &key, &cronSpec, &simulateDays)
		if err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		switch c.Type {
		case "rest":
			rest := &RESTServerData{}
			if listenAddr.Valid {
				rest.DefaultListenAddr = listenAddr.String
			}
			if httpPort.Valid {
				rest.HTTPPort = int(httpPort.Int64)
			}
			if cert.Valid {
				rest.TLSCertPath = cert.String
			}
			if key.Valid {
				rest.TLSKeyPath = key.String
			}
			c.RESTServer = rest
		case "scheduler":
			sched := &SchedulerData{}
			if cronSpec.Valid {
				sched.CronSpec = cronSpec.String
			}
			if simulateDays.Valid {
				sched.SimulateDays = int(simulateDays.Int64)
			}
			c.Scheduler = sched
		}

		controllers = append(controllers, c)
	}
	return controllers, rows.Err()
}

// IsReadOnly returns false since SQLite configuration can be updated
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
