package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Configuration management (for backend-specific cleanup)
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Fields      []FieldData      `json:"fields"`
	Storage     StorageData      `json:"storage,omitempty"`
	Model       ModelData        `json:"model,omitempty"`
	Forecast    ForecastData     `json:"forecast,omitempty"`
	Ingest      IngestData       `json:"ingest,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// FieldData identifies one managed field whose sensor locations are
// ingested, predicted and simulated
type FieldData struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// StorageData holds the configuration for the reading/prediction store.
// Exactly one backend should be configured.
type StorageData struct {
	Postgres *PostgresData `json:"postgres,omitempty"`
	SQLite   *SQLiteData   `json:"sqlite,omitempty"`
}

type PostgresData struct {
	ConnectionString string `json:"connection_string"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

// ModelData locates the fitted regression artifact
type ModelData struct {
	Path string `json:"path"`
}

// ForecastData holds the recommendation and simulation tunables
type ForecastData struct {
	DryThreshold        float64 `json:"dry_threshold,omitempty"`
	TargetHumidity      float64 `json:"target_humidity,omitempty"`
	MaxDailyAmount      float64 `json:"max_daily_amount,omitempty"`
	MaxSimulationDays   int     `json:"max_simulation_days,omitempty"`
	FallbackDecayPerDay float64 `json:"fallback_decay_per_day,omitempty"`
	FallbackFloor       float64 `json:"fallback_floor,omitempty"`
	ExtendDays          int     `json:"extend_days,omitempty"`
}

// IngestData holds the batch ingestion settings
type IngestData struct {
	DataDir        string `json:"data_dir,omitempty"`
	MaxFillGapDays int    `json:"max_fill_gap_days,omitempty"`
}

// ControllerData holds the configuration for the outbound controllers
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
	Scheduler  *SchedulerData  `json:"scheduler,omitempty"`
}

type RESTServerData struct {
	DefaultListenAddr string `json:"listen_addr,omitempty"`
	HTTPPort          int    `json:"http_port,omitempty"`
	TLSCertPath       string `json:"cert,omitempty"`
	TLSKeyPath        string `json:"key,omitempty"`
}

type SchedulerData struct {
	CronSpec     string `json:"cron,omitempty"`
	SimulateDays int    `json:"simulate_days,omitempty"`
}

// Forecast defaults match the fitted model's training configuration.
const (
	DefaultDryThreshold        = 30.0
	DefaultTargetHumidity      = 35.0
	DefaultMaxDailyAmount      = 40.0
	DefaultMaxSimulationDays   = 30
	DefaultFallbackDecayPerDay = 0.5
	DefaultFallbackFloor       = 5.0
	DefaultExtendDays          = 7
	DefaultMaxFillGapDays      = 5
)

// ApplyForecastDefaults fills zero-valued forecast tunables with defaults
func (f *ForecastData) ApplyDefaults() {
	if f.DryThreshold == 0 {
		f.DryThreshold = DefaultDryThreshold
	}
	if f.TargetHumidity == 0 {
		f.TargetHumidity = DefaultTargetHumidity
	}
	if f.MaxDailyAmount == 0 {
		f.MaxDailyAmount = DefaultMaxDailyAmount
	}
	if f.MaxSimulationDays == 0 {
		f.MaxSimulationDays = DefaultMaxSimulationDays
	}
	if f.FallbackDecayPerDay == 0 {
		f.FallbackDecayPerDay = DefaultFallbackDecayPerDay
	}
	if f.FallbackFloor == 0 {
		f.FallbackFloor = DefaultFallbackFloor
	}
	if f.ExtendDays == 0 {
		f.ExtendDays = DefaultExtendDays
	}
}

// ApplyDefaults fills zero-valued ingest settings with defaults
func (i *IngestData) ApplyDefaults() {
	if i.MaxFillGapDays == 0 {
		i.MaxFillGapDays = DefaultMaxFillGapDays
	}
}
