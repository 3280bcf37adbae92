package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// YAML-tagged mirror structs. Kept separate from ConfigData so the wire
// format can evolve without touching the internal representation.
type configYAML struct {
	Fields      []fieldYAML      `yaml:"fields"`
	Storage     storageYAML      `yaml:"storage,omitempty"`
	Model       modelYAML        `yaml:"model,omitempty"`
	Forecast    forecastYAML     `yaml:"forecast,omitempty"`
	Ingest      ingestYAML       `yaml:"ingest,omitempty"`
	Controllers []controllerYAML `yaml:"controllers,omitempty"`
}

type fieldYAML struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type storageYAML struct {
	Postgres *struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"postgres,omitempty"`
	SQLite *struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite,omitempty"`
}

type modelYAML struct {
	Path string `yaml:"path"`
}

type forecastYAML struct {
	DryThreshold        float64 `yaml:"dry_threshold,omitempty"`
	TargetHumidity      float64 `yaml:"target_humidity,omitempty"`
	MaxDailyAmount      float64 `yaml:"max_daily_amount,omitempty"`
	MaxSimulationDays   int     `yaml:"max_simulation_days,omitempty"`
	FallbackDecayPerDay float64 `yaml:"fallback_decay_per_day,omitempty"`
	FallbackFloor       float64 `yaml:"fallback_floor,omitempty"`
	ExtendDays          int     `yaml:"extend_days,omitempty"`
}

type ingestYAML struct {
	DataDir        string `yaml:"data_dir,omitempty"`
	MaxFillGapDays int    `yaml:"max_fill_gap_days,omitempty"`
}

type controllerYAML struct {
	Type       string `yaml:"type,omitempty"`
	RESTServer *struct {
		ListenAddr  string `yaml:"listen_addr,omitempty"`
		HTTPPort    int    `yaml:"http_port,omitempty"`
		TLSCertPath string `yaml:"cert,omitempty"`
		TLSKeyPath  string `yaml:"key,omitempty"`
	} `yaml:"rest,omitempty"`
	Scheduler *struct {
		CronSpec     string `yaml:"cron,omitempty"`
		SimulateDays int    `yaml:"simulate_days,omitempty"`
	} `yaml:"scheduler,omitempty"`
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yamlConfig configYAML
	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, fmt.Errorf("error parsing YAML config: %w", err)
	}

	config := &ConfigData{
		Fields:      make([]FieldData, len(yamlConfig.Fields)),
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	for i, f := range yamlConfig.Fields {
		config.Fields[i] = FieldData{ID: f.ID, Name: f.Name}
	}

	config.Storage = StorageData{}
	if yamlConfig.Storage.Postgres != nil {
		config.Storage.Postgres = &PostgresData{
			ConnectionString: yamlConfig.Storage.Postgres.ConnectionString,
		}
	}
	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path: yamlConfig.Storage.SQLite.Path,
		}
	}

	config.Model = ModelData{Path: yamlConfig.Model.Path}

	config.Forecast = ForecastData{
		DryThreshold:        yamlConfig.Forecast.DryThreshold,
		TargetHumidity:      yamlConfig.Forecast.TargetHumidity,
		MaxDailyAmount:      yamlConfig.Forecast.MaxDailyAmount,
		MaxSimulationDays:   yamlConfig.Forecast.MaxSimulationDays,
		FallbackDecayPerDay: yamlConfig.Forecast.FallbackDecayPerDay,
		FallbackFloor:       yamlConfig.Forecast.FallbackFloor,
		ExtendDays:          yamlConfig.Forecast.ExtendDays,
	}
	config.Forecast.ApplyDefaults()

	config.Ingest = IngestData{
		DataDir:        yamlConfig.Ingest.DataDir,
		MaxFillGapDays: yamlConfig.Ingest.MaxFillGapDays,
	}
	config.Ingest.ApplyDefaults()

	for i, c := range yamlConfig.Controllers {
		controller := ControllerData{Type: c.Type}
		if c.RESTServer != nil {
			controller.RESTServer = &RESTServerData{
				DefaultListenAddr: c.RESTServer.ListenAddr,
				HTTPPort:          c.RESTServer.HTTPPort,
				TLSCertPath:       c.RESTServer.TLSCertPath,
				TLSKeyPath:        c.RESTServer.TLSKeyPath,
			}
		}
		if c.Scheduler != nil {
			controller.Scheduler = &SchedulerData{
				CronSpec:     c.Scheduler.CronSpec,
				SimulateDays: c.Scheduler.SimulateDays,
			}
		}
		config.Controllers[i] = controller
	}

	y.config = config
	return config, nil
}

// IsReadOnly returns true since YAML files are read-only at runtime
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
