package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
fields:
  - id: 1
    name: north-plot
  - id: 2
    name: south-plot
storage:
  sqlite:
    path: /var/lib/cottonwatch/data.db
model:
  path: /etc/cottonwatch/humidity.model
forecast:
  dry_threshold: 28.0
ingest:
  data_dir: /srv/exports
controllers:
  - type: rest
    rest:
      listen_addr: 127.0.0.1
      http_port: 8080
  - type: scheduler
    scheduler:
      cron: "15 3 * * *"
      simulate_days: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	provider := NewYAMLProvider(writeConfig(t, sampleYAML))
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Fields) != 2 {
		t.Fatalf("got %d fields, expected 2", len(cfg.Fields))
	}
	if cfg.Fields[0].ID != 1 || cfg.Fields[0].Name != "north-plot" {
		t.Errorf("field 0: %+v", cfg.Fields[0])
	}

	if cfg.Storage.SQLite == nil || cfg.Storage.SQLite.Path != "/var/lib/cottonwatch/data.db" {
		t.Errorf("sqlite storage: %+v", cfg.Storage.SQLite)
	}
	if cfg.Storage.Postgres != nil {
		t.Error("postgres storage should be unset")
	}

	if cfg.Model.Path != "/etc/cottonwatch/humidity.model" {
		t.Errorf("model path: got %q", cfg.Model.Path)
	}
	if cfg.Ingest.DataDir != "/srv/exports" {
		t.Errorf("data dir: got %q", cfg.Ingest.DataDir)
	}

	if len(cfg.Controllers) != 2 {
		t.Fatalf("got %d controllers, expected 2", len(cfg.Controllers))
	}
	rest := cfg.Controllers[0]
	if rest.Type != "rest" || rest.RESTServer == nil || rest.RESTServer.HTTPPort != 8080 {
		t.Errorf("rest controller: %+v", rest)
	}
	sched := cfg.Controllers[1]
	if sched.Type != "scheduler" || sched.Scheduler == nil || sched.Scheduler.CronSpec != "15 3 * * *" {
		t.Errorf("scheduler controller: %+v", sched)
	}
	if sched.Scheduler.SimulateDays != 10 {
		t.Errorf("simulate days: got %d", sched.Scheduler.SimulateDays)
	}

	if !provider.IsReadOnly() {
		t.Error("YAML provider must be read-only")
	}
}

// Unset tunables pick up the fitted defaults; explicitly set ones survive.
func TestYAMLProviderDefaults(t *testing.T) {
	provider := NewYAMLProvider(writeConfig(t, sampleYAML))
	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Forecast.DryThreshold != 28.0 {
		t.Errorf("explicit dry threshold overridden: got %v", cfg.Forecast.DryThreshold)
	}
	if cfg.Forecast.TargetHumidity != DefaultTargetHumidity {
		t.Errorf("target humidity default: got %v", cfg.Forecast.TargetHumidity)
	}
	if cfg.Forecast.MaxDailyAmount != DefaultMaxDailyAmount {
		t.Errorf("max daily amount default: got %v", cfg.Forecast.MaxDailyAmount)
	}
	if cfg.Forecast.MaxSimulationDays != DefaultMaxSimulationDays {
		t.Errorf("max simulation days default: got %v", cfg.Forecast.MaxSimulationDays)
	}
	if cfg.Ingest.MaxFillGapDays != DefaultMaxFillGapDays {
		t.Errorf("max fill gap default: got %v", cfg.Ingest.MaxFillGapDays)
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	provider := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := provider.LoadConfig(); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestYAMLProviderMalformed(t *testing.T) {
	provider := NewYAMLProvider(writeConfig(t, "fields: {not: [valid"))
	if _, err := provider.LoadConfig(); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}
