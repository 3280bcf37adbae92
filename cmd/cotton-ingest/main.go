package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/agromesh/cottonwatch/internal/app"
	"github.com/agromesh/cottonwatch/internal/database"
	"github.com/agromesh/cottonwatch/internal/ingest"
	"github.com/agromesh/cottonwatch/internal/log"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to config file (default: ./config.yaml)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend: yaml or sqlite")
	fieldID := flag.Int("field-id", 0, "ID of the field to ingest data for")
	dataDir := flag.String("data-dir", "", "Directory holding the field's CSV exports (default: ingest.data_dir from config)")
	clear := flag.Bool("clear-existing", false, "Delete the field's existing readings and events before loading")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger := log.GetSugaredLogger()

	if *fieldID == 0 {
		log.Errorf("the -field-id flag is required")
		os.Exit(1)
	}

	cfg, err := app.LoadConfig(app.Options{ConfigPath: *cfgFile, ConfigBackend: *cfgBackend, Debug: *debug})
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	dir := *dataDir
	if dir == "" {
		dir = cfg.Ingest.DataDir
	}
	if dir == "" {
		log.Errorf("no data directory: pass -data-dir or set ingest.data_dir in config")
		os.Exit(1)
	}

	db := database.NewClient(cfg.Storage, logger)
	if err := db.Connect(); err != nil {
		log.Errorf("could not connect to database: %v", err)
		os.Exit(1)
	}
	if err := db.Migrate(); err != nil {
		log.Errorf("could not migrate database: %v", err)
		os.Exit(1)
	}

	for _, f := range cfg.Fields {
		if f.ID == *fieldID {
			if err := db.UpsertField(database.Field{ID: f.ID, Name: f.Name}); err != nil {
				log.Errorf("could not register field %v: %v", f.ID, err)
				os.Exit(1)
			}
		}
	}

	pipeline := ingest.NewPipeline(db, ingest.JoinOptions{MaxFillGapDays: cfg.Ingest.MaxFillGapDays}, logger)
	result, err := pipeline.Run(*fieldID, dir, *clear)
	if err != nil {
		log.Errorf("ingestion failed: %v", err)
		os.Exit(1)
	}

	log.Infof("ingestion run %v complete: %v readings, %v irrigation events", result.RunID, result.Readings, result.Events)
}
