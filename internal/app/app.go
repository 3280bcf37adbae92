package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/agromesh/cottonwatch/internal/database"
	"github.com/agromesh/cottonwatch/internal/forecast"
	"github.com/agromesh/cottonwatch/internal/log"
	"github.com/agromesh/cottonwatch/internal/managers"
	"github.com/agromesh/cottonwatch/internal/model"
	"github.com/agromesh/cottonwatch/pkg/config"
)

// Options are the daemon's startup flags
type Options struct {
	ConfigPath    string
	ConfigBackend string
	Debug         bool
}

// LoadConfig opens the requested config backend, loads the full
// configuration and fills in defaults
func LoadConfig(opts Options) (*config.ConfigData, error) {
	provider, err := newConfigProvider(opts)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %v", err)
	}
	cfg.Forecast.ApplyDefaults()
	cfg.Ingest.ApplyDefaults()
	return cfg, nil
}

func newConfigProvider(opts Options) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(opts.ConfigPath)

	switch opts.ConfigBackend {
	case "", "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error opening sqlite config: %v", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown config backend: %v (expected yaml or sqlite)", opts.ConfigBackend)
	}
}

// Run starts the daemon and blocks until a shutdown signal arrives and all
// controllers have wound down
func Run(opts Options) error {
	var wg sync.WaitGroup

	logger := log.GetSugaredLogger()

	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	done := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := database.NewClient(cfg.Storage, logger)
	if err := db.Connect(); err != nil {
		return fmt.Errorf("could not connect to database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("could not migrate database: %v", err)
	}

	// Known fields come from config so that ingestion and prediction agree
	// on field identity
	for _, f := range cfg.Fields {
		if err := db.UpsertField(database.Field{ID: f.ID, Name: f.Name}); err != nil {
			return fmt.Errorf("could not register field %v: %v", f.ID, err)
		}
	}

	// A missing model artifact is not fatal. The daemon still serves
	// historical data; prediction endpoints report the model as
	// unavailable until an artifact is installed.
	predictor, err := model.Load(cfg.Model.Path)
	if err != nil {
		if errors.Is(err, model.ErrUnavailable) {
			logger.Warnf("prediction model not available at %v; forecast endpoints disabled", cfg.Model.Path)
			predictor = nil
		} else {
			return fmt.Errorf("could not load model artifact: %v", err)
		}
	} else {
		logger.Infof("loaded prediction model version %v", predictor.Version())
	}

	service := forecast.NewService(db, predictor, cfg.Forecast, logger)

	cm, err := managers.NewControllerManager(ctx, &wg, cfg, service, db, logger)
	if err != nil {
		return fmt.Errorf("could not create controller manager: %v", err)
	}
	if err := cm.StartControllers(); err != nil {
		return fmt.Errorf("could not start controllers: %v", err)
	}

	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func(cancel context.CancelFunc) {
		// A SIGINT or SIGTERM cancels the context and unblocks 'done' to
		// trigger a graceful shutdown
		<-sigs
		logger.Info("shutdown signal received, initiating graceful shutdown...")
		cancel()
		close(done)
	}(cancel)

	<-done

	logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	logger.Info("shutdown complete")

	return nil
}
