package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agromesh/cottonwatch/internal/log"
	"github.com/agromesh/cottonwatch/pkg/config"
	"go.uber.org/zap"
)

// Client holds the connection to the reading/prediction store
type Client struct {
	storage config.StorageData
	DB      *gorm.DB // Exported so it can be accessed from other packages
	logger  *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(storage config.StorageData, logger *zap.SugaredLogger) *Client {
	return &Client{
		storage: storage,
		logger:  logger,
	}
}

// Connect opens the configured storage backend
func (c *Client) Connect() error {
	gormConfig := &gorm.Config{Logger: newGormLogger()}

	var err error
	switch {
	case c.storage.Postgres != nil && c.storage.Postgres.ConnectionString != "":
		log.Info("connecting to PostgreSQL...")
		c.DB, err = gorm.Open(postgres.Open(c.storage.Postgres.ConnectionString), gormConfig)
	case c.storage.SQLite != nil && c.storage.SQLite.Path != "":
		log.Infof("opening SQLite store at %s...", c.storage.SQLite.Path)
		c.DB, err = gorm.Open(sqlite.Open(c.storage.SQLite.Path), gormConfig)
	default:
		return fmt.Errorf("no storage backend configured")
	}
	if err != nil {
		log.Warn("warning: unable to open the reading store:", err)
		return err
	}
	log.Info("reading store connection successful")

	return nil
}

// Migrate creates or updates the schema for all persisted models
func (c *Client) Migrate() error {
	return c.DB.AutoMigrate(
		&Field{},
		&SensorReading{},
		&IrrigationEvent{},
		&IrrigationPrediction{},
	)
}

// Health reports whether the underlying connection answers a ping
func (c *Client) Health() error {
	if c.DB == nil {
		return fmt.Errorf("store not connected")
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func newGormLogger() logger.Interface {
	return logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
