// Package database persists analysis results to a relational store via
// GORM, with SQLite and TimescaleDB backends.
package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hveclab/tidego/internal/log"
	"github.com/hveclab/tidego/pkg/config"
)

// Client holds the connection to the results database
type Client struct {
	config *config.StorageData
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(c *config.StorageData, logger *zap.SugaredLogger) *Client {
	return &Client{
		config: c,
		logger: logger,
	}
}

// Connect opens the configured backend. TimescaleDB wins when both are
// configured; SQLite is the lightweight default.
func (c *Client) Connect() error {
	gormConfig := &gorm.Config{
		Logger: gormlogger.New(
			zap.NewStdLog(log.GetZapLogger()),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: false,
			},
		),
	}

	var err error
	switch {
	case c.config.TimescaleDB != nil && c.config.TimescaleDB.ConnectionString != "":
		c.logger.Info("connecting to TimescaleDB...")
		c.DB, err = gorm.Open(postgres.Open(c.config.TimescaleDB.ConnectionString), gormConfig)
	case c.config.SQLite != nil && c.config.SQLite.Path != "":
		c.logger.Infof("opening SQLite results store %s", c.config.SQLite.Path)
		c.DB, err = gorm.Open(sqlite.Open(c.config.SQLite.Path), gormConfig)
	default:
		return fmt.Errorf("no storage backend configured")
	}
	if err != nil {
		return fmt.Errorf("unable to open results store: %w", err)
	}

	return nil
}

// Migrate creates or updates the result tables.
func (c *Client) Migrate() error {
	return c.DB.AutoMigrate(&ConstituentRow{}, &SeriesRow{})
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
