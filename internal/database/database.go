package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"productapi/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// Dialector picks the GORM dialect for a connection string.
// "sqlite:<path>" and "file:<path>" select SQLite, anything else PostgreSQL.
func Dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, sqlitePrefix):
		return sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

// Open creates the database handle without contacting the server.
// Only a malformed connection string makes it fail; use Bootstrap to
// check that the server is reachable.
func Open(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(Dialector(dsn), &gorm.Config{
		DisableAutomaticPing: true,
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel(log.GetLevel()),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Ping verifies the database is reachable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Bootstrap checks connectivity and creates missing tables.
func Bootstrap(ctx context.Context, db *gorm.DB) error {
	if err := Ping(ctx, db); err != nil {
		return err
	}
	if err := db.WithContext(ctx).AutoMigrate(&models.Product{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogLevel(level logrus.Level) logger.LogLevel {
	switch {
	case level >= logrus.DebugLevel:
		return logger.Info
	case level >= logrus.WarnLevel:
		return logger.Warn
	default:
		return logger.Error
	}
}
