package db

import (
	"fmt"  // Error wrapping
	"time" // Pool lifetimes

	"quotation_system/internal/config" // Application configuration

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/postgres"    // PostgreSQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger
)

// Open connects to the configured database and sets up the connection pool
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector // Driver chosen by DB_DRIVER
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gormLogger := logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             time.Second, // Log queries slower than this
		LogLevel:                  logger.Warn, // Only warnings and errors
		IgnoreRecordNotFoundError: true,        // Not-found is a normal outcome
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger, // Route GORM logs through logrus
		TranslateError: true,       // Map unique violations to gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB() // Underlying pool
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)                  // Idle connections kept for reuse
	sqlDB.SetMaxOpenConns(25)                  // Upper bound on concurrent connections
	sqlDB.SetConnMaxLifetime(30 * time.Minute) // Recycle long-lived connections
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)  // Close idle connections after 5 minutes
	return db, nil
}
