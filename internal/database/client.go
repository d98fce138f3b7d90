// Package database opens GORM connections to PostgreSQL/TimescaleDB with the
// application's zap logger attached.
package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/changepoints/internal/log"
	"go.uber.org/zap"
)

// NewGormLogger returns a GORM logger that writes through zap
func NewGormLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true, // not-found runs are reported to callers, not logged
			Colorful:                  false,
		},
	)
}

// CreateConnection opens a GORM connection with standard configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: NewGormLogger(logger.Warn)})
	if err != nil {
		log.Warnf("unable to create a TimescaleDB connection: %v", err)
		return nil, err
	}
	log.Info("TimescaleDB connection successful")

	return db, nil
}
