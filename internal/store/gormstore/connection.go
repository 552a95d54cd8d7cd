// Package gormstore implements store.Store over Postgres, grounded on
// order_service's database/connection.go and order_repository.go
// transaction and Preload conventions.
package gormstore

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds connection-pool tuning, matching order_service's
// database.Config shape.
type Config struct {
	DSN                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// Store wraps a *gorm.DB implementing every store.Store capability
// interface.
type Store struct {
	db *gorm.DB
}

// Connect opens a Postgres connection and configures the pool, per
// order_service/src/database/connection.go's Connect.
func Connect(cfg Config) (*Store, error) {
	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gormstore: underlying sql.DB: %w", err)
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 25
	}
	maxIdle := cfg.MaxIdleConnections
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("gormstore: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// AutoMigrate creates/updates every table this store owns, per
// order_service's AutoMigrate.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&productModel{},
		&productAliasModel{},
		&customerModel{},
		&orderLineModel{},
		&contactEventModel{},
		&masterProfileModel{},
		&recoRunModel{},
		&recoItemModel{},
		&auditLogModel{},
		&outcomeEventModel{},
		&feedbackRecordModel{},
		&abTestResultModel{},
		&ingestionBatchModel{},
		&rawRowModel{},
		&ingestionErrorModel{},
	)
}

// DB exposes the underlying *gorm.DB for callers needing raw queries
// (e.g. quality-metrics materialization windows).
func (s *Store) DB() *gorm.DB {
	return s.db
}
