package gormrepo

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres opens the database with gorm's logger routed through slog. SQL slower than
// slowThreshold is logged at warn level.
func OpenPostgres(dsn string, opts ...Option) (*gorm.DB, error) {
	cfg := options{slowThreshold: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(&cfg)
	}
	handler := slog.Default().Handler()
	if cfg.logger != nil {
		handler = cfg.logger.Handler()
	}
	gormLogger := logger.New(slog.NewLogLogger(handler, slog.LevelWarn), logger.Config{
		SlowThreshold:             cfg.slowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.pool != (PoolConfig{}) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		if cfg.pool.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.pool.MaxOpenConns)
		}
		if cfg.pool.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.pool.MaxIdleConns)
		}
		if cfg.pool.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.pool.ConnMaxLifetime)
		}
	}
	return db, nil
}

type options struct {
	logger        *slog.Logger
	slowThreshold time.Duration
	pool          PoolConfig
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithPool(p PoolConfig) Option {
	return func(o *options) { o.pool = p }
}

func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) { o.slowThreshold = d }
}
