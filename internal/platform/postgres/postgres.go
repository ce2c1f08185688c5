package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Pool bounds the connections held by one process.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultPool suits the API process: short requests, a handful of writers.
var DefaultPool = Pool{
	MaxOpenConns:    10,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	PingTimeout:     5 * time.Second,
}

// Option adjusts the pool before connecting.
type Option func(*Pool)

// WithMaxOpenConns caps concurrent connections.
func WithMaxOpenConns(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.MaxOpenConns = n
		}
	}
}

// WithPingTimeout bounds the connectivity check.
func WithPingTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.PingTimeout = d
		}
	}
}

// Connect opens a PostgreSQL connection via GORM and verifies connectivity.
// Driver errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
func Connect(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	pool := DefaultPool
	for _, opt := range opts {
		opt(&pool)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, pool.PingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// ConnectOptional dials dsn and returns the DB plus a cleanup function.
// An empty dsn or a failed connection is logged and yields nil, so callers fall back to memory.
func ConnectOptional(ctx context.Context, dsn string, logger *slog.Logger, opts ...Option) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory stores")
		return nil, func() {}
	}
	db, err := Connect(ctx, dsn, opts...)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory stores", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory stores", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres connection established")
	return db, func() { _ = sqlDB.Close() }
}
