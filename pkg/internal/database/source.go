package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/glebarez/sqlite"
	"github.com/gvlarp/renfield/pkg/internal/config"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Gateway hands out one physical connection per logical operation. With
// max_idle_conns left at 0 nothing is pooled between operations.
type Gateway struct {
	db *gorm.DB
}

func openDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	case config.DriverMysql:
		return mysql.Open(cfg.DSN), nil
	case config.DriverSqlite:
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func NewGateway(cfg *config.Config) (*Gateway, error) {
	dialector, err := openDialector(cfg.Database)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if cfg.Debug.Database {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(&log.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	return &Gateway{db: db}, nil
}

// NewGatewayWithRetry keeps trying to reach the store with exponential
// backoff. Only used while booting; commands never retry.
func NewGatewayWithRetry(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	var gw *Gateway
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(max(cfg.Database.ConnectRetries, 0))),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		var err error
		if gw, err = NewGateway(cfg); err != nil {
			return err
		}
		return gw.Ping(ctx)
	}, policy, func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("wait", wait).Msg("Database is not ready yet, retrying...")
	})
	return gw, err
}

// DB exposes the underlying handle for migrations only.
func (v *Gateway) DB() *gorm.DB {
	return v.db
}

// Acquire checks out a single connection, runs fn against it and always
// gives the connection back, even when fn panics.
func (v *Gateway) Acquire(ctx context.Context, fn func(tx *gorm.DB) error) error {
	sqlDB, err := v.db.DB()
	if err != nil {
		return &ConnectionError{Err: err}
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer func(conn *sql.Conn) {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("An error occurred when releasing database connection...")
		}
	}(conn)

	tx := v.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	tx.Statement.ConnPool = conn
	return fn(tx)
}

// Transact is Acquire plus a transaction that commits when fn returns nil.
func (v *Gateway) Transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return v.Acquire(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(fn)
	})
}

func (v *Gateway) Ping(ctx context.Context) error {
	return v.Acquire(ctx, func(tx *gorm.DB) error {
		var one int
		if err := tx.Raw("SELECT 1").Scan(&one).Error; err != nil {
			return &ConnectionError{Err: err}
		}
		return nil
	})
}

func (v *Gateway) Close() error {
	sqlDB, err := v.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
