package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jonwraymond/chatops/observe"
	"github.com/jonwraymond/chatops/resilience"
)

// Config configures the Postgres pool.
type Config struct {
	// URL is the Postgres DSN or postgres:// URL.
	URL string

	// Name is the logical database name reported by health probes.
	Name string

	// MaxConns caps open connections. Zero leaves the driver default.
	MaxConns int

	// PingTimeout bounds the initial ping. Default: 5 seconds
	PingTimeout time.Duration
}

// DB is an open pool plus its health pinger.
type DB struct {
	Gorm   *gorm.DB
	Pinger *Pinger

	sqlDB *sql.DB
}

// Connect opens and validates a pool. The pinger is created in the
// connecting state and marked connected once the first ping succeeds.
func Connect(ctx context.Context, cfg Config, logger observe.Logger) (*DB, error) {
	return ConnectWithRetry(ctx, cfg, nil, logger)
}

// ConnectWithRetry is Connect with the open-and-ping sequence retried by
// retry. A nil retry makes a single attempt.
func ConnectWithRetry(ctx context.Context, cfg Config, retry *resilience.Retry, logger observe.Logger) (*DB, error) {
	if logger == nil {
		logger = observe.Nop()
	}
	logger = logger.With(observe.F("component", "datastore"), observe.F("database", cfg.Name))
	pinger := NewPinger(cfg.Name)

	var db *DB
	attempt := func(ctx context.Context) error {
		var err error
		db, err = openPool(ctx, cfg, pinger)
		if err != nil {
			logger.Warn(ctx, "postgres connect attempt failed", observe.Err(err))
		}
		return err
	}

	logger.Info(ctx, "postgres connect started")
	var err error
	if retry == nil {
		err = attempt(ctx)
	} else {
		err = retry.Execute(ctx, attempt)
	}
	if err != nil {
		pinger.Detach()
		return nil, err
	}
	logger.Info(ctx, "postgres connect completed")
	return db, nil
}

func openPool(ctx context.Context, cfg Config, pinger *Pinger) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		PrepareStmt:            true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(max(cfg.MaxConns/2, 1))
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	pinger.Attach(sqlDB)
	return &DB{Gorm: gdb, Pinger: pinger, sqlDB: sqlDB}, nil
}

// Close moves the pinger through disconnecting to disconnected and closes
// the pool.
func (d *DB) Close() error {
	d.Pinger.state.Store(int32(StateDisconnecting))
	err := d.sqlDB.Close()
	d.Pinger.Detach()
	return err
}
