// Package db opens the PostgreSQL database behind the ledger.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opsledger/backend/config"
	"github.com/opsledger/backend/internal/integration/persistence/model"
)

const (
	connectAttempts = 5
	connectDelay    = time.Second
	pingTimeout     = 5 * time.Second
)

// Postgres holds the gorm handle and its connection pool.
type Postgres struct {
	gorm *gorm.DB
	pool *sql.DB
}

// Connect opens the pool and pings the server, retrying while it starts.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*Postgres, error) {
	// TranslateError turns unique violations into gorm.ErrDuplicatedKey.
	gdb, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	pool, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	p := &Postgres{gorm: gdb, pool: pool}
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, p.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(connectDelay)),
		backoff.WithMaxTries(connectAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(ctx, "postgres not ready", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("postgres did not answer after %d attempts: %w", connectAttempts, err)
	}

	slog.InfoContext(ctx, "postgres connected", "max_open_conns", cfg.MaxOpenConns)
	return p, nil
}

// Gorm returns the handle the repositories are built on.
func (p *Postgres) Gorm() *gorm.DB {
	return p.gorm
}

// Ping checks that the server answers within pingTimeout.
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.pool.PingContext(ctx)
}

// Migrate creates or updates the transactions, inventory pools and
// counterparties tables.
func (p *Postgres) Migrate(ctx context.Context) error {
	err := p.gorm.WithContext(ctx).AutoMigrate(
		&model.TransactionModel{},
		&model.InventoryPoolModel{},
		&model.CounterpartyModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate ledger tables: %w", err)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	if err := p.pool.Close(); err != nil {
		return fmt.Errorf("failed to close postgres: %w", err)
	}
	return nil
}
