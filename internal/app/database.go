package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"

	"cab/internal/config"
)

const connectBackoff = 500 * time.Millisecond

// NewDatabase opens the booking database and waits for it to accept
// connections. If nrApp is provided, the New Relic instrumented driver is
// used so booking and settlement queries show up as datastore segments.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	driver := "postgres"
	if nrApp != nil {
		driver = "nrpostgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with %s: %w", driver, err)
	}

	// Every settlement holds one connection for its transaction, so the pool
	// must stay above the settlement concurrency.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := pingWithRetry(ctx, db, cfg.ConnectAttempts); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// pingWithRetry pings until the database answers, the attempts run out or
// ctx is done. The delay doubles after every failed attempt.
func pingWithRetry(ctx context.Context, db *sql.DB, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	delay := connectBackoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		log.Printf("[DB] ping attempt %d/%d failed: %v", attempt, attempts, err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, err)
}
