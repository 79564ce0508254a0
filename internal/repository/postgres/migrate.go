package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS riders (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		phone      TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id     TEXT PRIMARY KEY,
		name   TEXT NOT NULL,
		phone  TEXT,
		rating DOUBLE PRECISION NOT NULL DEFAULT 5.0
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id           TEXT PRIMARY KEY,
		cab_number   TEXT NOT NULL UNIQUE,
		cab_type     TEXT NOT NULL,
		rate_per_km  DOUBLE PRECISION NOT NULL,
		is_electric  BOOLEAN NOT NULL DEFAULT FALSE,
		seats        INTEGER NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		driver_id    TEXT NOT NULL REFERENCES drivers(id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id              TEXT PRIMARY KEY,
		rider_id        TEXT NOT NULL REFERENCES riders(id),
		vehicle_id      TEXT NOT NULL REFERENCES vehicles(id),
		pickup_location TEXT NOT NULL,
		drop_location   TEXT NOT NULL,
		distance        DOUBLE PRECISION NOT NULL,
		fare            DOUBLE PRECISION NOT NULL,
		status          TEXT NOT NULL,
		eco_ride        BOOLEAN NOT NULL DEFAULT FALSE,
		carbon_saved    DOUBLE PRECISION NOT NULL DEFAULT 0,
		payment_method  TEXT NOT NULL,
		payment_status  TEXT NOT NULL DEFAULT 'PENDING',
		payment_details TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_rider_id ON bookings (rider_id)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id           TEXT PRIMARY KEY,
		booking_id   TEXT NOT NULL UNIQUE REFERENCES bookings(id),
		payment_type TEXT NOT NULL,
		amount       DOUBLE PRECISION NOT NULL,
		status       TEXT NOT NULL,
		details      JSONB,
		message      TEXT NOT NULL DEFAULT '',
		settled_at   TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the tables used by the service if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
