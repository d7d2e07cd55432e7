package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS places (
		internal_id   TEXT PRIMARY KEY,
		longitude     DOUBLE PRECISION NOT NULL,
		latitude      DOUBLE PRECISION NOT NULL,
		radius_meters INTEGER NOT NULL CHECK (radius_meters >= 0),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS places_center_idx ON places (latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS places_radius_idx ON places (radius_meters)`,
	`CREATE TABLE IF NOT EXISTS records (
		id          UUID PRIMARY KEY,
		device_id   TEXT NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		angle       DOUBLE PRECISION NOT NULL DEFAULT 0,
		speed       DOUBLE PRECISION NOT NULL DEFAULT 0,
		altitude    DOUBLE PRECISION NOT NULL DEFAULT 0,
		satellites  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS records_recorded_at_idx ON records (recorded_at)`,
	`CREATE INDEX IF NOT EXISTS records_location_idx ON records (latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS records_device_time_idx ON records (device_id, recorded_at)`,
}

// Migrate creates the places and records tables and their indexes.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
