package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'camera_role') THEN
			CREATE TYPE camera_role AS ENUM ('EDGE', 'INTERMEDIATE');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'trip_status') THEN
			CREATE TYPE trip_status AS ENUM ('OPEN', 'COMPLETED', 'INVOICE_PENDING', 'BYPASSED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS zones (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		vertices JSONB NOT NULL,
		center_lat DOUBLE PRECISION NOT NULL DEFAULT 0,
		center_lng DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_distance_m DOUBLE PRECISION NOT NULL DEFAULT 5000,
		flat_rate DOUBLE PRECISION NOT NULL DEFAULT 150,
		rate_per_meter DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS cameras (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		zone_id UUID NOT NULL REFERENCES zones(id) ON DELETE CASCADE,
		code VARCHAR(64) NOT NULL UNIQUE,
		role camera_role NOT NULL DEFAULT 'INTERMEDIATE',
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cameras_zone_id ON cameras (zone_id);`,
	`CREATE TABLE IF NOT EXISTS pathways (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		zone_id UUID NOT NULL REFERENCES zones(id) ON DELETE CASCADE,
		position INT NOT NULL,
		camera_codes JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_pathways_zone_id ON pathways (zone_id);`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		plate_number VARCHAR(32) NOT NULL UNIQUE,
		owner_name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS trips (
		seq BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL UNIQUE,
		plate VARCHAR(32) NOT NULL,
		zone_id UUID NOT NULL,
		status trip_status NOT NULL,
		toll DOUBLE PRECISION NOT NULL,
		owner_name VARCHAR(255) NOT NULL,
		registered BOOLEAN NOT NULL,
		sightings JSONB NOT NULL,
		opened_at TIMESTAMPTZ NOT NULL,
		closed_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_plate ON trips (plate);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_zone_id ON trips (zone_id);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_closed_at ON trips (closed_at DESC);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
