package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS predictions (
		id UUID PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		location_name TEXT NOT NULL DEFAULT '',
		surface_area_m2 DOUBLE PRECISION NOT NULL,
		tilt_angle_deg DOUBLE PRECISION NOT NULL,
		azimuth_angle_deg DOUBLE PRECISION NOT NULL,
		panel_efficiency DOUBLE PRECISION NOT NULL,
		timeframe TEXT NOT NULL,
		predicted_output_kwh DOUBLE PRECISION NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		weather JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS optimizations (
		id UUID PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		optimal_tilt_deg DOUBLE PRECISION NOT NULL,
		optimal_azimuth_deg DOUBLE PRECISION NOT NULL,
		optimal_output_kwh DOUBLE PRECISION NOT NULL,
		current_tilt_deg DOUBLE PRECISION,
		current_azimuth_deg DOUBLE PRECISION,
		current_output_kwh DOUBLE PRECISION,
		improvement_pct DOUBLE PRECISION,
		weather JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_coords ON predictions (latitude, longitude)`,
}

// Migrate applies the schema. Statements are idempotent so startup can run
// this unconditionally.
func Migrate(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
