package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// DB is the subset of pgxpool.Pool the repository uses. Narrow on purpose so
// tests can substitute a mock pool.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PredictionRepository persists prediction and optimization results
type PredictionRepository struct {
	db     DB
	logger *logrus.Logger
}

func NewPredictionRepository(db DB, logger *logrus.Logger) *PredictionRepository {
	return &PredictionRepository{db: db, logger: logger}
}

func (r *PredictionRepository) SavePrediction(ctx context.Context, result *models.PredictionResult) error {
	weatherJSON, err := json.Marshal(result.Weather)
	if err != nil {
		return fmt.Errorf("failed to marshal weather snapshot: %w", err)
	}

	query := `
		INSERT INTO predictions (
			id, latitude, longitude, location_name,
			surface_area_m2, tilt_angle_deg, azimuth_angle_deg, panel_efficiency,
			timeframe, predicted_output_kwh, confidence_score, weather, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.Exec(ctx, query,
		result.ID, result.Location.Latitude, result.Location.Longitude, result.Location.Name,
		result.Panel.SurfaceAreaM2, result.Panel.TiltAngleDeg, result.Panel.AzimuthAngleDeg, result.Panel.PanelEfficiency,
		string(result.Timeframe), result.PredictedOutputKWh, result.ConfidenceScore, weatherJSON, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

func (r *PredictionRepository) SaveOptimization(ctx context.Context, result *models.OptimizationResult) error {
	weatherJSON, err := json.Marshal(result.Weather)
	if err != nil {
		return fmt.Errorf("failed to marshal weather snapshot: %w", err)
	}

	var currentTilt, currentAzimuth *float64
	if result.Baseline != nil {
		currentTilt = &result.Baseline.TiltAngleDeg
		currentAzimuth = &result.Baseline.AzimuthAngleDeg
	}

	query := `
		INSERT INTO optimizations (
			id, latitude, longitude,
			optimal_tilt_deg, optimal_azimuth_deg, optimal_output_kwh,
			current_tilt_deg, current_azimuth_deg, current_output_kwh,
			improvement_pct, weather, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.Exec(ctx, query,
		result.ID, result.Location.Latitude, result.Location.Longitude,
		result.OptimalTiltDeg, result.OptimalAzimuthDeg, result.OptimalOutputKWh,
		currentTilt, currentAzimuth, result.BaselineOutputKWh,
		result.ImprovementPct, weatherJSON, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert optimization: %w", err)
	}
	return nil
}

// PredictionRecord is the flattened row shape returned by history queries
type PredictionRecord struct {
	ID                 string    `json:"id"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	LocationName       string    `json:"location_name,omitempty"`
	Timeframe          string    `json:"timeframe"`
	PredictedOutputKWh float64   `json:"predicted_output_kwh"`
	ConfidenceScore    float64   `json:"confidence_score"`
	CreatedAt          time.Time `json:"created_at"`
}

// ListRecentPredictions returns the newest predictions, most recent first
func (r *PredictionRepository) ListRecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, latitude, longitude, location_name, timeframe,
		       predicted_output_kwh, confidence_score, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0, limit)
	for rows.Next() {
		var rec PredictionRecord
		if err := rows.Scan(&rec.ID, &rec.Latitude, &rec.Longitude, &rec.LocationName,
			&rec.Timeframe, &rec.PredictedOutputKWh, &rec.ConfidenceScore, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prediction rows: %w", err)
	}
	return records, nil
}
