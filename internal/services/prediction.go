package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/solarcast-ai/solarcast-go/internal/models"
	"github.com/solarcast-ai/solarcast-go/internal/weather"
)

// PredictionStore persists engine results. The engine works without one;
// persistence failures are recorded but never fail the request.
type PredictionStore interface {
	SavePrediction(ctx context.Context, result *models.PredictionResult) error
	SaveOptimization(ctx context.Context, result *models.OptimizationResult) error
}

// PredictionService wires the weather resolver, feature pipeline and
// predictor into the single-prediction flow.
type PredictionService struct {
	resolver  *weather.Resolver
	features  *FeatureBuilder
	predictor *PowerPredictor
	optimizer *ConfigOptimizer
	store     PredictionStore
	logger    *logrus.Logger
}

// NewPredictionService creates the prediction service. store may be nil.
func NewPredictionService(resolver *weather.Resolver, features *FeatureBuilder, predictor *PowerPredictor, optimizer *ConfigOptimizer, store PredictionStore, logger *logrus.Logger) *PredictionService {
	return &PredictionService{
		resolver:  resolver,
		features:  features,
		predictor: predictor,
		optimizer: optimizer,
		store:     store,
		logger:    logger,
	}
}

// Predict resolves weather for the request's location, builds the feature
// vector and returns the predicted output scaled to the requested timeframe,
// with an hourly/daily/weekly breakdown.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	tf := req.Timeframe
	if tf == "" {
		tf = models.TimeframeDaily
	}
	if !tf.Valid() {
		return nil, &models.ValidationError{Field: "timeframe", Reason: string(tf) + " is not one of daily, weekly, monthly"}
	}

	loc := req.Location()
	panel := req.Panel()

	// Solar noon of the current day anchors the geometry term, so repeated
	// requests within a day see consistent features.
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	noon := dayStart.Add(12 * time.Hour)

	snapshot := s.resolver.Resolve(ctx, loc, noon)

	fv, err := s.features.Build(loc, panel, snapshot, noon)
	if err != nil {
		return nil, err
	}

	dailyOutput, confidence, err := s.predictor.Predict(fv)
	if err != nil {
		return nil, err
	}

	total := dailyOutput * tf.Multiplier()

	result := &models.PredictionResult{
		ID:                 uuid.New(),
		Location:           loc,
		Panel:              panel,
		Timeframe:          tf,
		PredictedOutputKWh: total,
		ConfidenceScore:    confidence,
		Weather:            snapshot,
		TimeSeries:         buildTimeSeries(tf, total, dayStart),
		CreatedAt:          now,
	}

	s.persistPrediction(ctx, result)

	s.logger.WithFields(logrus.Fields{
		"latitude":         loc.Latitude,
		"longitude":        loc.Longitude,
		"timeframe":        tf,
		"predicted_output": total,
		"confidence":       confidence,
		"weather_source":   snapshot.Provenance,
	}).Info("Prediction completed")

	return result, nil
}

// Recommend resolves weather and runs the grid search, persisting the result
func (s *PredictionService) Recommend(ctx context.Context, req models.RecommendationRequest) (*models.OptimizationResult, error) {
	loc := req.Location()
	base := models.PanelConfiguration{
		SurfaceAreaM2:   req.SurfaceAreaM2,
		TiltAngleDeg:    0,
		AzimuthAngleDeg: 180,
		PanelEfficiency: req.PanelEfficiency,
	}

	now := time.Now().UTC()
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)

	snapshot := s.resolver.Resolve(ctx, loc, noon)

	result, err := s.optimizer.Optimize(ctx, loc, base, snapshot, noon, req.CurrentConfiguration())
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.SaveOptimization(ctx, result); err != nil {
			s.logger.WithError(err).Warn("Failed to persist optimization result")
		}
	}
	return result, nil
}

func (s *PredictionService) persistPrediction(ctx context.Context, result *models.PredictionResult) {
	if s.store == nil {
		return
	}
	if err := s.store.SavePrediction(ctx, result); err != nil {
		s.logger.WithError(err).Warn("Failed to persist prediction result")
	}
}
