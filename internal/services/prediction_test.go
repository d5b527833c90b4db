package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarcast-ai/solarcast-go/internal/config"
	"github.com/solarcast-ai/solarcast-go/internal/models"
	"github.com/solarcast-ai/solarcast-go/internal/weather"
)

// capturingStore records persisted results and can simulate failures
type capturingStore struct {
	predictions   []*models.PredictionResult
	optimizations []*models.OptimizationResult
	failWith      error
}

func (s *capturingStore) SavePrediction(_ context.Context, result *models.PredictionResult) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.predictions = append(s.predictions, result)
	return nil
}

func (s *capturingStore) SaveOptimization(_ context.Context, result *models.OptimizationResult) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.optimizations = append(s.optimizations, result)
	return nil
}

func newTestPredictionService(t *testing.T, store PredictionStore) *PredictionService {
	t.Helper()

	logger := testLogger()
	// No live sources registered: every resolve degrades to synthetic.
	resolver := weather.NewResolver(nil, nil, 0, logger)
	features := NewFeatureBuilder()

	predictor := NewPowerPredictor(testModelConfig(), nil, logger)
	g := NewTrainingDataGenerator(features, nil)
	_, err := predictor.Retrain(g.Generate(1000, 42), false)
	require.NoError(t, err)

	optimizer := NewConfigOptimizer(features, predictor, testOptimizerConfig(), config.TariffConfig{}, logger)
	return NewPredictionService(resolver, features, predictor, optimizer, store, logger)
}

func testPredictionRequest() models.PredictionRequest {
	return models.PredictionRequest{
		Latitude:        37.7749,
		Longitude:       -122.4194,
		LocationName:    "San Francisco",
		SurfaceAreaM2:   50,
		TiltAngleDeg:    30,
		AzimuthAngleDeg: 180,
		PanelEfficiency: 0.20,
	}
}

func TestPredictDefaultsToDaily(t *testing.T) {
	svc := newTestPredictionService(t, nil)

	result, err := svc.Predict(context.Background(), testPredictionRequest())
	require.NoError(t, err)

	assert.Equal(t, models.TimeframeDaily, result.Timeframe)
	assert.NotEqual(t, uuid.Nil, result.ID)
	assert.Greater(t, result.PredictedOutputKWh, 0.0)
	assert.GreaterOrEqual(t, result.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, result.ConfidenceScore, 1.0)
	assert.Equal(t, models.ProvenanceSynthetic, result.Weather.Provenance)
	assert.Len(t, result.TimeSeries, 24)
}

func TestPredictTimeframeScaling(t *testing.T) {
	svc := newTestPredictionService(t, nil)

	req := testPredictionRequest()
	daily, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)

	req.Timeframe = models.TimeframeWeekly
	weekly, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)

	req.Timeframe = models.TimeframeMonthly
	monthly, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)

	assert.InDelta(t, daily.PredictedOutputKWh*7, weekly.PredictedOutputKWh, 1e-9)
	assert.InDelta(t, daily.PredictedOutputKWh*30, monthly.PredictedOutputKWh, 1e-9)
	assert.Len(t, weekly.TimeSeries, 7)
	assert.Len(t, monthly.TimeSeries, 4)
}

func TestPredictRejectsUnknownTimeframe(t *testing.T) {
	svc := newTestPredictionService(t, nil)

	req := testPredictionRequest()
	req.Timeframe = models.Timeframe("yearly")

	_, err := svc.Predict(context.Background(), req)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "timeframe", vErr.Field)
}

func TestPredictPersistsResult(t *testing.T) {
	store := &capturingStore{}
	svc := newTestPredictionService(t, store)

	result, err := svc.Predict(context.Background(), testPredictionRequest())
	require.NoError(t, err)

	require.Len(t, store.predictions, 1)
	assert.Equal(t, result.ID, store.predictions[0].ID)
}

func TestPredictSurvivesPersistenceFailure(t *testing.T) {
	store := &capturingStore{failWith: errors.New("connection refused")}
	svc := newTestPredictionService(t, store)

	result, err := svc.Predict(context.Background(), testPredictionRequest())
	require.NoError(t, err, "a dead store must not fail the prediction")
	assert.Greater(t, result.PredictedOutputKWh, 0.0)
}

func TestRecommendEndToEnd(t *testing.T) {
	store := &capturingStore{}
	svc := newTestPredictionService(t, store)

	tilt, azimuth := 25.0, 170.0
	req := models.RecommendationRequest{
		Latitude:        37.7749,
		Longitude:       -122.4194,
		SurfaceAreaM2:   50,
		PanelEfficiency: 0.20,
		CurrentTilt:     &tilt,
		CurrentAzimuth:  &azimuth,
	}

	result, err := svc.Recommend(context.Background(), req)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.OptimalTiltDeg, 0.0)
	assert.LessOrEqual(t, result.OptimalTiltDeg, 90.0)
	assert.GreaterOrEqual(t, result.OptimalAzimuthDeg, 0.0)
	assert.Less(t, result.OptimalAzimuthDeg, 360.0)

	require.NotNil(t, result.BaselineOutputKWh)
	assert.GreaterOrEqual(t, result.OptimalOutputKWh, *result.BaselineOutputKWh)
	if result.ImprovementPct != nil {
		assert.GreaterOrEqual(t, *result.ImprovementPct, 0.0)
	}

	require.Len(t, store.optimizations, 1)
	assert.Equal(t, result.ID, store.optimizations[0].ID)
}

func TestRecommendWithoutBaseline(t *testing.T) {
	svc := newTestPredictionService(t, nil)

	req := models.RecommendationRequest{
		Latitude:        37.7749,
		Longitude:       -122.4194,
		SurfaceAreaM2:   50,
		PanelEfficiency: 0.20,
	}

	result, err := svc.Recommend(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, result.Baseline)
	assert.Nil(t, result.BaselineOutputKWh)
	assert.Nil(t, result.ImprovementPct)
	assert.Greater(t, result.OptimalOutputKWh, 0.0)
}
