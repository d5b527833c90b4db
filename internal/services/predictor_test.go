package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarcast-ai/solarcast-go/internal/config"
	"github.com/solarcast-ai/solarcast-go/internal/models"
)

func testModelConfig() config.ModelConfig {
	return config.ModelConfig{
		MinTrainingSamples:  100,
		TrainingSamples:     1000,
		TrainingSeed:        42,
		EnsembleSize:        8,
		HoldoutFraction:     0.2,
		RegressionTolerance: 0.10,
		RidgeLambda:         0.1,
	}
}

func trainedPredictor(t *testing.T) *PowerPredictor {
	t.Helper()
	p := NewPowerPredictor(testModelConfig(), nil, testLogger())
	g := NewTrainingDataGenerator(NewFeatureBuilder(), nil)
	_, err := p.Retrain(g.Generate(1000, 42), false)
	require.NoError(t, err)
	return p
}

func TestPredictWithoutModel(t *testing.T) {
	p := NewPowerPredictor(testModelConfig(), nil, testLogger())

	assert.False(t, p.Loaded())

	_, _, err := p.Predict(models.FeatureVector{})
	assert.ErrorIs(t, err, ErrModelNotLoaded)

	_, err = p.Info()
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}

func TestRetrainRejectsInsufficientData(t *testing.T) {
	p := NewPowerPredictor(testModelConfig(), nil, testLogger())
	g := NewTrainingDataGenerator(NewFeatureBuilder(), nil)

	_, err := p.Retrain(g.Generate(50, 42), false)
	var insufficientErr *InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 50, insufficientErr.Samples)
	assert.Equal(t, 100, insufficientErr.Required)
	assert.False(t, p.Loaded(), "failed retrain must not install a model")
}

func TestRetrainForceBypassesMinimum(t *testing.T) {
	p := NewPowerPredictor(testModelConfig(), nil, testLogger())
	g := NewTrainingDataGenerator(NewFeatureBuilder(), nil)

	model, err := p.Retrain(g.Generate(60, 42), true)
	require.NoError(t, err)
	assert.True(t, p.Loaded())
	assert.Equal(t, 60, model.Metadata.SampleCount)
}

func TestRetrainUpdatesMetadata(t *testing.T) {
	p := trainedPredictor(t)

	meta, err := p.Info()
	require.NoError(t, err)
	assert.Equal(t, 1000, meta.SampleCount)
	assert.Equal(t, models.FeatureOrder(), meta.FeatureOrder)
	assert.Equal(t, 8, meta.EnsembleSize)
	assert.Greater(t, meta.MAE, 0.0)
	assert.Greater(t, meta.R2, 0.3, "fit should explain a good share of the physics-driven variance")
	assert.WithinDuration(t, time.Now().UTC(), meta.TrainedAt, time.Minute)
}

func TestRetrainRejectsAccuracyRegression(t *testing.T) {
	p := trainedPredictor(t)
	before, err := p.Info()
	require.NoError(t, err)

	// A dataset whose labels ignore the features entirely fits far worse
	// than the active model.
	g := NewTrainingDataGenerator(NewFeatureBuilder(), nil)
	bad := g.Generate(500, 9)
	for i := range bad.Samples {
		if i%2 == 0 {
			bad.Samples[i].OutputKWh = 0
		} else {
			bad.Samples[i].OutputKWh = 1000
		}
	}

	_, err = p.Retrain(bad, false)
	var regressionErr *AccuracyRegressionError
	require.ErrorAs(t, err, &regressionErr)
	assert.Greater(t, regressionErr.NewMAE, regressionErr.ActiveMAE)

	after, err := p.Info()
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected retrain must leave the active model untouched")
}

func TestPredictResidentialScenario(t *testing.T) {
	p := trainedPredictor(t)
	b := NewFeatureBuilder()

	fv, err := b.Build(testLocation(), testPanel(), testWeather(), solarNoon())
	require.NoError(t, err)

	output, confidence, err := p.Predict(fv)
	require.NoError(t, err)

	// 50 m² at 20% efficiency under decent irradiance lands well inside
	// physically plausible daily production.
	assert.Greater(t, output, 1.0)
	assert.Less(t, output, 100.0)
	assert.GreaterOrEqual(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)
}

func TestPredictIsDeterministic(t *testing.T) {
	p := trainedPredictor(t)
	b := NewFeatureBuilder()

	fv, err := b.Build(testLocation(), testPanel(), testWeather(), solarNoon())
	require.NoError(t, err)

	out1, conf1, err := p.Predict(fv)
	require.NoError(t, err)
	out2, conf2, err := p.Predict(fv)
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
	assert.Equal(t, conf1, conf2)
}

func TestPredictPenalizesOutOfRangeFeatures(t *testing.T) {
	p := trainedPredictor(t)
	b := NewFeatureBuilder()

	fv, err := b.Build(testLocation(), testPanel(), testWeather(), solarNoon())
	require.NoError(t, err)
	_, inRangeConf, err := p.Predict(fv)
	require.NoError(t, err)

	// Training samples surface areas in [10, 100]; 5000 m² is far outside.
	outside := fv
	outside[models.FeatSurfaceArea] = 5000

	_, outConf, err := p.Predict(outside)
	require.NoError(t, err)
	assert.Less(t, outConf, inRangeConf)
}

func TestPredictNeverReturnsNegativeOutput(t *testing.T) {
	p := trainedPredictor(t)

	// An adversarial vector pushing every feature to an extreme.
	fv := models.FeatureVector{-60, -180, 0.001, 90, 359, 0.001, 0, -50, 100, 50, 100}
	output, confidence, err := p.Predict(fv)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, output, 0.0)
	assert.GreaterOrEqual(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)
}

func TestEnsembleConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ensembleConfidence([]float64{1, 2, 3}, 0))
	assert.Equal(t, 1.0, ensembleConfidence([]float64{5, 5, 5}, 5))

	// Disagreement lowers confidence.
	tight := ensembleConfidence([]float64{10, 10.1, 9.9}, 10)
	loose := ensembleConfidence([]float64{5, 15, 10}, 10)
	assert.Greater(t, tight, loose)
}
