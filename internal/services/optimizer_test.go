package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarcast-ai/solarcast-go/internal/config"
	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// stubPredictor scores a feature vector with a caller-supplied function, so
// grid-search behavior can be tested independently of the trained model.
type stubPredictor struct {
	score func(fv models.FeatureVector) float64
}

func (s *stubPredictor) Predict(fv models.FeatureVector) (float64, float64, error) {
	return s.score(fv), 0.9, nil
}

func testOptimizerConfig() config.OptimizerConfig {
	return config.OptimizerConfig{TiltStepDeg: 5, AzimuthStepDeg: 15, Workers: 4}
}

func newTestOptimizer(score func(fv models.FeatureVector) float64, tariff config.TariffConfig) *ConfigOptimizer {
	return NewConfigOptimizer(NewFeatureBuilder(), &stubPredictor{score: score}, testOptimizerConfig(), tariff, testLogger())
}

// peakAt scores candidates by distance from a preferred tilt/azimuth pair
func peakAt(tilt, azimuth float64) func(fv models.FeatureVector) float64 {
	return func(fv models.FeatureVector) float64 {
		dt := fv[models.FeatTiltAngle] - tilt
		da := fv[models.FeatAzimuthAngle] - azimuth
		return 1000 - dt*dt - da*da
	}
}

func TestOptimizeFindsGridMaximum(t *testing.T) {
	o := newTestOptimizer(peakAt(30, 180), config.TariffConfig{})

	result, err := o.Optimize(context.Background(), testLocation(), testPanel(), testWeather(), solarNoon(), nil)
	require.NoError(t, err)

	assert.Equal(t, 30.0, result.OptimalTiltDeg)
	assert.Equal(t, 180.0, result.OptimalAzimuthDeg)
	assert.Nil(t, result.Baseline)
	assert.Nil(t, result.ImprovementPct)
}

func TestOptimizeIsDeterministic(t *testing.T) {
	o := newTestOptimizer(peakAt(45, 90), config.TariffConfig{})

	first, err := o.Optimize(context.Background(), testLocation(), testPanel(), testWeather(), solarNoon(), nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := o.Optimize(context.Background(), testLocation(), testPanel(), testWeather(), solarNoon(), nil)
		require.NoError(t, err)
		assert.Equal(t, first.OptimalTiltDeg, again.OptimalTiltDeg)
		assert.Equal(t, first.OptimalAzimuthDeg, again.OptimalAzimuthDeg)
		assert.Equal(t, first.OptimalOutputKWh, again.OptimalOutputKWh)
	}
}

func TestOptimizeTieBreakWithoutBaseline(t *testing.T) {
	// Constant score: every candidate ties, the first in ascending
	// (tilt, azimuth) order must win.
	o := newTestOptimizer(func(models.FeatureVector) float64 { return 5 }, config.TariffConfig{})

	result, err := o.Optimize(context.Background(), testLocation(), testPanel(), testWeather(), solarNoon(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.OptimalTiltDeg)
	assert.Equal(t, 0.0, result.OptimalAzimuthDeg)
}

func TestOptimizeTieBreakPrefersClosestToCurrent(t *testing.T) {
	o := newTestOptimizer(func(models.FeatureVector) float64 { return 5 }, config.TariffConfig{})

	current := testPanel() // 30° tilt, 180° azimuth, both on the grid
	result, err := o.Optimize(context.Background(), testLocation(), testPanel(), testWeather(), solarNoon(), &current)
	require.NoError(t, err)

	assert.Equal(t, 30.0, result.OptimalTiltDeg)
	assert.Equal(t, 180.0, result.OptimalAzimuthDeg)
}

func TestOptimizeNeverWorseThanBaseline(t *testing.T) {
	// The score peaks off-grid at the baseline's exact angles, so every grid
	// candidate evaluates lower than the baseline.
	current := models.PanelConfiguration{
		SurfaceAreaM2:   50,
		TiltAngleDeg:    32.5,
		AzimuthAngleDeg: 172,
		PanelEfficiency: 0.20,
	}
	o := newTestOptimizer(peakAt(32.5, 172), config.TariffConfig{})

	result, err := o.Optimize(context.Background(), testLocation(), testPanel(), testWeather(), solarNoon(), &current)
	require.NoError(t, err)

	require.NotNil(t, result.BaselineOutputKWh)
	assert.GreaterOrEqual(t, result.OptimalOutputKWh, *result.BaselineOutputKWh)
	assert.Equal(t, 32.5, result.OptimalTiltDeg, "baseline substituted when it beats the whole grid")
	assert.Equal(t, 172.0, result.OptimalAzimuthDeg)
	require.NotNil(t, result.ImprovementPct)
	assert.Equal(t, 0.0, *result.ImprovementPct)
}

func TestOptimizeImprovementPct(t *testing.T) {
	current := models.PanelConfiguration{
		SurfaceAreaM2:   50,
		TiltAngleDeg:    0,
		AzimuthAngleDeg: 0,
		PanelEfficiency: 0.20,
	}
	o := newTestOptimizer(peakAt(30, 180), config.TariffConfig{})

	result, err := o.Optimize(context.Background(), testLocation(), testPanel(), testWeather(), solarNoon(), &current)
	require.NoError(t, err)

	require.NotNil(t, result.BaselineOutputKWh)
	require.NotNil(t, result.ImprovementPct)

	expected := (result.OptimalOutputKWh - *result.BaselineOutputKWh) / *result.BaselineOutputKWh * 100
	assert.InDelta(t, expected, *result.ImprovementPct, 1e-9)
	assert.Greater(t, *result.ImprovementPct, 0.0)
}

func TestOptimizeZeroBaselineSkipsImprovementPct(t *testing.T) {
	current := models.PanelConfiguration{
		SurfaceAreaM2:   50,
		TiltAngleDeg:    0,
		AzimuthAngleDeg: 0,
		PanelEfficiency: 0.20,
	}
	// Zero score at the baseline angles, positive elsewhere.
	score := func(fv models.FeatureVector) float64 {
		if fv[models.FeatTiltAngle] == 0 && fv[models.FeatAzimuthAngle] == 0 {
			return 0
		}
		return 10
	}
	o := newTestOptimizer(score, config.TariffConfig{})

	result, err := o.Optimize(context.Background(), testLocation(), testPanel(), testWeather(), solarNoon(), &current)
	require.NoError(t, err)

	require.NotNil(t, result.BaselineOutputKWh)
	assert.Equal(t, 0.0, *result.BaselineOutputKWh)
	assert.Nil(t, result.ImprovementPct, "division by a zero baseline must be avoided")
	assert.Nil(t, result.AnnualSavings)
}

func TestOptimizeEstimatesAnnualSavings(t *testing.T) {
	current := models.PanelConfiguration{
		SurfaceAreaM2:   50,
		TiltAngleDeg:    0,
		AzimuthAngleDeg: 0,
		PanelEfficiency: 0.20,
	}
	tariff := config.TariffConfig{PricePerKWh: "0.15", Currency: "USD"}
	o := newTestOptimizer(peakAt(30, 180), tariff)

	result, err := o.Optimize(context.Background(), testLocation(), testPanel(), testWeather(), solarNoon(), &current)
	require.NoError(t, err)

	require.NotNil(t, result.AnnualSavings)
	assert.Equal(t, "USD", result.SavingsCurrency)

	dailyGain := result.OptimalOutputKWh - *result.BaselineOutputKWh
	expected := dailyGain * 365 * 0.15
	got, _ := result.AnnualSavings.Float64()
	assert.InDelta(t, expected, got, 0.01)
}

func TestOptimizeRejectsInvalidInput(t *testing.T) {
	o := newTestOptimizer(peakAt(30, 180), config.TariffConfig{})

	badLoc := models.Location{Latitude: 100, Longitude: 0}
	_, err := o.Optimize(context.Background(), badLoc, testPanel(), testWeather(), solarNoon(), nil)
	var vErr *models.ValidationError
	assert.ErrorAs(t, err, &vErr)

	badPanel := testPanel()
	badPanel.SurfaceAreaM2 = -1
	_, err = o.Optimize(context.Background(), testLocation(), badPanel, testWeather(), solarNoon(), nil)
	assert.ErrorAs(t, err, &vErr)
}

func TestOptimizeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOptimizer(peakAt(30, 180), config.TariffConfig{})
	_, err := o.Optimize(ctx, testLocation(), testPanel(), testWeather(), solarNoon(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCandidateGridCoversRanges(t *testing.T) {
	o := newTestOptimizer(peakAt(30, 180), config.TariffConfig{})
	grid := o.candidates()

	// 19 tilt steps (0..90 by 5) times 24 azimuth steps (0..345 by 15).
	assert.Len(t, grid, 19*24)

	for _, c := range grid {
		assert.GreaterOrEqual(t, c.tilt, 0.0)
		assert.LessOrEqual(t, c.tilt, 90.0)
		assert.GreaterOrEqual(t, c.azimuth, 0.0)
		assert.Less(t, c.azimuth, 360.0)
	}
}

func TestAngleDistance(t *testing.T) {
	cfg := models.PanelConfiguration{TiltAngleDeg: 30, AzimuthAngleDeg: 180}
	assert.Equal(t, 0.0, angleDistance(candidate{tilt: 30, azimuth: 180}, cfg))
	assert.InDelta(t, math.Hypot(5, 15), angleDistance(candidate{tilt: 35, azimuth: 195}, cfg), 1e-12)
}
