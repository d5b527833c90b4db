package services

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// Sample is one labeled training example
type Sample struct {
	Features  models.FeatureVector `json:"features"`
	OutputKWh float64              `json:"output_kwh"`
}

// Dataset is a labeled training set
type Dataset struct {
	Samples []Sample `json:"samples"`
}

// trainingNoisePct is the bound of the relative noise injected into
// generated labels, so the fit never degenerates to zero error.
const trainingNoisePct = 0.07

// TrainingDataGenerator produces synthetic labeled datasets encoding
// approximate solar-physics relationships. The output is a stand-in for real
// telemetry and is never presented as ground truth.
type TrainingDataGenerator struct {
	features *FeatureBuilder
	logger   *logrus.Logger
}

// NewTrainingDataGenerator creates a generator
func NewTrainingDataGenerator(features *FeatureBuilder, logger *logrus.Logger) *TrainingDataGenerator {
	return &TrainingDataGenerator{features: features, logger: logger}
}

// Generate produces n labeled samples. Deterministic for a given seed.
func (g *TrainingDataGenerator) Generate(n int, seed int64) Dataset {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]Sample, 0, n)

	for len(samples) < n {
		loc := models.Location{
			Latitude:  uniform(rng, -60, 60),
			Longitude: uniform(rng, -180, 180),
		}
		panel := models.PanelConfiguration{
			SurfaceAreaM2:   uniform(rng, 10, 100),
			TiltAngleDeg:    uniform(rng, 0, 90),
			AzimuthAngleDeg: uniform(rng, 0, 359.99),
			PanelEfficiency: uniform(rng, 0.15, 0.25),
		}
		weather := models.WeatherSnapshot{
			SolarIrradiance: uniform(rng, 2, 8),
			TemperatureC:    uniform(rng, -10, 45),
			HumidityPct:     uniform(rng, 20, 90),
			WindSpeedMS:     uniform(rng, 0, 20),
			CloudCoverPct:   uniform(rng, 0, 100),
		}
		// Solar noon on a random day of the year drives the geometry term.
		at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, rng.Intn(365))

		fv, err := g.features.Build(loc, panel, weather, at)
		if err != nil {
			// Sampled ranges are always valid; skip defensively.
			continue
		}

		noise := 1 + uniform(rng, -trainingNoisePct, trainingNoisePct)
		output := physicalOutputKWh(fv) * noise
		if output < 0 {
			output = 0
		}

		samples = append(samples, Sample{Features: fv, OutputKWh: output})
	}

	if g.logger != nil {
		g.logger.WithFields(logrus.Fields{
			"samples": n,
			"seed":    seed,
		}).Info("Generated synthetic training dataset")
	}

	return Dataset{Samples: samples}
}

// physicalOutputKWh approximates daily panel output from a feature vector:
// effective irradiance scaled by area and efficiency, attenuated by cloud
// cover and by temperature away from the 25°C optimum.
func physicalOutputKWh(fv models.FeatureVector) float64 {
	tempFactor := 1 - abs(fv[models.FeatTemperature]-25)/100
	cloudFactor := (100 - fv[models.FeatCloudCover]) / 100
	return fv[models.FeatEffectiveIrradiance] *
		fv[models.FeatSurfaceArea] *
		fv[models.FeatPanelEfficiency] *
		tempFactor * cloudFactor
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
