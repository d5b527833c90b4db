package services

import (
	"time"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// FeatureBuilder assembles the fixed-order feature vector consumed by the
// predictor. Build is a pure function: identical inputs always produce an
// identical vector.
type FeatureBuilder struct{}

// NewFeatureBuilder creates a feature builder
func NewFeatureBuilder() *FeatureBuilder {
	return &FeatureBuilder{}
}

// Build derives the feature vector from location, panel geometry and weather.
// The raw irradiance is replaced by the effective irradiance after
// incidence-angle correction, so tilt and azimuth influence the signal both
// directly and through the geometry term. Inputs are re-validated defensively
// even when the caller has already checked ranges.
func (b *FeatureBuilder) Build(loc models.Location, panel models.PanelConfiguration, weather models.WeatherSnapshot, at time.Time) (models.FeatureVector, error) {
	if err := loc.Validate(); err != nil {
		return models.FeatureVector{}, err
	}
	if err := panel.Validate(); err != nil {
		return models.FeatureVector{}, err
	}

	effective := weather.SolarIrradiance * incidenceFactor(loc.Latitude, panel.TiltAngleDeg, panel.AzimuthAngleDeg, at)

	var fv models.FeatureVector
	fv[models.FeatLatitude] = loc.Latitude
	fv[models.FeatLongitude] = loc.Longitude
	fv[models.FeatSurfaceArea] = panel.SurfaceAreaM2
	fv[models.FeatTiltAngle] = panel.TiltAngleDeg
	fv[models.FeatAzimuthAngle] = panel.AzimuthAngleDeg
	fv[models.FeatPanelEfficiency] = panel.PanelEfficiency
	fv[models.FeatEffectiveIrradiance] = effective
	fv[models.FeatTemperature] = weather.TemperatureC
	fv[models.FeatHumidity] = weather.HumidityPct
	fv[models.FeatWindSpeed] = weather.WindSpeedMS
	fv[models.FeatCloudCover] = weather.CloudCoverPct
	return fv, nil
}
