package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Timeframe selects the aggregation window for a prediction
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// Multiplier converts a daily prediction to the timeframe total
func (t Timeframe) Multiplier() float64 {
	switch t {
	case TimeframeWeekly:
		return 7
	case TimeframeMonthly:
		return 30
	default:
		return 1
	}
}

// Valid reports whether the timeframe is one of the supported values
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly:
		return true
	}
	return false
}

// ValidationError reports an input field that falls outside its allowed range
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Location identifies a geographic point. Identity is the coordinate pair;
// the name is cosmetic.
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Name      string  `json:"name,omitempty" db:"name"`
}

// Validate checks coordinate ranges
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return &ValidationError{Field: "latitude", Reason: fmt.Sprintf("%.4f is outside [-90, 90]", l.Latitude)}
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return &ValidationError{Field: "longitude", Reason: fmt.Sprintf("%.4f is outside [-180, 180]", l.Longitude)}
	}
	return nil
}

// PanelConfiguration describes a candidate or installed panel setup.
// Value object, compared by field equality.
type PanelConfiguration struct {
	SurfaceAreaM2   float64 `json:"surface_area_m2" db:"surface_area_m2"`
	TiltAngleDeg    float64 `json:"tilt_angle_deg" db:"tilt_angle_deg"`
	AzimuthAngleDeg float64 `json:"azimuth_angle_deg" db:"azimuth_angle_deg"`
	PanelEfficiency float64 `json:"panel_efficiency" db:"panel_efficiency"`
}

// Validate checks panel geometry and efficiency ranges
func (p PanelConfiguration) Validate() error {
	if p.SurfaceAreaM2 <= 0 {
		return &ValidationError{Field: "surface_area_m2", Reason: fmt.Sprintf("%.2f must be > 0", p.SurfaceAreaM2)}
	}
	if p.TiltAngleDeg < 0 || p.TiltAngleDeg > 90 {
		return &ValidationError{Field: "tilt_angle_deg", Reason: fmt.Sprintf("%.2f is outside [0, 90]", p.TiltAngleDeg)}
	}
	if p.AzimuthAngleDeg < 0 || p.AzimuthAngleDeg >= 360 {
		return &ValidationError{Field: "azimuth_angle_deg", Reason: fmt.Sprintf("%.2f is outside [0, 360)", p.AzimuthAngleDeg)}
	}
	if p.PanelEfficiency <= 0 || p.PanelEfficiency > 1 {
		return &ValidationError{Field: "panel_efficiency", Reason: fmt.Sprintf("%.3f is outside (0, 1]", p.PanelEfficiency)}
	}
	return nil
}

// WeatherProvenance tags where a snapshot came from
type WeatherProvenance string

const (
	ProvenanceLivePrimary   WeatherProvenance = "live-primary"
	ProvenanceLiveSecondary WeatherProvenance = "live-secondary"
	ProvenanceSynthetic     WeatherProvenance = "synthetic"
)

// WeatherSnapshot holds the weather metrics consumed by the feature pipeline.
// Produced fresh per request and never mutated after creation.
type WeatherSnapshot struct {
	SolarIrradiance float64           `json:"solar_irradiance"` // kWh/m²/day
	TemperatureC    float64           `json:"temperature_c"`
	HumidityPct     float64           `json:"humidity_pct"`
	WindSpeedMS     float64           `json:"wind_speed_ms"`
	CloudCoverPct   float64           `json:"cloud_cover_pct"`
	Provenance      WeatherProvenance `json:"provenance"`
	FetchedAt       time.Time         `json:"fetched_at"`
}

// FeatureCount is the fixed width of a FeatureVector
const FeatureCount = 11

// Feature indices. The order is a contract shared with the trained model;
// reordering breaks compatibility with previously persisted parameters.
const (
	FeatLatitude = iota
	FeatLongitude
	FeatSurfaceArea
	FeatTiltAngle
	FeatAzimuthAngle
	FeatPanelEfficiency
	FeatEffectiveIrradiance
	FeatTemperature
	FeatHumidity
	FeatWindSpeed
	FeatCloudCover
)

// FeatureVector is the fixed-order numeric encoding consumed by the predictor
type FeatureVector [FeatureCount]float64

// FeatureOrder returns the canonical feature names in vector order
func FeatureOrder() []string {
	return []string{
		"latitude", "longitude", "surface_area", "tilt_angle", "azimuth_angle",
		"panel_efficiency", "effective_irradiance", "temperature", "humidity",
		"wind_speed", "cloud_cover",
	}
}

// TimeSeriesPoint is one entry of a prediction breakdown
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	OutputKWh float64   `json:"output_kwh"`
}

// PredictionResult is the engine output for a single prediction request
type PredictionResult struct {
	ID                 uuid.UUID          `json:"id"`
	Location           Location           `json:"location"`
	Panel              PanelConfiguration `json:"panel_configuration"`
	Timeframe          Timeframe          `json:"timeframe"`
	PredictedOutputKWh float64            `json:"predicted_output_kwh"`
	ConfidenceScore    float64            `json:"confidence_score"`
	Weather            WeatherSnapshot    `json:"weather"`
	TimeSeries         []TimeSeriesPoint  `json:"time_series,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// OptimizationResult reports the output-maximizing configuration found by the
// grid search, with improvement over the supplied baseline when present.
type OptimizationResult struct {
	ID                uuid.UUID           `json:"id"`
	Location          Location            `json:"location"`
	OptimalTiltDeg    float64             `json:"optimal_tilt_deg"`
	OptimalAzimuthDeg float64             `json:"optimal_azimuth_deg"`
	OptimalOutputKWh  float64             `json:"optimal_output_kwh"`
	Baseline          *PanelConfiguration `json:"current_configuration,omitempty"`
	BaselineOutputKWh *float64            `json:"current_output_kwh,omitempty"`
	ImprovementPct    *float64            `json:"improvement_pct,omitempty"`
	AnnualSavings     *decimal.Decimal    `json:"estimated_annual_savings,omitempty"`
	SavingsCurrency   string              `json:"savings_currency,omitempty"`
	Weather           WeatherSnapshot     `json:"weather"`
	CreatedAt         time.Time           `json:"created_at"`
}

// ModelMetadata describes the currently active trained model
type ModelMetadata struct {
	TrainedAt    time.Time `json:"trained_at"`
	SampleCount  int       `json:"sample_count"`
	FeatureOrder []string  `json:"feature_order"`
	MAE          float64   `json:"mae"`
	R2           float64   `json:"r2_score"`
	EnsembleSize int       `json:"ensemble_size"`
}
