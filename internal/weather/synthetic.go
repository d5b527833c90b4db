package weather

import (
	"math"
	"time"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// Synthetic estimator defaults. Humidity, wind and cloud cover carry no
// latitude signal worth faking, so they are held constant.
const (
	syntheticHumidityPct   = 50.0
	syntheticWindSpeedMS   = 4.0
	syntheticCloudCoverPct = 30.0
)

// Synthesize produces a deterministic weather estimate from location and
// date alone. It is the terminal link of the resolver chain: repeated calls
// with the same location and day yield identical snapshots.
func Synthesize(loc models.Location, ts time.Time) models.WeatherSnapshot {
	seasonal := seasonalFactor(loc.Latitude, ts)

	// Irradiance peaks at the equator and tapers toward the poles, with a
	// seasonal swing of up to ±1.5 kWh/m²/day.
	latRad := loc.Latitude * math.Pi / 180
	irradiance := 6.5*math.Cos(latRad*0.9) + 1.5*seasonal
	irradiance = clamp(irradiance, 0.5, 8.0)

	temperature := 28 - 0.55*math.Abs(loc.Latitude) + 10*seasonal

	return models.WeatherSnapshot{
		SolarIrradiance: irradiance,
		TemperatureC:    temperature,
		HumidityPct:     syntheticHumidityPct,
		WindSpeedMS:     syntheticWindSpeedMS,
		CloudCoverPct:   syntheticCloudCoverPct,
		Provenance:      models.ProvenanceSynthetic,
		FetchedAt:       ts,
	}
}

// seasonalFactor is +1 at midsummer and -1 at midwinter for the location's
// hemisphere, following a cosine over the year anchored at the June solstice.
func seasonalFactor(latitude float64, ts time.Time) float64 {
	doy := float64(ts.YearDay())
	factor := math.Cos(2 * math.Pi * (doy - 172) / 365)
	if latitude < 0 {
		factor = -factor
	}
	return factor
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
