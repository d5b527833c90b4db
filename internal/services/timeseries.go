package services

import (
	"time"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// buildTimeSeries produces the per-period breakdown of a predicted total,
// ordered by timestamp ascending. Daily predictions break down into hourly
// entries following a solar bell curve over daylight hours; weekly and
// monthly predictions break down into per-day and per-week entries with a
// small deterministic variation.
func buildTimeSeries(tf models.Timeframe, totalKWh float64, dayStart time.Time) []models.TimeSeriesPoint {
	switch tf {
	case models.TimeframeWeekly:
		return spreadSeries(totalKWh, dayStart, 7, 24*time.Hour)
	case models.TimeframeMonthly:
		return spreadSeries(totalKWh, dayStart, 4, 7*24*time.Hour)
	default:
		return hourlySeries(totalKWh, dayStart)
	}
}

// hourlySeries models the solar radiation curve: zero outside 06:00-18:00,
// peaking at noon.
func hourlySeries(totalKWh float64, dayStart time.Time) []models.TimeSeriesPoint {
	points := make([]models.TimeSeriesPoint, 0, 24)
	base := totalKWh / 24

	for hour := 0; hour < 24; hour++ {
		var output float64
		if hour >= 6 && hour <= 18 {
			distanceFromNoon := abs(float64(12-hour)) / 6
			output = base * (1 - distanceFromNoon*distanceFromNoon*0.8)
		}
		points = append(points, models.TimeSeriesPoint{
			Timestamp: dayStart.Add(time.Duration(hour) * time.Hour),
			OutputKWh: output,
		})
	}
	return points
}

// spreadSeries divides the total into n periods with a deterministic ±10%
// variation so charts show realistic texture.
func spreadSeries(totalKWh float64, start time.Time, n int, step time.Duration) []models.TimeSeriesPoint {
	points := make([]models.TimeSeriesPoint, 0, n)
	base := totalKWh / float64(n)

	for i := 0; i < n; i++ {
		variation := 1 + float64((i*13)%21-10)/100
		points = append(points, models.TimeSeriesPoint{
			Timestamp: start.Add(time.Duration(i) * step),
			OutputKWh: base * variation,
		})
	}
	return points
}
