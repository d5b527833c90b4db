package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

func TestHourlySeriesShape(t *testing.T) {
	dayStart := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	points := buildTimeSeries(models.TimeframeDaily, 48, dayStart)

	require.Len(t, points, 24)

	for i, p := range points {
		assert.Equal(t, dayStart.Add(time.Duration(i)*time.Hour), p.Timestamp)
		if i < 6 || i > 18 {
			assert.Equal(t, 0.0, p.OutputKWh, "no production outside daylight hours")
		}
	}

	// Noon is the peak.
	noon := points[12].OutputKWh
	for i, p := range points {
		assert.LessOrEqual(t, p.OutputKWh, noon, "hour %d exceeds noon output", i)
	}
	assert.Greater(t, noon, 0.0)

	// The curve is symmetric around noon.
	for offset := 1; offset <= 6; offset++ {
		assert.InDelta(t, points[12-offset].OutputKWh, points[12+offset].OutputKWh, 1e-12)
	}
}

func TestWeeklySeriesShape(t *testing.T) {
	start := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	points := buildTimeSeries(models.TimeframeWeekly, 210, start)

	require.Len(t, points, 7)
	for i, p := range points {
		assert.Equal(t, start.AddDate(0, 0, i), p.Timestamp)
		// Variation stays within ±10% of the even split.
		assert.InDelta(t, 30, p.OutputKWh, 3.0+1e-9)
	}
}

func TestMonthlySeriesShape(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	points := buildTimeSeries(models.TimeframeMonthly, 400, start)

	require.Len(t, points, 4)
	for i, p := range points {
		assert.Equal(t, start.Add(time.Duration(i)*7*24*time.Hour), p.Timestamp)
		assert.InDelta(t, 100, p.OutputKWh, 10.0+1e-9)
	}
}

func TestSeriesTimestampsAscend(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, tf := range []models.Timeframe{models.TimeframeDaily, models.TimeframeWeekly, models.TimeframeMonthly} {
		points := buildTimeSeries(tf, 100, start)
		for i := 1; i < len(points); i++ {
			assert.True(t, points[i].Timestamp.After(points[i-1].Timestamp))
		}
	}
}
