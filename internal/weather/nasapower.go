package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// NASAPowerSource fetches daily solar radiation data from the NASA POWER API.
// It serves as the secondary link in the resolver chain: slower than
// OpenWeatherMap but reports measured irradiance instead of an estimate.
type NASAPowerSource struct {
	client  *http.Client
	baseURL string
}

// NewNASAPowerSource creates a NASA POWER source
func NewNASAPowerSource(baseURL string) *NASAPowerSource {
	return &NASAPowerSource{
		client:  &http.Client{},
		baseURL: baseURL,
	}
}

func (s *NASAPowerSource) Name() string { return "nasa-power" }

type nasaPowerResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// Fetch retrieves the most recent daily point data for the location
func (s *NASAPowerSource) Fetch(ctx context.Context, loc models.Location, ts time.Time) (models.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("parameters", "ALLSKY_SFC_SW_DWN,T2M,RH2M,WS10M,CLRSKY_SFC_SW_DWN")
	params.Set("community", "RE")
	params.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	params.Set("start", ts.AddDate(0, 0, -7).Format("20060102"))
	params.Set("end", ts.Format("20060102"))
	params.Set("format", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.WeatherSnapshot{}, &SourceError{Source: s.Name(), Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.WeatherSnapshot{}, &SourceError{Source: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.WeatherSnapshot{}, &SourceError{
			Source: s.Name(),
			Err:    fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var data nasaPowerResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return models.WeatherSnapshot{}, &SourceError{Source: s.Name(), Err: fmt.Errorf("malformed payload: %w", err)}
	}

	allSky := data.Properties.Parameter["ALLSKY_SFC_SW_DWN"]
	if len(allSky) == 0 {
		return models.WeatherSnapshot{}, &SourceError{Source: s.Name(), Err: fmt.Errorf("no irradiance data in response")}
	}

	latest, ok := latestValidDate(allSky)
	if !ok {
		return models.WeatherSnapshot{}, &SourceError{Source: s.Name(), Err: fmt.Errorf("no processed irradiance data in window")}
	}

	snapshot := models.WeatherSnapshot{
		SolarIrradiance: allSky[latest],
		TemperatureC:    data.Properties.Parameter["T2M"][latest],
		HumidityPct:     data.Properties.Parameter["RH2M"][latest],
		WindSpeedMS:     data.Properties.Parameter["WS10M"][latest],
		CloudCoverPct: estimateCloudCover(
			allSky[latest],
			data.Properties.Parameter["CLRSKY_SFC_SW_DWN"][latest],
		),
		FetchedAt: ts,
	}
	if err := checkSnapshotBounds(snapshot); err != nil {
		return models.WeatherSnapshot{}, &SourceError{Source: s.Name(), Err: err}
	}
	return snapshot, nil
}

// latestValidDate picks the most recent date with processed irradiance.
// NASA POWER reports -999 for dates whose measurements are not available
// yet, which is routinely the case for the most recent days in the window.
func latestValidDate(series map[string]float64) (string, bool) {
	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	for _, d := range dates {
		if series[d] >= 0 {
			return d, true
		}
	}
	return "", false
}

// checkSnapshotBounds rejects fill values and other non-physical readings
// so the resolver falls back instead of feeding them to the predictor.
func checkSnapshotBounds(snap models.WeatherSnapshot) error {
	switch {
	case snap.SolarIrradiance < 0:
		return fmt.Errorf("non-physical irradiance %.1f kWh/m²/day", snap.SolarIrradiance)
	case snap.HumidityPct < 0 || snap.HumidityPct > 100:
		return fmt.Errorf("non-physical humidity %.1f%%", snap.HumidityPct)
	case snap.WindSpeedMS < 0:
		return fmt.Errorf("non-physical wind speed %.1f m/s", snap.WindSpeedMS)
	case snap.TemperatureC < -90 || snap.TemperatureC > 60:
		return fmt.Errorf("non-physical temperature %.1f°C", snap.TemperatureC)
	}
	return nil
}

// estimateCloudCover infers cloud cover from the ratio of all-sky to
// clear-sky radiation.
func estimateCloudCover(allSky, clearSky float64) float64 {
	if clearSky <= 0 {
		return 50
	}
	cover := (1 - allSky/clearSky) * 100
	if cover < 0 {
		return 0
	}
	if cover > 100 {
		return 100
	}
	return cover
}
