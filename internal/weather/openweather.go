package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/solarcast-ai/solarcast-go/internal/models"
)

// clearSkyIrradiance is the average clear-sky irradiance in kWh/m²/day used
// to estimate daily irradiance from instantaneous cloud cover.
const clearSkyIrradiance = 6.0

// OpenWeatherSource fetches current conditions from the OpenWeatherMap API
type OpenWeatherSource struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewOpenWeatherSource creates an OpenWeatherMap source. The per-request
// timeout is enforced by the resolver's context, not the HTTP client.
func NewOpenWeatherSource(baseURL, apiKey string) *OpenWeatherSource {
	return &OpenWeatherSource{
		client:  &http.Client{},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (s *OpenWeatherSource) Name() string { return "openweathermap" }

type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
}

// Fetch retrieves current weather and converts it to a snapshot
func (s *OpenWeatherSource) Fetch(ctx context.Context, loc models.Location, ts time.Time) (models.WeatherSnapshot, error) {
	if s.apiKey == "" {
		return models.WeatherSnapshot{}, &SourceError{Source: s.Name(), Err: fmt.Errorf("API key not configured")}
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	params.Set("appid", s.apiKey)
	params.Set("units", "metric")

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

	var data openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return models.WeatherSnapshot{}, &SourceError{Source: s.Name(), Err: fmt.Errorf("malformed payload: %w", err)}
	}

	return models.WeatherSnapshot{
		SolarIrradiance: estimateIrradianceFromClouds(data.Clouds.All),
		TemperatureC:    data.Main.Temp,
		HumidityPct:     data.Main.Humidity,
		WindSpeedMS:     data.Wind.Speed,
		CloudCoverPct:   data.Clouds.All,
		FetchedAt:       ts,
	}, nil
}

// estimateIrradianceFromClouds derives a daily irradiance estimate from cloud
// cover, since OpenWeatherMap does not report radiation directly.
func estimateIrradianceFromClouds(cloudCoverPct float64) float64 {
	irradiance := clearSkyIrradiance * (1 - cloudCoverPct/100*0.8)
	if irradiance < 1.0 {
		return 1.0
	}
	return irradiance
}
