package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"routeweather.app/errors"
	"routeweather.app/models"
)

// OpenMeteoProvider adapts the Open-Meteo forecast API. It requires no
// API key and serves as the default primary source.
type OpenMeteoProvider struct {
	baseURL    string
	httpClient *http.Client
	health     healthTracker
}

type openMeteoResponse struct {
	Current *struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		Humidity      float64 `json:"relative_humidity_2m"`
		FeelsLike     float64 `json:"apparent_temperature"`
		DewPoint      float64 `json:"dew_point_2m"`
		Pressure      float64 `json:"pressure_msl"`
		CloudCover    float64 `json:"cloud_cover"`
		Visibility    float64 `json:"visibility"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WindDirection float64 `json:"wind_direction_10m"`
		WindGust      float64 `json:"wind_gusts_10m"`
		Rain          float64 `json:"rain"`
		Snowfall      float64 `json:"snowfall"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
	Reason string `json:"reason,omitempty"`
}

func NewOpenMeteoProvider(baseURL string, timeout time.Duration) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *OpenMeteoProvider) Name() string { return "Open-Meteo" }

func (p *OpenMeteoProvider) ID() models.ProviderID { return models.ProviderOpenMeteo }

// IsConfigured is always true: Open-Meteo needs no API key
func (p *OpenMeteoProvider) IsConfigured() bool { return true }

func (p *OpenMeteoProvider) FetchCurrent(ctx context.Context, lat, lon float64) (*models.SourcedWeatherData, error) {
	url := fmt.Sprintf(
		"%s/forecast?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m,apparent_temperature,dew_point_2m,pressure_msl,cloud_cover,visibility,wind_speed_10m,wind_direction_10m,wind_gusts_10m,rain,snowfall,weather_code&wind_speed_unit=ms&timezone=UTC",
		p.baseURL, lat, lon,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewProviderError("build open-meteo request", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderError("open-meteo request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleHTTPError(resp.StatusCode)
	}

	var apiResponse openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, errors.NewProviderError("decode open-meteo response", err)
	}

	// The API answers 200 with an empty current block for coordinates
	// it has no model data for
	if apiResponse.Current == nil {
		return nil, nil
	}

	return p.convert(&apiResponse, lat, lon), nil
}

func (p *OpenMeteoProvider) handleHTTPError(statusCode int) error {
	switch statusCode {
	case http.StatusBadRequest:
		return errors.NewProviderError("open-meteo: invalid coordinates", nil)
	case http.StatusTooManyRequests:
		return errors.NewProviderError("open-meteo: rate limit exceeded", nil)
	default:
		return errors.NewProviderError(fmt.Sprintf("open-meteo: HTTP %d error", statusCode), nil)
	}
}

func (p *OpenMeteoProvider) convert(apiResp *openMeteoResponse, lat, lon float64) *models.SourcedWeatherData {
	cur := apiResp.Current

	timestamp := time.Now().UTC()
	if ts, err := time.Parse("2006-01-02T15:04", cur.Time); err == nil {
		timestamp = ts.UTC()
	}

	return &models.SourcedWeatherData{
		Provider:      models.ProviderOpenMeteo,
		Latitude:      lat,
		Longitude:     lon,
		Timestamp:     timestamp,
		Temperature:   cur.Temperature,
		FeelsLike:     cur.FeelsLike,
		Humidity:      cur.Humidity,
		Pressure:      cur.Pressure,
		DewPoint:      cur.DewPoint,
		CloudCover:    cur.CloudCover,
		Visibility:    cur.Visibility,
		WindSpeed:     cur.WindSpeed,
		WindDirection: cur.WindDirection,
		WindGust:      cur.WindGust,
		RainMM:        cur.Rain,
		SnowMM:        cur.Snowfall * 10, // cm of snowfall to mm of water-equivalent precipitation
		ConditionCode: cur.WeatherCode,
		Condition:     wmoCondition(cur.WeatherCode),
		FetchedAt:     time.Now().UTC(),
	}
}

// wmoCondition maps WMO weather interpretation codes to descriptions
func wmoCondition(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 2:
		return "partly cloudy"
	case code == 3:
		return "overcast"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code == 85 || code == 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}

func (p *OpenMeteoProvider) CheckHealth(ctx context.Context) models.ProviderStatusInfo {
	return checkProviderHealth(ctx, p, &p.health)
}
