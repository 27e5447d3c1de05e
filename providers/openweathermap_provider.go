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

// OpenWeatherMapProvider adapts the OpenWeatherMap current weather API.
// Requires an API key.
type OpenWeatherMapProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	health     healthTracker
}

type openWeatherMapResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
	Visibility float64 `json:"visibility"`
	DT         int64   `json:"dt"`
	Message    string  `json:"message,omitempty"`
}

func NewOpenWeatherMapProvider(apiKey, baseURL string, timeout time.Duration) *OpenWeatherMapProvider {
	return &OpenWeatherMapProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *OpenWeatherMapProvider) Name() string { return "OpenWeatherMap" }

func (p *OpenWeatherMapProvider) ID() models.ProviderID { return models.ProviderOpenWeatherMap }

func (p *OpenWeatherMapProvider) IsConfigured() bool { return p.apiKey != "" }

func (p *OpenWeatherMapProvider) FetchCurrent(ctx context.Context, lat, lon float64) (*models.SourcedWeatherData, error) {
	url := fmt.Sprintf("%s/weather?lat=%.4f&lon=%.4f&appid=%s&units=metric", p.baseURL, lat, lon, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewProviderError("build openweathermap request", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderError("openweathermap request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	// 404 is the provider's explicit "no data for this location"
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleHTTPError(resp.StatusCode)
	}

	var apiResponse openWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, errors.NewProviderError("decode openweathermap response", err)
	}

	return p.convert(&apiResponse, lat, lon), nil
}

func (p *OpenWeatherMapProvider) handleHTTPError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return errors.NewProviderError("openweathermap: invalid API key", nil)
	case http.StatusTooManyRequests:
		return errors.NewProviderError("openweathermap: rate limit exceeded", nil)
	case http.StatusServiceUnavailable:
		return errors.NewProviderError("openweathermap: service unavailable", nil)
	default:
		return errors.NewProviderError(fmt.Sprintf("openweathermap: HTTP %d error", statusCode), nil)
	}
}

func (p *OpenWeatherMapProvider) convert(apiResp *openWeatherMapResponse, lat, lon float64) *models.SourcedWeatherData {
	conditionCode := 0
	description := "unknown"
	if len(apiResp.Weather) > 0 {
		conditionCode = apiResp.Weather[0].ID
		description = apiResp.Weather[0].Description
	}

	timestamp := time.Now().UTC()
	if apiResp.DT > 0 {
		timestamp = time.Unix(apiResp.DT, 0).UTC()
	}

	// With units=metric, wind is already m/s and pressure hPa
	return &models.SourcedWeatherData{
		Provider:      models.ProviderOpenWeatherMap,
		Latitude:      lat,
		Longitude:     lon,
		Timestamp:     timestamp,
		Temperature:   apiResp.Main.Temp,
		FeelsLike:     apiResp.Main.FeelsLike,
		Humidity:      apiResp.Main.Humidity,
		Pressure:      apiResp.Main.Pressure,
		DewPoint:      DewPoint(apiResp.Main.Temp, apiResp.Main.Humidity),
		CloudCover:    apiResp.Clouds.All,
		Visibility:    apiResp.Visibility,
		WindSpeed:     apiResp.Wind.Speed,
		WindDirection: apiResp.Wind.Deg,
		WindGust:      apiResp.Wind.Gust,
		RainMM:        apiResp.Rain.OneHour,
		SnowMM:        apiResp.Snow.OneHour,
		ConditionCode: conditionCode,
		Condition:     description,
		FetchedAt:     time.Now().UTC(),
	}
}

func (p *OpenWeatherMapProvider) CheckHealth(ctx context.Context) models.ProviderStatusInfo {
	return checkProviderHealth(ctx, p, &p.health)
}
