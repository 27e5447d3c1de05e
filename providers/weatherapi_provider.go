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

// WeatherAPIProvider adapts the WeatherAPI.com current weather endpoint.
// Requires an API key.
type WeatherAPIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	health     healthTracker
}

type weatherAPIResponse struct {
	Current *struct {
		LastUpdatedEpoch int64   `json:"last_updated_epoch"`
		TempC            float64 `json:"temp_c"`
		FeelsLikeC       float64 `json:"feelslike_c"`
		Humidity         float64 `json:"humidity"`
		PressureMB       float64 `json:"pressure_mb"`
		Cloud            float64 `json:"cloud"`
		VisKM            float64 `json:"vis_km"`
		WindKPH          float64 `json:"wind_kph"`
		WindDegree       float64 `json:"wind_degree"`
		GustKPH          float64 `json:"gust_kph"`
		PrecipMM         float64 `json:"precip_mm"`
		Condition        struct {
			Text string `json:"text"`
			Code int    `json:"code"`
		} `json:"condition"`
	} `json:"current"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewWeatherAPIProvider(apiKey, baseURL string, timeout time.Duration) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *WeatherAPIProvider) Name() string { return "WeatherAPI" }

func (p *WeatherAPIProvider) ID() models.ProviderID { return models.ProviderWeatherAPI }

func (p *WeatherAPIProvider) IsConfigured() bool { return p.apiKey != "" }

func (p *WeatherAPIProvider) FetchCurrent(ctx context.Context, lat, lon float64) (*models.SourcedWeatherData, error) {
	url := fmt.Sprintf("%s/current.json?key=%s&q=%.4f,%.4f&aqi=no", p.baseURL, p.apiKey, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewProviderError("build weatherapi request", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderError("weatherapi request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	// WeatherAPI reports "no matching location" as 400 with error code
	// 1006; treat it as explicit no-data rather than a failure
	if resp.StatusCode == http.StatusBadRequest {
		var apiError weatherAPIResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiError); err == nil &&
			apiError.Error != nil && apiError.Error.Code == 1006 {
			return nil, nil
		}
		return nil, errors.NewProviderError("weatherapi: bad request", nil)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleHTTPError(resp.StatusCode)
	}

	var apiResponse weatherAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, errors.NewProviderError("decode weatherapi response", err)
	}

	if apiResponse.Current == nil {
		return nil, nil
	}

	return p.convert(&apiResponse, lat, lon), nil
}

func (p *WeatherAPIProvider) handleHTTPError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewProviderError("weatherapi: invalid API key", nil)
	case http.StatusTooManyRequests:
		return errors.NewProviderError("weatherapi: rate limit exceeded", nil)
	default:
		return errors.NewProviderError(fmt.Sprintf("weatherapi: HTTP %d error", statusCode), nil)
	}
}

func (p *WeatherAPIProvider) convert(apiResp *weatherAPIResponse, lat, lon float64) *models.SourcedWeatherData {
	cur := apiResp.Current

	timestamp := time.Now().UTC()
	if cur.LastUpdatedEpoch > 0 {
		timestamp = time.Unix(cur.LastUpdatedEpoch, 0).UTC()
	}

	return &models.SourcedWeatherData{
		Provider:      models.ProviderWeatherAPI,
		Latitude:      lat,
		Longitude:     lon,
		Timestamp:     timestamp,
		Temperature:   cur.TempC,
		FeelsLike:     cur.FeelsLikeC,
		Humidity:      cur.Humidity,
		Pressure:      cur.PressureMB,
		DewPoint:      DewPoint(cur.TempC, cur.Humidity),
		CloudCover:    cur.Cloud,
		Visibility:    KmToMeters(cur.VisKM),
		WindSpeed:     KmhToMs(cur.WindKPH),
		WindDirection: cur.WindDegree,
		WindGust:      KmhToMs(cur.GustKPH),
		RainMM:        cur.PrecipMM,
		ConditionCode: cur.Condition.Code,
		Condition:     cur.Condition.Text,
		FetchedAt:     time.Now().UTC(),
	}
}

func (p *WeatherAPIProvider) CheckHealth(ctx context.Context) models.ProviderStatusInfo {
	return checkProviderHealth(ctx, p, &p.health)
}
