package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"routeweather.app/config"
	"routeweather.app/models"
	"routeweather.app/providers"
)

func TestHealthMonitor_ProbeAll(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current": {"time": "2026-06-01T12:00", "temperature_2m": 15}}`))
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	registry := providers.NewRegistry(&config.ProvidersConfig{
		OpenMeteoBaseURL:      healthy.URL,
		OpenWeatherMapKey:     "test-key",
		OpenWeatherMapBaseURL: broken.URL,
		WeatherAPIBaseURL:     "https://api.weatherapi.com/v1",
		RequestTimeout:        2 * time.Second,
		MinuteBudget:          100,
		DayBudget:             1000,
	})

	monitor := NewHealthMonitor(registry, time.Minute)
	monitor.ProbeAll(context.Background())

	statuses := monitor.Statuses()
	// WeatherAPI has no key and is not probed at all
	require.Len(t, statuses, 2)

	byProvider := make(map[models.ProviderID]models.ProviderStatusInfo)
	for _, s := range statuses {
		byProvider[s.Provider] = s
	}

	assert.Equal(t, models.StatusAvailable, byProvider[models.ProviderOpenMeteo].Status)
	assert.Equal(t, models.StatusUnavailable, byProvider[models.ProviderOpenWeatherMap].Status)
	assert.NotEmpty(t, byProvider[models.ProviderOpenWeatherMap].Error)
	assert.False(t, byProvider[models.ProviderOpenMeteo].LastChecked.IsZero())
}

func TestHealthMonitor_StartAndStop(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current": {"time": "2026-06-01T12:00", "temperature_2m": 15}}`))
	}))
	defer healthy.Close()

	registry := providers.NewRegistry(&config.ProvidersConfig{
		OpenMeteoBaseURL:      healthy.URL,
		OpenWeatherMapBaseURL: "https://api.openweathermap.org/data/2.5",
		WeatherAPIBaseURL:     "https://api.weatherapi.com/v1",
		RequestTimeout:        2 * time.Second,
		MinuteBudget:          100,
		DayBudget:             1000,
	})

	monitor := NewHealthMonitor(registry, time.Hour)
	monitor.Start()
	defer monitor.Stop()

	// The initial probe runs asynchronously on Start
	assert.Eventually(t, func() bool {
		return len(monitor.Statuses()) == 1
	}, time.Second, 10*time.Millisecond)
}
