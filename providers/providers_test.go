package providers

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
)

func testProvidersConfig() *config.ProvidersConfig {
	return &config.ProvidersConfig{
		OpenMeteoBaseURL:      "https://api.open-meteo.com/v1",
		OpenWeatherMapBaseURL: "https://api.openweathermap.org/data/2.5",
		WeatherAPIBaseURL:     "https://api.weatherapi.com/v1",
		RequestTimeout:        5 * time.Second,
		MinuteBudget:          50,
		DayBudget:             900,
	}
}

func TestDewPoint(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		humidity float64
		expected float64
	}{
		{name: "Saturated air", temp: 20.0, humidity: 100.0, expected: 20.0},
		{name: "Typical conditions", temp: 20.0, humidity: 50.0, expected: 9.3},
		{name: "Cold and dry", temp: 0.0, humidity: 40.0, expected: -11.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DewPoint(tt.temp, tt.humidity), 0.2)
		})
	}
}

func TestUnitConversions(t *testing.T) {
	assert.InDelta(t, 10.0, KmhToMs(36.0), 0.001)
	assert.Equal(t, 10000.0, KmToMeters(10.0))
}

func TestOpenMeteoProvider_FetchCurrent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.RawQuery, "latitude=50.4500")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"current": {
					"time": "2026-06-01T12:00",
					"temperature_2m": 21.5,
					"relative_humidity_2m": 55,
					"apparent_temperature": 20.9,
					"dew_point_2m": 12.1,
					"pressure_msl": 1014.2,
					"cloud_cover": 40,
					"visibility": 24000,
					"wind_speed_10m": 4.2,
					"wind_direction_10m": 180,
					"wind_gusts_10m": 7.8,
					"rain": 0,
					"snowfall": 0,
					"weather_code": 2
				}
			}`))
		}))
		defer server.Close()

		provider := NewOpenMeteoProvider(server.URL, 5*time.Second)
		data, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)

		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Equal(t, models.ProviderOpenMeteo, data.Provider)
		assert.Equal(t, 21.5, data.Temperature)
		assert.Equal(t, 55.0, data.Humidity)
		assert.Equal(t, 1014.2, data.Pressure)
		assert.Equal(t, 12.1, data.DewPoint)
		assert.Equal(t, 4.2, data.WindSpeed)
		assert.Equal(t, "partly cloudy", data.Condition)
		assert.Equal(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC), data.Timestamp)
	})

	t.Run("NoData", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		provider := NewOpenMeteoProvider(server.URL, 5*time.Second)
		data, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)

		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		provider := NewOpenMeteoProvider(server.URL, 5*time.Second)
		data, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)

		assert.Error(t, err)
		assert.Nil(t, data)
	})

	t.Run("AlwaysConfigured", func(t *testing.T) {
		provider := NewOpenMeteoProvider("https://api.open-meteo.com/v1", 5*time.Second)
		assert.True(t, provider.IsConfigured())
	})
}

func TestOpenWeatherMapProvider_FetchCurrent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.RawQuery, "appid=test-key")
			assert.Contains(t, r.URL.RawQuery, "units=metric")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"main": {"temp": 18.0, "feels_like": 17.2, "pressure": 1011, "humidity": 62},
				"weather": [{"id": 500, "description": "light rain"}],
				"wind": {"speed": 3.5, "deg": 240, "gust": 6.1},
				"clouds": {"all": 90},
				"rain": {"1h": 0.4},
				"visibility": 8000,
				"dt": 1780315200
			}`))
		}))
		defer server.Close()

		provider := NewOpenWeatherMapProvider("test-key", server.URL, 5*time.Second)
		data, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)

		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Equal(t, models.ProviderOpenWeatherMap, data.Provider)
		assert.Equal(t, 18.0, data.Temperature)
		assert.Equal(t, 62.0, data.Humidity)
		assert.Equal(t, 3.5, data.WindSpeed)
		assert.Equal(t, 0.4, data.RainMM)
		assert.Equal(t, 500, data.ConditionCode)
		assert.Equal(t, "light rain", data.Condition)
		// Dew point derived via Magnus since OWM does not report it
		assert.InDelta(t, DewPoint(18.0, 62.0), data.DewPoint, 0.001)
	})

	t.Run("NotFoundMeansNoData", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		provider := NewOpenWeatherMapProvider("test-key", server.URL, 5*time.Second)
		data, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)

		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("InvalidAPIKey", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		provider := NewOpenWeatherMapProvider("bad-key", server.URL, 5*time.Second)
		_, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid API key")
	})

	t.Run("NotConfiguredWithoutKey", func(t *testing.T) {
		provider := NewOpenWeatherMapProvider("", "https://api.openweathermap.org/data/2.5", 5*time.Second)
		assert.False(t, provider.IsConfigured())
	})
}

func TestWeatherAPIProvider_FetchCurrent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"current": {
					"last_updated_epoch": 1780315200,
					"temp_c": 22.0,
					"feelslike_c": 23.1,
					"humidity": 48,
					"pressure_mb": 1015,
					"cloud": 25,
					"vis_km": 10,
					"wind_kph": 18,
					"wind_degree": 90,
					"gust_kph": 27,
					"precip_mm": 0,
					"condition": {"text": "Sunny", "code": 1000}
				}
			}`))
		}))
		defer server.Close()

		provider := NewWeatherAPIProvider("test-key", server.URL, 5*time.Second)
		data, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)

		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Equal(t, models.ProviderWeatherAPI, data.Provider)
		assert.Equal(t, 22.0, data.Temperature)
		// Wind normalized from km/h to m/s, visibility from km to meters
		assert.InDelta(t, 5.0, data.WindSpeed, 0.001)
		assert.InDelta(t, 7.5, data.WindGust, 0.001)
		assert.Equal(t, 10000.0, data.Visibility)
		assert.Equal(t, "Sunny", data.Condition)
	})

	t.Run("NoMatchingLocationMeansNoData", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"code": 1006, "message": "No matching location found."}}`))
		}))
		defer server.Close()

		provider := NewWeatherAPIProvider("test-key", server.URL, 5*time.Second)
		data, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)

		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("RateLimited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		provider := NewWeatherAPIProvider("test-key", server.URL, 5*time.Second)
		_, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "rate limit exceeded")
	})
}

func TestProvider_CheckHealth(t *testing.T) {
	t.Run("Available", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"current": {"time": "2026-06-01T12:00", "temperature_2m": 15}}`))
		}))
		defer server.Close()

		provider := NewOpenMeteoProvider(server.URL, 5*time.Second)
		info := provider.CheckHealth(context.Background())

		assert.Equal(t, models.StatusAvailable, info.Status)
		assert.Empty(t, info.Error)
		assert.Equal(t, 1.0, info.SuccessRate)
		assert.False(t, info.LastChecked.IsZero())
	})

	t.Run("Degraded", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		provider := NewOpenMeteoProvider(server.URL, 5*time.Second)
		info := provider.CheckHealth(context.Background())

		assert.Equal(t, models.StatusDegraded, info.Status)
	})

	t.Run("Unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		server.Close() // closed on purpose: connection refused

		provider := NewOpenMeteoProvider(server.URL, time.Second)
		info := provider.CheckHealth(context.Background())

		assert.Equal(t, models.StatusUnavailable, info.Status)
		assert.NotEmpty(t, info.Error)
		assert.Equal(t, 0.0, info.SuccessRate)
	})

	t.Run("RollingSuccessRate", func(t *testing.T) {
		var fail bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fail {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"current": {"time": "2026-06-01T12:00", "temperature_2m": 15}}`))
		}))
		defer server.Close()

		provider := NewOpenMeteoProvider(server.URL, 5*time.Second)

		provider.CheckHealth(context.Background())
		fail = true
		info := provider.CheckHealth(context.Background())

		assert.Equal(t, models.StatusUnavailable, info.Status)
		assert.Equal(t, 0.5, info.SuccessRate)
	})
}

func TestBudget_Allow(t *testing.T) {
	t.Run("MinuteCeiling", func(t *testing.T) {
		budget := NewBudget(3, 100)

		for i := 0; i < 3; i++ {
			assert.True(t, budget.Allow(), "call %d should be allowed", i+1)
		}
		assert.False(t, budget.Allow())

		state := budget.State()
		assert.Equal(t, 3, state.MinuteCount)
		assert.Equal(t, 3, state.DayCount)
	})

	t.Run("MinuteWindowReset", func(t *testing.T) {
		budget := NewBudget(1, 100)
		current := time.Now()
		budget.now = func() time.Time { return current }

		assert.True(t, budget.Allow())
		assert.False(t, budget.Allow())

		current = current.Add(61 * time.Second)
		assert.True(t, budget.Allow())
		assert.Equal(t, 1, budget.State().MinuteCount)
	})

	t.Run("DayCeilingOutlivesMinuteReset", func(t *testing.T) {
		budget := NewBudget(10, 2)
		current := time.Now()
		budget.now = func() time.Time { return current }

		assert.True(t, budget.Allow())
		assert.True(t, budget.Allow())

		current = current.Add(2 * time.Minute)
		assert.False(t, budget.Allow())

		current = current.Add(25 * time.Hour)
		assert.True(t, budget.Allow())
	})
}

func TestBreakerProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewBreakerProvider(NewOpenMeteoProvider(server.URL, time.Second))

	// Five consecutive failures trip the breaker
	for i := 0; i < 5; i++ {
		_, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)
		assert.Error(t, err)
	}

	_, err := provider.FetchCurrent(context.Background(), 50.45, 30.52)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestRegistry(t *testing.T) {
	cfg := testProvidersConfig()
	cfg.OpenWeatherMapKey = "owm-key"

	registry := NewRegistry(cfg)

	t.Run("AllKnownProvidersPresent", func(t *testing.T) {
		for _, id := range models.AllProviderIDs() {
			entry, ok := registry.Get(id)
			assert.True(t, ok, "missing %s", id)
			assert.NotNil(t, entry.Budget)
		}
	})

	t.Run("ConfiguredExcludesKeylessProviders", func(t *testing.T) {
		configured := registry.Configured()
		assert.Equal(t, []models.ProviderID{models.ProviderOpenMeteo, models.ProviderOpenWeatherMap}, configured)
	})

	t.Run("OrderIsCanonical", func(t *testing.T) {
		assert.Equal(t, models.AllProviderIDs(), registry.Order())
	})
}
