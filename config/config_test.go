package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		os.Clearenv()

		config, err := LoadConfig()

		assert.NoError(t, err)
		assert.NotNil(t, config)
		assert.Equal(t, 8080, config.Server.Port)
		assert.Equal(t, "https://api.open-meteo.com/v1", config.Providers.OpenMeteoBaseURL)
		assert.Equal(t, "https://api.openweathermap.org/data/2.5", config.Providers.OpenWeatherMapBaseURL)
		assert.Equal(t, "https://api.weatherapi.com/v1", config.Providers.WeatherAPIBaseURL)
		assert.Empty(t, config.Providers.OpenWeatherMapKey)
		assert.Empty(t, config.Providers.WeatherAPIKey)
		assert.Equal(t, 5*time.Second, config.Providers.RequestTimeout)
		assert.Equal(t, 30*time.Minute, config.Cache.WeatherTTL)
		assert.Equal(t, time.Hour, config.Cache.RouteTTL)
		assert.Equal(t, 24*time.Hour, config.Cache.GeometryTTL)
		assert.Equal(t, 60, config.RateLimit.WeatherMaxRequests)
		assert.Equal(t, time.Minute, config.RateLimit.WeatherWindow)
		assert.Equal(t, 10, config.Batch.Size)
		assert.Equal(t, 50*time.Millisecond, config.Batch.StaggerDelay)
		assert.Equal(t, 150*time.Millisecond, config.Batch.InterBatchDelay)
		assert.Equal(t, 5*time.Minute, config.Scheduler.HealthProbeInterval)
	})

	t.Run("CustomValues", func(t *testing.T) {
		os.Clearenv()

		require.NoError(t, os.Setenv("SERVER_PORT", "9090"))
		require.NoError(t, os.Setenv("OPENWEATHERMAP_API_KEY", "owm-key"))
		require.NoError(t, os.Setenv("WEATHERAPI_KEY", "wapi-key"))
		require.NoError(t, os.Setenv("REDIS_ADDR", "localhost:6379"))
		require.NoError(t, os.Setenv("CACHE_WEATHER_TTL", "15m"))
		require.NoError(t, os.Setenv("BATCH_SIZE", "5"))
		require.NoError(t, os.Setenv("RATE_LIMIT_WEATHER_MAX", "120"))

		config, err := LoadConfig()

		assert.NoError(t, err)
		assert.NotNil(t, config)
		assert.Equal(t, 9090, config.Server.Port)
		assert.Equal(t, "owm-key", config.Providers.OpenWeatherMapKey)
		assert.Equal(t, "wapi-key", config.Providers.WeatherAPIKey)
		assert.Equal(t, "localhost:6379", config.Cache.RedisAddr)
		assert.Equal(t, 15*time.Minute, config.Cache.WeatherTTL)
		assert.Equal(t, 5, config.Batch.Size)
		assert.Equal(t, 120, config.RateLimit.WeatherMaxRequests)
	})

	t.Run("InvalidPort", func(t *testing.T) {
		os.Clearenv()
		require.NoError(t, os.Setenv("SERVER_PORT", "70000"))

		config, err := LoadConfig()

		assert.Error(t, err)
		assert.Nil(t, config)
		assert.Contains(t, err.Error(), "SERVER_PORT")
	})

	t.Run("InvalidBaseURL", func(t *testing.T) {
		os.Clearenv()
		require.NoError(t, os.Setenv("OPENMETEO_BASE_URL", "ftp://bad"))

		config, err := LoadConfig()

		assert.Error(t, err)
		assert.Nil(t, config)
	})

	t.Run("InvalidBatchSize", func(t *testing.T) {
		os.Clearenv()
		require.NoError(t, os.Setenv("BATCH_SIZE", "0"))

		config, err := LoadConfig()

		assert.Error(t, err)
		assert.Nil(t, config)
		assert.Contains(t, err.Error(), "BATCH_SIZE")
	})
}
