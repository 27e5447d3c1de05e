package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"routeweather.app/errors"
)

// Config represents the application configuration structure
type Config struct {
	Server    ServerConfig    `split_words:"true"`
	Providers ProvidersConfig `split_words:"true"`
	Cache     CacheConfig     `split_words:"true"`
	RateLimit RateLimitConfig `split_words:"true"`
	Batch     BatchConfig     `split_words:"true"`
	Scheduler SchedulerConfig `split_words:"true"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// ProvidersConfig contains per-provider credentials and endpoints.
// A missing API key means that provider is skipped, never an error.
type ProvidersConfig struct {
	OpenMeteoBaseURL      string `envconfig:"OPENMETEO_BASE_URL" default:"https://api.open-meteo.com/v1"`
	OpenWeatherMapKey     string `envconfig:"OPENWEATHERMAP_API_KEY"`
	OpenWeatherMapBaseURL string `envconfig:"OPENWEATHERMAP_BASE_URL" default:"https://api.openweathermap.org/data/2.5"`
	WeatherAPIKey         string `envconfig:"WEATHERAPI_KEY"`
	WeatherAPIBaseURL     string `envconfig:"WEATHERAPI_BASE_URL" default:"https://api.weatherapi.com/v1"`
	RequestTimeout        time.Duration `envconfig:"PROVIDER_REQUEST_TIMEOUT" default:"5s"`
	MinuteBudget          int           `envconfig:"PROVIDER_MINUTE_BUDGET" default:"50"`
	DayBudget             int           `envconfig:"PROVIDER_DAY_BUDGET" default:"900"`
}

// CacheConfig contains cache backend selection and TTL policy
type CacheConfig struct {
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	WeatherTTL    time.Duration `envconfig:"CACHE_WEATHER_TTL" default:"30m"`
	RouteTTL      time.Duration `envconfig:"CACHE_ROUTE_TTL" default:"60m"`
	GeometryTTL   time.Duration `envconfig:"CACHE_GEOMETRY_TTL" default:"24h"`
}

// RateLimitConfig contains ceilings for the general-purpose limiters
type RateLimitConfig struct {
	WeatherMaxRequests int           `envconfig:"RATE_LIMIT_WEATHER_MAX" default:"60"`
	WeatherWindow      time.Duration `envconfig:"RATE_LIMIT_WEATHER_WINDOW" default:"1m"`
	UploadMaxRequests  int           `envconfig:"RATE_LIMIT_UPLOAD_MAX" default:"10"`
	UploadWindow       time.Duration `envconfig:"RATE_LIMIT_UPLOAD_WINDOW" default:"1m"`
}

// BatchConfig tunes the route forecast orchestrator
type BatchConfig struct {
	Size            int           `envconfig:"BATCH_SIZE" default:"10"`
	StaggerDelay    time.Duration `envconfig:"BATCH_STAGGER_DELAY" default:"50ms"`
	StaggerGroup    int           `envconfig:"BATCH_STAGGER_GROUP" default:"3"`
	InterBatchDelay time.Duration `envconfig:"BATCH_INTER_DELAY" default:"150ms"`
}

// SchedulerConfig contains settings for background health probing
type SchedulerConfig struct {
	HealthProbeInterval time.Duration `envconfig:"HEALTH_PROBE_INTERVAL" default:"5m"`
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Providers.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	if err := c.Batch.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

// Validate checks provider configuration
func (p *ProvidersConfig) Validate() error {
	for name, url := range map[string]string{
		"OPENMETEO_BASE_URL":      p.OpenMeteoBaseURL,
		"OPENWEATHERMAP_BASE_URL": p.OpenWeatherMapBaseURL,
		"WEATHERAPI_BASE_URL":     p.WeatherAPIBaseURL,
	} {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return errors.NewConfigurationError(name+" must start with http:// or https://", nil)
		}
	}
	if p.RequestTimeout <= 0 {
		return errors.NewConfigurationError("PROVIDER_REQUEST_TIMEOUT must be positive", nil)
	}
	if p.MinuteBudget < 1 || p.DayBudget < 1 {
		return errors.NewConfigurationError("provider budgets must be at least 1", nil)
	}
	return nil
}

// Validate checks cache configuration
func (c *CacheConfig) Validate() error {
	if c.WeatherTTL <= 0 || c.RouteTTL <= 0 || c.GeometryTTL <= 0 {
		return errors.NewConfigurationError("cache TTLs must be positive", nil)
	}
	return nil
}

// Validate checks rate limit configuration
func (r *RateLimitConfig) Validate() error {
	if r.WeatherMaxRequests < 1 || r.UploadMaxRequests < 1 {
		return errors.NewConfigurationError("rate limit ceilings must be at least 1", nil)
	}
	if r.WeatherWindow <= 0 || r.UploadWindow <= 0 {
		return errors.NewConfigurationError("rate limit windows must be positive", nil)
	}
	return nil
}

// Validate checks batch configuration
func (b *BatchConfig) Validate() error {
	if b.Size < 1 {
		return errors.NewConfigurationError("BATCH_SIZE must be at least 1", nil)
	}
	if b.StaggerGroup < 1 {
		return errors.NewConfigurationError("BATCH_STAGGER_GROUP must be at least 1", nil)
	}
	return nil
}
