package app

import (
	"fmt"
	"log/slog"

	"routeweather.app/aggregate"
	"routeweather.app/api"
	"routeweather.app/config"
	"routeweather.app/models"
	"routeweather.app/pkg/logger"
	"routeweather.app/providers"
	"routeweather.app/providers/cache"
	"routeweather.app/ratelimit"
	"routeweather.app/scheduler"
)

// Application represents the main application with all its dependencies
type Application struct {
	config         *config.Config
	cache          cache.Cache
	registry       *providers.Registry
	server         *api.Server
	healthMonitor  *scheduler.HealthMonitor
	weatherLimiter *ratelimit.Limiter
	uploadLimiter  *ratelimit.Limiter
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	app := &Application{}

	if err := app.loadConfiguration(); err != nil {
		return nil, err
	}

	logger.New().SetDefault()

	app.initializeCache()

	if err := app.initializeServices(); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) loadConfiguration() error {
	slog.Info("Loading configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("load application configuration: %w", err)
	}

	app.config = cfg
	slog.Info("Configuration loaded successfully")
	return nil
}

func (app *Application) initializeCache() {
	backend := cache.NewFromConfig(&app.config.Cache)
	app.cache = cache.NewInstrumented(backend, cacheBackendName(backend))
}

func cacheBackendName(c cache.Cache) string {
	if _, ok := c.(*cache.RedisCache); ok {
		return "redis"
	}
	return "memory"
}

func (app *Application) initializeServices() error {
	slog.Info("Initializing services...")

	app.registry = providers.NewRegistry(&app.config.Providers)
	if len(app.registry.Configured()) == 0 {
		return fmt.Errorf("no weather providers configured")
	}

	manager := aggregate.NewManager(
		app.registry,
		app.cache,
		app.config.Cache.WeatherTTL,
		models.DefaultPreferences(),
	)
	orchestrator := aggregate.NewBatchOrchestrator(manager, app.config.Batch)

	app.healthMonitor = scheduler.NewHealthMonitor(app.registry, app.config.Scheduler.HealthProbeInterval)

	app.weatherLimiter = ratelimit.New("weather",
		app.config.RateLimit.WeatherMaxRequests, app.config.RateLimit.WeatherWindow)
	app.uploadLimiter = ratelimit.New("upload",
		app.config.RateLimit.UploadMaxRequests, app.config.RateLimit.UploadWindow)

	app.server = api.NewServer(
		app.config,
		manager,
		orchestrator,
		app.healthMonitor,
		app.cache,
		app.weatherLimiter,
		app.uploadLimiter,
	)

	slog.Info("Services initialized successfully",
		"providers", len(app.registry.Configured()),
	)
	return nil
}

// Start starts the application
func (app *Application) Start() error {
	slog.Info("Starting application...")

	slog.Info("Starting provider health monitor...")
	app.healthMonitor.Start()

	slog.Info("Starting HTTP server", "port", app.config.Server.Port)
	return app.server.Start()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	slog.Info("Shutting down application...")

	app.healthMonitor.Stop()
	app.weatherLimiter.Stop()
	app.uploadLimiter.Stop()

	if instrumented, ok := app.cache.(*cache.Instrumented); ok {
		switch backend := instrumented.Backend().(type) {
		case *cache.RedisCache:
			if err := backend.Close(); err != nil {
				slog.Warn("Error closing Redis connection", "error", err)
			}
		case *cache.MemoryCache:
			backend.Stop()
		}
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Config returns the application configuration
func (app *Application) Config() *config.Config {
	return app.config
}
