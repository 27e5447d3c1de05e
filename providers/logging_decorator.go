package providers

import (
	"context"
	"log/slog"
	"time"

	"routeweather.app/metrics"
	"routeweather.app/models"
)

// LoggingDecorator wraps an adapter with structured request/response
// logging and Prometheus instrumentation
type LoggingDecorator struct {
	inner WeatherProvider
}

func NewLoggingDecorator(inner WeatherProvider) *LoggingDecorator {
	return &LoggingDecorator{inner: inner}
}

func (d *LoggingDecorator) FetchCurrent(ctx context.Context, lat, lon float64) (*models.SourcedWeatherData, error) {
	slog.Debug("provider request", "provider", d.inner.Name(), "lat", lat, "lon", lon)

	start := time.Now()
	data, err := d.inner.FetchCurrent(ctx, lat, lon)
	duration := time.Since(start)

	metrics.RecordProviderRequest(string(d.inner.ID()), duration.Seconds(), err)

	switch {
	case err != nil:
		slog.Warn("provider request failed",
			"provider", d.inner.Name(), "lat", lat, "lon", lon,
			"duration", duration, "error", err)
	case data == nil:
		slog.Info("provider reported no data",
			"provider", d.inner.Name(), "lat", lat, "lon", lon, "duration", duration)
	default:
		slog.Debug("provider response",
			"provider", d.inner.Name(), "lat", lat, "lon", lon,
			"duration", duration, "temperature", data.Temperature)
	}

	return data, err
}

func (d *LoggingDecorator) CheckHealth(ctx context.Context) models.ProviderStatusInfo {
	return d.inner.CheckHealth(ctx)
}

func (d *LoggingDecorator) IsConfigured() bool { return d.inner.IsConfigured() }

func (d *LoggingDecorator) Name() string { return d.inner.Name() }

func (d *LoggingDecorator) ID() models.ProviderID { return d.inner.ID() }
