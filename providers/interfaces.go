// Package providers contains one adapter per external weather service,
// all normalizing into models.SourcedWeatherData.
package providers

import (
	"context"

	"routeweather.app/models"
)

// WeatherProvider is the contract every adapter implements.
//
// FetchCurrent returns (nil, nil) only when the provider explicitly
// reports no data for the coordinate; network and HTTP errors are
// returned as errors and handled by the caller.
type WeatherProvider interface {
	FetchCurrent(ctx context.Context, lat, lon float64) (*models.SourcedWeatherData, error)
	CheckHealth(ctx context.Context) models.ProviderStatusInfo
	IsConfigured() bool
	Name() string
	ID() models.ProviderID
}

// Reference coordinate used by health probes (Kyiv city center)
const (
	healthCheckLat = 50.4501
	healthCheckLon = 30.5234
)
