package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"routeweather.app/errors"
	"routeweather.app/models"
)

// BreakerProvider wraps an adapter with a circuit breaker. After a run
// of consecutive failures the breaker opens and the provider is
// excluded from fan-out rounds until the cool-down passes, sparing a
// struggling upstream from further traffic.
type BreakerProvider struct {
	inner   WeatherProvider
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerProvider(inner WeatherProvider) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:    inner.Name(),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("provider circuit breaker state change",
				"provider", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *BreakerProvider) FetchCurrent(ctx context.Context, lat, lon float64) (*models.SourcedWeatherData, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.FetchCurrent(ctx, lat, lon)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, errors.NewProviderError(p.inner.Name()+": circuit breaker open", err)
		}
		return nil, err
	}

	data, _ := result.(*models.SourcedWeatherData)
	return data, nil
}

func (p *BreakerProvider) CheckHealth(ctx context.Context) models.ProviderStatusInfo {
	return p.inner.CheckHealth(ctx)
}

func (p *BreakerProvider) IsConfigured() bool { return p.inner.IsConfigured() }

func (p *BreakerProvider) Name() string { return p.inner.Name() }

func (p *BreakerProvider) ID() models.ProviderID { return p.inner.ID() }
