package aggregate

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"routeweather.app/errors"
	"routeweather.app/metrics"
	"routeweather.app/models"
	"routeweather.app/providers"
	"routeweather.app/providers/cache"
)

// Manager orchestrates the configured provider set for one coordinate:
// cache check, concurrent fan-out, consensus and write-back. Construct
// one per process and pass it by reference.
type Manager struct {
	registry    *providers.Registry
	cache       cache.Cache
	weatherTTL  time.Duration
	preferences models.WeatherSourcePreferences
}

func NewManager(
	registry *providers.Registry,
	weatherCache cache.Cache,
	weatherTTL time.Duration,
	preferences models.WeatherSourcePreferences,
) *Manager {
	return &Manager{
		registry:    registry,
		cache:       weatherCache,
		weatherTTL:  weatherTTL,
		preferences: preferences,
	}
}

// Preferences returns the manager's configured preference set
func (m *Manager) Preferences() models.WeatherSourcePreferences {
	return m.preferences
}

// Registry exposes the provider set for health probing
func (m *Manager) Registry() *providers.Registry {
	return m.registry
}

type fetchOutcome struct {
	id   models.ProviderID
	data *models.SourcedWeatherData
	err  error
}

// FetchMultiSourceData aggregates weather for one coordinate across all
// eligible providers. providerIDs narrows the enabled set when non-nil.
// The only fatal outcome is zero providers returning data.
func (m *Manager) FetchMultiSourceData(ctx context.Context, lat, lon float64, providerIDs []models.ProviderID) (*models.MultiSourceWeatherData, error) {
	key := cache.WeatherKey(lat, lon)

	if data, found := m.cache.Get(ctx, key); found {
		var cached models.MultiSourceWeatherData
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		// Treat a corrupt entry as a miss
		slog.Warn("discarding unreadable cache entry", "key", key)
	}

	eligible := m.eligibleProviders(providerIDs)
	if len(eligible) == 0 {
		return nil, errors.NewNoDataError("no weather providers available")
	}

	outcomes := make(chan fetchOutcome, len(eligible))
	var wg sync.WaitGroup

	for _, id := range eligible {
		entry, _ := m.registry.Get(id)
		wg.Add(1)
		go func(id models.ProviderID, p providers.WeatherProvider) {
			defer wg.Done()
			data, err := p.FetchCurrent(ctx, lat, lon)
			outcomes <- fetchOutcome{id: id, data: data, err: err}
		}(id, entry.Provider)
	}

	wg.Wait()
	close(outcomes)

	// Collect successes keyed by provider so the final slice follows
	// the canonical order regardless of goroutine interleaving
	byProvider := make(map[models.ProviderID]*models.SourcedWeatherData)
	for outcome := range outcomes {
		switch {
		case outcome.err != nil:
			slog.Warn("provider excluded from round",
				"provider", outcome.id, "lat", lat, "lon", lon, "error", outcome.err)
		case outcome.data == nil:
			slog.Info("provider returned no data",
				"provider", outcome.id, "lat", lat, "lon", lon)
		default:
			byProvider[outcome.id] = outcome.data
		}
	}

	var sources []models.SourcedWeatherData
	for _, id := range m.registry.Order() {
		if data, ok := byProvider[id]; ok {
			sources = append(sources, *data)
		}
	}

	if len(sources) == 0 {
		return nil, errors.NewNoDataError("no data from any source")
	}

	result := &models.MultiSourceWeatherData{
		Latitude:   lat,
		Longitude:  lon,
		FetchedAt:  time.Now().UTC(),
		Sources:    sources,
		Consensus:  ComputeConsensus(sources, m.registry.Order()),
		Comparison: ComputeComparison(sources),
	}

	// Fire-and-forget write-back; a failed write never fails the fetch
	if data, err := json.Marshal(result); err == nil {
		m.cache.Set(ctx, key, data, m.weatherTTL)
	}

	return result, nil
}

// FetchMultiSourceForecast aggregates weather for one route point and
// attaches the primary record and its derived alerts
func (m *Manager) FetchMultiSourceForecast(ctx context.Context, point models.RoutePoint, providerIDs []models.ProviderID) (*models.MultiSourceWeatherForecast, error) {
	weather, err := m.FetchMultiSourceData(ctx, point.Latitude, point.Longitude, providerIDs)
	if err != nil {
		return nil, err
	}

	primary := m.selectPrimary(weather.Sources)

	return &models.MultiSourceWeatherForecast{
		Point:   point,
		Weather: *weather,
		Primary: primary,
		Alerts:  DeriveAlerts(primary),
	}, nil
}

// eligibleProviders narrows the enabled set to providers that are
// known, configured and still within their own request budget
func (m *Manager) eligibleProviders(providerIDs []models.ProviderID) []models.ProviderID {
	requested := providerIDs
	if requested == nil {
		requested = m.preferences.EnabledProviders
	}

	var eligible []models.ProviderID
	for _, id := range m.registry.Order() {
		if !containsProvider(requested, id) {
			continue
		}
		entry, ok := m.registry.Get(id)
		if !ok {
			continue
		}
		if !entry.Provider.IsConfigured() {
			metrics.RecordProviderSkip(string(id), "not_configured")
			continue
		}
		if !entry.Budget.Allow() {
			metrics.RecordProviderSkip(string(id), "budget_exhausted")
			slog.Info("provider budget exhausted, skipping round", "provider", id)
			continue
		}
		eligible = append(eligible, id)
	}
	return eligible
}

// selectPrimary picks the record matching the preferred primary source,
// falling back to the first returned source in canonical order
func (m *Manager) selectPrimary(sources []models.SourcedWeatherData) *models.SourcedWeatherData {
	if len(sources) == 0 {
		return nil
	}

	for i := range sources {
		if sources[i].Provider == m.preferences.PrimarySource {
			return &sources[i]
		}
	}

	if !m.preferences.AutoFallback {
		return nil
	}

	// Sources are already in canonical provider order
	return &sources[0]
}

func containsProvider(ids []models.ProviderID, id models.ProviderID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
