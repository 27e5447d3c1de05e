package providers

import (
	"routeweather.app/config"
	"routeweather.app/models"
)

// Entry bundles a constructed adapter with its static metadata and its
// own request budget
type Entry struct {
	Provider WeatherProvider
	Config   models.ProviderConfig
	Budget   *Budget
}

// Registry owns every known adapter, configured or not. Adapters whose
// API key is absent stay in the registry with IsConfigured() == false
// so callers can exclude them from fan-out without health-checking them.
type Registry struct {
	entries map[models.ProviderID]*Entry
	order   []models.ProviderID
}

// NewRegistry constructs one adapter per known provider from process
// configuration. Each adapter is wrapped with a circuit breaker and the
// logging decorator.
func NewRegistry(cfg *config.ProvidersConfig) *Registry {
	registry := &Registry{
		entries: make(map[models.ProviderID]*Entry),
		order:   models.AllProviderIDs(),
	}

	registry.add(
		NewOpenMeteoProvider(cfg.OpenMeteoBaseURL, cfg.RequestTimeout),
		models.ProviderConfig{
			ID:                models.ProviderOpenMeteo,
			DisplayName:       "Open-Meteo",
			RequiresAPIKey:    false,
			RequestsPerMinute: cfg.MinuteBudget,
			RequestsPerDay:    cfg.DayBudget,
			BaseURL:           cfg.OpenMeteoBaseURL,
		},
	)

	registry.add(
		NewOpenWeatherMapProvider(cfg.OpenWeatherMapKey, cfg.OpenWeatherMapBaseURL, cfg.RequestTimeout),
		models.ProviderConfig{
			ID:                models.ProviderOpenWeatherMap,
			DisplayName:       "OpenWeatherMap",
			RequiresAPIKey:    true,
			RequestsPerMinute: cfg.MinuteBudget,
			RequestsPerDay:    cfg.DayBudget,
			BaseURL:           cfg.OpenWeatherMapBaseURL,
		},
	)

	registry.add(
		NewWeatherAPIProvider(cfg.WeatherAPIKey, cfg.WeatherAPIBaseURL, cfg.RequestTimeout),
		models.ProviderConfig{
			ID:                models.ProviderWeatherAPI,
			DisplayName:       "WeatherAPI",
			RequiresAPIKey:    true,
			RequestsPerMinute: cfg.MinuteBudget,
			RequestsPerDay:    cfg.DayBudget,
			BaseURL:           cfg.WeatherAPIBaseURL,
		},
	)

	return registry
}

func (r *Registry) add(provider WeatherProvider, cfg models.ProviderConfig) {
	r.entries[cfg.ID] = &Entry{
		Provider: NewLoggingDecorator(NewBreakerProvider(provider)),
		Config:   cfg,
		Budget:   NewBudget(cfg.RequestsPerMinute, cfg.RequestsPerDay),
	}
}

// Get returns the entry for a provider, if known
func (r *Registry) Get(id models.ProviderID) (*Entry, bool) {
	entry, ok := r.entries[id]
	return entry, ok
}

// Order returns the canonical provider order used for fallback and
// consensus tie-breaking
func (r *Registry) Order() []models.ProviderID {
	return r.order
}

// Configured returns the IDs of all providers whose credentials are
// present, in canonical order
func (r *Registry) Configured() []models.ProviderID {
	var ids []models.ProviderID
	for _, id := range r.order {
		if entry, ok := r.entries[id]; ok && entry.Provider.IsConfigured() {
			ids = append(ids, id)
		}
	}
	return ids
}
