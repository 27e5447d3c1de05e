// Package models defines data structures used throughout the application
package models

import "time"

// ProviderID identifies a configured weather provider
type ProviderID string

const (
	ProviderOpenMeteo      ProviderID = "openmeteo"
	ProviderOpenWeatherMap ProviderID = "openweathermap"
	ProviderWeatherAPI     ProviderID = "weatherapi"
)

// AllProviderIDs returns every known provider in canonical order.
// The order doubles as the tie-break order for consensus conditions.
func AllProviderIDs() []ProviderID {
	return []ProviderID{ProviderOpenMeteo, ProviderOpenWeatherMap, ProviderWeatherAPI}
}

// ProviderConfig holds static per-provider metadata, built once at startup
type ProviderConfig struct {
	ID                ProviderID `json:"id"`
	DisplayName       string     `json:"displayName"`
	RequiresAPIKey    bool       `json:"requiresApiKey"`
	RequestsPerMinute int        `json:"requestsPerMinute"`
	RequestsPerDay    int        `json:"requestsPerDay"`
	BaseURL           string     `json:"baseUrl"`
}

// RoutePoint is one sampled point along a travel route, produced upstream
// by the GPX parser
type RoutePoint struct {
	Latitude      float64    `json:"lat" binding:"gte=-90,lte=90"`
	Longitude     float64    `json:"lon" binding:"gte=-180,lte=180"`
	Elevation     float64    `json:"elevation,omitempty"`
	Distance      float64    `json:"distance"`
	EstimatedTime *time.Time `json:"estimatedTime,omitempty"`
}

// SourcedWeatherData is one provider's normalized weather snapshot.
// Units are normalized at the adapter boundary: wind in m/s, pressure
// in hPa, precipitation in mm/h, temperatures in Celsius.
type SourcedWeatherData struct {
	Provider      ProviderID `json:"provider"`
	Latitude      float64    `json:"lat"`
	Longitude     float64    `json:"lon"`
	Timestamp     time.Time  `json:"timestamp"`
	Temperature   float64    `json:"temperature"`
	FeelsLike     float64    `json:"feelsLike"`
	Humidity      float64    `json:"humidity"`
	Pressure      float64    `json:"pressure"`
	DewPoint      float64    `json:"dewPoint"`
	CloudCover    float64    `json:"cloudCover"`
	Visibility    float64    `json:"visibility"`
	WindSpeed     float64    `json:"windSpeed"`
	WindDirection float64    `json:"windDirection"`
	WindGust      float64    `json:"windGust"`
	RainMM        float64    `json:"rainMm"`
	SnowMM        float64    `json:"snowMm"`
	ConditionCode int        `json:"conditionCode"`
	Condition     string     `json:"condition"`
	FetchedAt     time.Time  `json:"fetchedAt"`
}

// Precipitation returns combined rain and snow in mm/h
func (s *SourcedWeatherData) Precipitation() float64 {
	return s.RainMM + s.SnowMM
}

// ProviderStatus classifies the outcome of a health probe
type ProviderStatus string

const (
	StatusAvailable   ProviderStatus = "available"
	StatusDegraded    ProviderStatus = "degraded"
	StatusUnavailable ProviderStatus = "unavailable"
)

// ProviderStatusInfo is a health snapshot for one provider, overwritten
// on every probe
type ProviderStatusInfo struct {
	Provider    ProviderID     `json:"provider"`
	Status      ProviderStatus `json:"status"`
	LastChecked time.Time      `json:"lastChecked"`
	LatencyMS   int64          `json:"latencyMs"`
	Error       string         `json:"error,omitempty"`
	SuccessRate float64        `json:"successRate"`
}

// MetricConsensus is the aggregate for a single weather metric
type MetricConsensus struct {
	Mean      float64      `json:"mean"`
	StdDev    float64      `json:"stdDev"`
	Providers []ProviderID `json:"providers"`
}

// ConsensusWeatherData aggregates per-metric statistics across all
// providers that answered for one coordinate. Present only when at
// least two sources contributed.
type ConsensusWeatherData struct {
	Temperature   MetricConsensus `json:"temperature"`
	Humidity      MetricConsensus `json:"humidity"`
	WindSpeed     MetricConsensus `json:"windSpeed"`
	WindDirection MetricConsensus `json:"windDirection"`
	Pressure      MetricConsensus `json:"pressure"`
	CloudCover    MetricConsensus `json:"cloudCover"`
	Precipitation MetricConsensus `json:"precipitation"`
	Condition     string          `json:"condition"`
}

// MetricSpread holds min/max/range for one metric across sources
type MetricSpread struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
}

// SourceComparisonData summarizes how closely the providers agree
type SourceComparisonData struct {
	Temperature    MetricSpread `json:"temperature"`
	Humidity       MetricSpread `json:"humidity"`
	WindSpeed      MetricSpread `json:"windSpeed"`
	Pressure       MetricSpread `json:"pressure"`
	AgreementScore float64      `json:"agreementScore"`
	Outliers       []ProviderID `json:"outliers"`
}

// MultiSourceWeatherData is the aggregation result for one coordinate
type MultiSourceWeatherData struct {
	Latitude   float64               `json:"lat"`
	Longitude  float64               `json:"lon"`
	FetchedAt  time.Time             `json:"fetchedAt"`
	Sources    []SourcedWeatherData  `json:"sources"`
	Consensus  *ConsensusWeatherData `json:"consensus,omitempty"`
	Comparison *SourceComparisonData `json:"comparison,omitempty"`
}

// AlertSeverity grades a weather alert
type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityWarning AlertSeverity = "warning"
	SeverityDanger  AlertSeverity = "danger"
)

// WeatherAlert is a threshold-derived warning attached to a forecast point
type WeatherAlert struct {
	Type     string        `json:"type"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
	Value    float64       `json:"value"`
}

// MultiSourceWeatherForecast pairs a route point with its aggregated
// weather and any derived alerts
type MultiSourceWeatherForecast struct {
	Point   RoutePoint             `json:"point"`
	Weather MultiSourceWeatherData `json:"weather"`
	Primary *SourcedWeatherData    `json:"primary,omitempty"`
	Alerts  []WeatherAlert         `json:"alerts,omitempty"`
}

// DisplayMode selects how multi-source data is presented downstream
type DisplayMode string

const (
	DisplayPrimary    DisplayMode = "primary"
	DisplayComparison DisplayMode = "comparison"
	DisplayConsensus  DisplayMode = "consensus"
)

// WeatherSourcePreferences is caller-supplied configuration for one
// aggregation run. The manager never mutates it; use the With* methods
// to derive an updated copy.
type WeatherSourcePreferences struct {
	EnabledProviders []ProviderID  `json:"enabledProviders"`
	PrimarySource    ProviderID    `json:"primarySource"`
	DisplayMode      DisplayMode   `json:"displayMode"`
	AutoFallback     bool          `json:"autoFallback"`
	RefreshInterval  time.Duration `json:"refreshInterval"`
}

// WithEnabledProviders returns a copy with the enabled set replaced
func (p WeatherSourcePreferences) WithEnabledProviders(ids []ProviderID) WeatherSourcePreferences {
	p.EnabledProviders = append([]ProviderID(nil), ids...)
	return p
}

// WithPrimarySource returns a copy with the primary provider replaced
func (p WeatherSourcePreferences) WithPrimarySource(id ProviderID) WeatherSourcePreferences {
	p.PrimarySource = id
	return p
}

// IsEnabled reports whether the given provider is in the enabled set
func (p WeatherSourcePreferences) IsEnabled(id ProviderID) bool {
	for _, e := range p.EnabledProviders {
		if e == id {
			return true
		}
	}
	return false
}

// DefaultPreferences returns the preference set used when the caller
// supplies none
func DefaultPreferences() WeatherSourcePreferences {
	return WeatherSourcePreferences{
		EnabledProviders: AllProviderIDs(),
		PrimarySource:    ProviderOpenMeteo,
		DisplayMode:      DisplayPrimary,
		AutoFallback:     true,
		RefreshInterval:  30 * time.Minute,
	}
}
