// Package cache provides the key/value store used for weather and route
// forecast results, with interchangeable Redis and in-memory backends.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache defines the contract both backends satisfy. Reads that fail are
// reported as misses; writes are fire-and-forget at the call sites.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Exists(ctx context.Context, key string) bool
	Keys(ctx context.Context, pattern string) []string
	FlushPattern(ctx context.Context, pattern string)
}

// WeatherKey builds the cache key for raw per-coordinate weather.
// Coordinates are rounded to 4 decimal places so nearby lookups share
// one entry.
func WeatherKey(lat, lon float64) string {
	return fmt.Sprintf("weather:%.4f:%.4f", lat, lon)
}

// RouteForecastRequest captures the semantic inputs of a whole-route
// forecast; two requests with equal fields share one cache entry.
type RouteForecastRequest struct {
	Points    []RouteKeyPoint `json:"points"`
	StartTime time.Time       `json:"startTime"`
	AvgSpeed  float64         `json:"avgSpeed"`
	Interval  time.Duration   `json:"interval"`
	Units     string          `json:"units"`
}

// RouteKeyPoint is the coordinate part of a route point used for hashing
type RouteKeyPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteForecastKey builds a content-addressed key for a route forecast
// bundle by hashing the canonical JSON form of the request.
func RouteForecastKey(req RouteForecastRequest) string {
	data, err := json.Marshal(req)
	if err != nil {
		// Marshalling a plain struct of scalars cannot fail in practice
		return "route_forecast:invalid"
	}
	sum := sha256.Sum256(data)
	return "route_forecast:" + hex.EncodeToString(sum[:])
}

// GeometryKey builds the cache key for route geometry (coordinates only)
func GeometryKey(routeID string) string {
	return "route_geometry:" + routeID
}
