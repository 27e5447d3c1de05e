package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"routeweather.app/config"
	"routeweather.app/models"
)

func testBatchConfig(size int) config.BatchConfig {
	return config.BatchConfig{
		Size:            size,
		StaggerDelay:    time.Millisecond,
		StaggerGroup:    3,
		InterBatchDelay: 5 * time.Millisecond,
	}
}

func routePoints(n int) []models.RoutePoint {
	points := make([]models.RoutePoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, models.RoutePoint{
			Latitude:  48.0 + float64(i)*0.1,
			Longitude: 2.0 + float64(i)*0.1,
			Distance:  float64(i) * 1000,
		})
	}
	return points
}

func TestBatchOrchestrator_FetchMultiSourceForecasts(t *testing.T) {
	t.Run("OrderPreservedAcrossBatches", func(t *testing.T) {
		om := openMeteoServer(15.0, nil)
		defer om.Close()
		owm := openWeatherMapServer(17.0, nil)
		defer owm.Close()

		manager, _ := newTestManager(t, om.URL, owm.URL, 1000)
		orchestrator := NewBatchOrchestrator(manager, testBatchConfig(5))

		points := routePoints(12)
		forecasts := orchestrator.FetchMultiSourceForecasts(context.Background(), points, nil, nil)

		require.Len(t, forecasts, 12)
		for i, f := range forecasts {
			assert.Equal(t, points[i].Distance, f.Point.Distance)
		}
	})

	t.Run("FailedPointDroppedOthersKept", func(t *testing.T) {
		// Fail exactly for the coordinate of point #7 (zero-based index 6)
		badLat := "48.6"
		om := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("latitude")[:4] == badLat {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"current": {"time": "2026-06-01T12:00",
				"temperature_2m": 15, "relative_humidity_2m": 50,
				"pressure_msl": 1013, "wind_speed_10m": 5, "weather_code": 0}}`))
		}))
		defer om.Close()

		owm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer owm.Close()

		manager, _ := newTestManager(t, om.URL, owm.URL, 1000)
		orchestrator := NewBatchOrchestrator(manager, testBatchConfig(5))

		points := routePoints(10)
		forecasts := orchestrator.FetchMultiSourceForecasts(context.Background(), points, nil, nil)

		require.Len(t, forecasts, 9)
		// Remaining forecasts stay in ascending route-distance order
		var last float64 = -1
		for _, f := range forecasts {
			assert.Greater(t, f.Point.Distance, last)
			last = f.Point.Distance
			assert.NotEqual(t, 6000.0, f.Point.Distance)
		}
	})

	t.Run("ProgressIsMonotonicAndBatchSized", func(t *testing.T) {
		om := openMeteoServer(15.0, nil)
		defer om.Close()
		owm := openWeatherMapServer(17.0, nil)
		defer owm.Close()

		manager, _ := newTestManager(t, om.URL, owm.URL, 1000)
		orchestrator := NewBatchOrchestrator(manager, testBatchConfig(5))

		var reports [][2]int
		orchestrator.FetchMultiSourceForecasts(context.Background(), routePoints(10), nil,
			func(processed, total int) {
				reports = append(reports, [2]int{processed, total})
			})

		// 10 points, batch size 5: exactly 2 batches
		require.Equal(t, [][2]int{{5, 10}, {10, 10}}, reports)
	})

	t.Run("EmptyInputYieldsEmptyOutput", func(t *testing.T) {
		om := openMeteoServer(15.0, nil)
		defer om.Close()
		owm := openWeatherMapServer(17.0, nil)
		defer owm.Close()

		manager, _ := newTestManager(t, om.URL, owm.URL, 1000)
		orchestrator := NewBatchOrchestrator(manager, testBatchConfig(5))

		assert.Nil(t, orchestrator.FetchMultiSourceForecasts(context.Background(), nil, nil, nil))
	})

	t.Run("WarmCacheRerunIssuesNoProviderCalls", func(t *testing.T) {
		var omCalls, owmCalls int64
		om := openMeteoServer(15.0, &omCalls)
		defer om.Close()
		owm := openWeatherMapServer(17.0, &owmCalls)
		defer owm.Close()

		manager, _ := newTestManager(t, om.URL, owm.URL, 1000)
		orchestrator := NewBatchOrchestrator(manager, testBatchConfig(5))

		points := routePoints(6)
		ctx := context.Background()

		first := orchestrator.FetchMultiSourceForecasts(ctx, points, nil, nil)
		callsAfterFirst := atomic.LoadInt64(&omCalls) + atomic.LoadInt64(&owmCalls)

		second := orchestrator.FetchMultiSourceForecasts(ctx, points, nil, nil)
		callsAfterSecond := atomic.LoadInt64(&omCalls) + atomic.LoadInt64(&owmCalls)

		assert.Equal(t, callsAfterFirst, callsAfterSecond)
		require.Len(t, second, len(first))

		// Same forecast values on the warm run
		firstJSON, err := json.Marshal(first)
		require.NoError(t, err)
		secondJSON, err := json.Marshal(second)
		require.NoError(t, err)
		assert.JSONEq(t, string(firstJSON), string(secondJSON))
	})

	t.Run("CancelledContextStopsBetweenBatches", func(t *testing.T) {
		om := openMeteoServer(15.0, nil)
		defer om.Close()
		owm := openWeatherMapServer(17.0, nil)
		defer owm.Close()

		manager, _ := newTestManager(t, om.URL, owm.URL, 1000)
		cfg := testBatchConfig(2)
		cfg.InterBatchDelay = 50 * time.Millisecond
		orchestrator := NewBatchOrchestrator(manager, cfg)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		forecasts := orchestrator.FetchMultiSourceForecasts(ctx, routePoints(20), nil, nil)
		assert.Less(t, len(forecasts), 20)
	})
}

func TestBatchOrchestrator_BatchCount(t *testing.T) {
	tests := []struct {
		points  int
		size    int
		batches int
	}{
		{points: 10, size: 5, batches: 2},
		{points: 11, size: 5, batches: 3},
		{points: 4, size: 5, batches: 1},
		{points: 1, size: 1, batches: 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dpoints_size%d", tt.points, tt.size), func(t *testing.T) {
			om := openMeteoServer(15.0, nil)
			defer om.Close()
			owm := openWeatherMapServer(17.0, nil)
			defer owm.Close()

			manager, _ := newTestManager(t, om.URL, owm.URL, 1000)
			orchestrator := NewBatchOrchestrator(manager, testBatchConfig(tt.size))

			var batches int
			orchestrator.FetchMultiSourceForecasts(context.Background(), routePoints(tt.points), nil,
				func(processed, total int) { batches++ })

			assert.Equal(t, tt.batches, batches)
		})
	}
}
