package aggregate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"routeweather.app/config"
	"routeweather.app/models"
)

// ProgressFunc receives (pointsProcessedSoFar, totalPoints) after each
// completed batch. Monotonically increasing, never exceeding total.
type ProgressFunc func(processed, total int)

// BatchOrchestrator drives the Manager over an ordered route point list
// in fixed-size batches with bounded concurrency
type BatchOrchestrator struct {
	manager *Manager
	cfg     config.BatchConfig
}

func NewBatchOrchestrator(manager *Manager, cfg config.BatchConfig) *BatchOrchestrator {
	return &BatchOrchestrator{
		manager: manager,
		cfg:     cfg,
	}
}

// FetchMultiSourceForecasts aggregates every route point, preserving
// input order. A point whose aggregation fails is dropped from the
// result rather than aborting the run, so the output may be shorter
// than the input.
func (o *BatchOrchestrator) FetchMultiSourceForecasts(
	ctx context.Context,
	points []models.RoutePoint,
	providerIDs []models.ProviderID,
	onProgress ProgressFunc,
) []models.MultiSourceWeatherForecast {
	total := len(points)
	if total == 0 {
		return nil
	}

	// Slots keep input order; failed points leave nil holes
	slots := make([]*models.MultiSourceWeatherForecast, total)
	processed := 0

	for start := 0; start < total; start += o.cfg.Size {
		end := start + o.cfg.Size
		if end > total {
			end = total
		}

		o.runBatch(ctx, points, slots, start, end, providerIDs)

		processed += end - start
		if onProgress != nil {
			onProgress(processed, total)
		}

		if end < total && o.cfg.InterBatchDelay > 0 {
			select {
			case <-ctx.Done():
				return compact(slots)
			case <-time.After(o.cfg.InterBatchDelay):
			}
		}
	}

	return compact(slots)
}

// runBatch dispatches every point in [start, end) concurrently, with a
// small stagger per sub-group to smooth burst load on the providers
func (o *BatchOrchestrator) runBatch(
	ctx context.Context,
	points []models.RoutePoint,
	slots []*models.MultiSourceWeatherForecast,
	start, end int,
	providerIDs []models.ProviderID,
) {
	var wg sync.WaitGroup

	for i := start; i < end; i++ {
		stagger := time.Duration((i-start)/o.cfg.StaggerGroup) * o.cfg.StaggerDelay

		wg.Add(1)
		go func(idx int, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
			}

			point := points[idx]
			forecast, err := o.manager.FetchMultiSourceForecast(ctx, point, providerIDs)
			if err != nil {
				slog.Warn("route point dropped from forecast",
					"lat", point.Latitude, "lon", point.Longitude,
					"distance", point.Distance, "error", err)
				return
			}
			slots[idx] = forecast
		}(i, stagger)
	}

	wg.Wait()
}

func compact(slots []*models.MultiSourceWeatherForecast) []models.MultiSourceWeatherForecast {
	var result []models.MultiSourceWeatherForecast
	for _, f := range slots {
		if f != nil {
			result = append(result, *f)
		}
	}
	return result
}
