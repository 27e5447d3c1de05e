package providers

import (
	"context"
	"sync"
	"time"

	"routeweather.app/models"
)

const healthHistorySize = 20

// healthTracker keeps the outcomes of recent probes for the rolling
// success rate reported in ProviderStatusInfo
type healthTracker struct {
	mu       sync.Mutex
	outcomes []bool
}

func (t *healthTracker) record(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.outcomes = append(t.outcomes, ok)
	if len(t.outcomes) > healthHistorySize {
		t.outcomes = t.outcomes[1:]
	}
}

func (t *healthTracker) successRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.outcomes) == 0 {
		return 0
	}

	var ok int
	for _, o := range t.outcomes {
		if o {
			ok++
		}
	}
	return float64(ok) / float64(len(t.outcomes))
}

// checkProviderHealth performs a real fetch against the reference
// coordinate and classifies the outcome: success with data means
// available, success without data means degraded, and an error means
// unavailable.
func checkProviderHealth(ctx context.Context, p WeatherProvider, tracker *healthTracker) models.ProviderStatusInfo {
	start := time.Now()
	data, err := p.FetchCurrent(ctx, healthCheckLat, healthCheckLon)
	latency := time.Since(start)

	info := models.ProviderStatusInfo{
		Provider:    p.ID(),
		LastChecked: time.Now(),
		LatencyMS:   latency.Milliseconds(),
	}

	switch {
	case err != nil:
		info.Status = models.StatusUnavailable
		info.Error = err.Error()
		tracker.record(false)
	case data == nil:
		info.Status = models.StatusDegraded
		tracker.record(false)
	default:
		info.Status = models.StatusAvailable
		tracker.record(true)
	}

	info.SuccessRate = tracker.successRate()
	return info
}
