// Package scheduler implements background provider health probing
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"routeweather.app/models"
	"routeweather.app/providers"
)

// HealthMonitor periodically probes every configured provider and keeps
// the latest ProviderStatusInfo per provider for the status endpoint
type HealthMonitor struct {
	registry *providers.Registry
	interval time.Duration

	mu       sync.RWMutex
	statuses map[models.ProviderID]models.ProviderStatusInfo
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewHealthMonitor(registry *providers.Registry, interval time.Duration) *HealthMonitor {
	return &HealthMonitor{
		registry: registry,
		interval: interval,
		statuses: make(map[models.ProviderID]models.ProviderStatusInfo),
		stopCh:   make(chan struct{}),
	}
}

// Start runs an immediate probe round and then probes on the configured
// interval until Stop is called
func (m *HealthMonitor) Start() {
	go func() {
		m.ProbeAll(context.Background())

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.ProbeAll(context.Background())
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the probe loop
func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// ProbeAll health-checks every configured provider once. Providers
// without credentials are skipped entirely, not probed.
func (m *HealthMonitor) ProbeAll(ctx context.Context) {
	for _, id := range m.registry.Configured() {
		entry, ok := m.registry.Get(id)
		if !ok {
			continue
		}

		info := entry.Provider.CheckHealth(ctx)

		m.mu.Lock()
		m.statuses[id] = info
		m.mu.Unlock()

		if info.Status != models.StatusAvailable {
			slog.Warn("provider health probe",
				"provider", id, "status", info.Status,
				"latencyMs", info.LatencyMS, "error", info.Error)
		}
	}
}

// Statuses returns the latest health snapshot per configured provider,
// in canonical provider order
func (m *HealthMonitor) Statuses() []models.ProviderStatusInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.ProviderStatusInfo
	for _, id := range m.registry.Order() {
		if info, ok := m.statuses[id]; ok {
			out = append(out, info)
		}
	}
	return out
}
