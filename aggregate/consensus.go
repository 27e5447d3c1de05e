// Package aggregate implements the weather source manager: concurrent
// multi-provider fan-out, statistical consensus and the batch route
// forecast orchestrator.
package aggregate

import (
	"math"

	"routeweather.app/models"
)

// ComputeConsensus builds per-metric aggregates across the sources.
// Returns nil unless at least two sources contributed; the manager
// relies on that invariant.
func ComputeConsensus(sources []models.SourcedWeatherData, order []models.ProviderID) *models.ConsensusWeatherData {
	if len(sources) < 2 {
		return nil
	}

	contributors := make([]models.ProviderID, 0, len(sources))
	for _, s := range sources {
		contributors = append(contributors, s.Provider)
	}

	metric := func(extract func(*models.SourcedWeatherData) float64) models.MetricConsensus {
		values := make([]float64, 0, len(sources))
		for i := range sources {
			values = append(values, extract(&sources[i]))
		}
		mean, stdDev := meanAndStdDev(values)
		return models.MetricConsensus{
			Mean:      mean,
			StdDev:    stdDev,
			Providers: contributors,
		}
	}

	return &models.ConsensusWeatherData{
		Temperature:   metric(func(s *models.SourcedWeatherData) float64 { return s.Temperature }),
		Humidity:      metric(func(s *models.SourcedWeatherData) float64 { return s.Humidity }),
		WindSpeed:     metric(func(s *models.SourcedWeatherData) float64 { return s.WindSpeed }),
		WindDirection: metric(func(s *models.SourcedWeatherData) float64 { return s.WindDirection }),
		Pressure:      metric(func(s *models.SourcedWeatherData) float64 { return s.Pressure }),
		CloudCover:    metric(func(s *models.SourcedWeatherData) float64 { return s.CloudCover }),
		Precipitation: metric(func(s *models.SourcedWeatherData) float64 { return s.Precipitation() }),
		Condition:     majorityCondition(sources, order),
	}
}

// meanAndStdDev returns the arithmetic mean and the population standard
// deviation (mean of squared deviations, not the sample estimator)
func meanAndStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqSum float64
	for _, v := range values {
		d := v - mean
		sqSum += d * d
	}
	return mean, math.Sqrt(sqSum / float64(len(values)))
}

// majorityCondition picks the condition string with the most votes.
// Ties resolve to the condition whose contributing provider appears
// first in the configured provider order.
func majorityCondition(sources []models.SourcedWeatherData, order []models.ProviderID) string {
	if len(sources) == 0 {
		return ""
	}

	orderIndex := make(map[models.ProviderID]int, len(order))
	for i, id := range order {
		orderIndex[id] = i
	}

	votes := make(map[string]int)
	firstProvider := make(map[string]int)
	for _, s := range sources {
		votes[s.Condition]++

		idx, ok := orderIndex[s.Provider]
		if !ok {
			idx = len(order)
		}
		if best, seen := firstProvider[s.Condition]; !seen || idx < best {
			firstProvider[s.Condition] = idx
		}
	}

	best := ""
	bestVotes := -1
	bestIndex := math.MaxInt
	for condition, count := range votes {
		idx := firstProvider[condition]
		if count > bestVotes || (count == bestVotes && idx < bestIndex) {
			best = condition
			bestVotes = count
			bestIndex = idx
		}
	}
	return best
}
