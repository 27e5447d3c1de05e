package aggregate

import "routeweather.app/models"

// Weights converting per-metric dispersion into the agreement penalty.
// Heuristic: one degree of temperature spread costs as much as one m/s
// of wind spread; humidity and pressure are cheaper per unit.
const (
	temperaturePenaltyWeight = 10.0
	windPenaltyWeight        = 10.0
	humidityPenaltyWeight    = 1.0
	pressurePenaltyWeight    = 1.0
)

// outlierSigma is the distance from the mean temperature, in population
// standard deviations, beyond which a provider is flagged as an outlier
const outlierSigma = 2.0

// ComputeComparison derives min/max/range per metric, the 0-100
// agreement score and the outlier list from the already-collected
// sources. Returns nil unless at least two sources are present. Pure
// function: no network calls.
func ComputeComparison(sources []models.SourcedWeatherData) *models.SourceComparisonData {
	if len(sources) < 2 {
		return nil
	}

	spread := func(extract func(*models.SourcedWeatherData) float64) (models.MetricSpread, []float64) {
		values := make([]float64, 0, len(sources))
		min := extract(&sources[0])
		max := min
		for i := range sources {
			v := extract(&sources[i])
			values = append(values, v)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		return models.MetricSpread{Min: min, Max: max, Range: max - min}, values
	}

	tempSpread, tempValues := spread(func(s *models.SourcedWeatherData) float64 { return s.Temperature })
	humiditySpread, humidityValues := spread(func(s *models.SourcedWeatherData) float64 { return s.Humidity })
	windSpread, windValues := spread(func(s *models.SourcedWeatherData) float64 { return s.WindSpeed })
	pressureSpread, pressureValues := spread(func(s *models.SourcedWeatherData) float64 { return s.Pressure })

	tempMean, tempStdDev := meanAndStdDev(tempValues)
	_, humidityStdDev := meanAndStdDev(humidityValues)
	_, windStdDev := meanAndStdDev(windValues)
	_, pressureStdDev := meanAndStdDev(pressureValues)

	penalty := tempStdDev*temperaturePenaltyWeight +
		windStdDev*windPenaltyWeight +
		humidityStdDev*humidityPenaltyWeight +
		pressureStdDev*pressurePenaltyWeight

	score := 100.0 - penalty
	if score < 0 {
		score = 0
	}

	var outliers []models.ProviderID
	if tempStdDev > 0 {
		for i := range sources {
			deviation := sources[i].Temperature - tempMean
			if deviation < 0 {
				deviation = -deviation
			}
			if deviation > outlierSigma*tempStdDev {
				outliers = append(outliers, sources[i].Provider)
			}
		}
	}

	return &models.SourceComparisonData{
		Temperature:    tempSpread,
		Humidity:       humiditySpread,
		WindSpeed:      windSpread,
		Pressure:       pressureSpread,
		AgreementScore: score,
		Outliers:       outliers,
	}
}
