package providers

import "math"

// Magnus approximation constants
const (
	magnusA = 17.27
	magnusB = 237.7
)

// DewPoint derives the dew point in Celsius from temperature (Celsius)
// and relative humidity (percent) via the Magnus approximation. Used by
// adapters whose provider does not report dew point natively.
func DewPoint(tempC, humidityPct float64) float64 {
	if humidityPct <= 0 {
		return tempC
	}
	if humidityPct > 100 {
		humidityPct = 100
	}

	alpha := (magnusA*tempC)/(magnusB+tempC) + math.Log(humidityPct/100)
	return magnusB * alpha / (magnusA - alpha)
}

// KmhToMs converts wind speed from km/h to m/s
func KmhToMs(kmh float64) float64 {
	return kmh / 3.6
}

// KmToMeters converts visibility from kilometers to meters
func KmToMeters(km float64) float64 {
	return km * 1000
}
