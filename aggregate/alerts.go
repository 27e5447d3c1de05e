package aggregate

import (
	"fmt"

	"routeweather.app/models"
)

// Alert thresholds applied to the primary weather record. Each rule is
// independent; any subset may fire.
const (
	windWarnMS        = 10.0
	windDangerMS      = 17.0
	heatWarnC         = 30.0
	heatDangerC       = 35.0
	coldWarnC         = 0.0
	coldDangerC       = -10.0
	precipWarnMMH     = 2.0
	precipDangerMMH   = 10.0
	visibilityWarnM   = 1000.0
	visibilityDangerM = 200.0
)

// DeriveAlerts evaluates the threshold rules against one weather record
func DeriveAlerts(w *models.SourcedWeatherData) []models.WeatherAlert {
	if w == nil {
		return nil
	}

	var alerts []models.WeatherAlert

	switch {
	case w.WindSpeed >= windDangerMS:
		alerts = append(alerts, models.WeatherAlert{
			Type:     "wind",
			Severity: models.SeverityDanger,
			Message:  fmt.Sprintf("storm-force wind: %.1f m/s", w.WindSpeed),
			Value:    w.WindSpeed,
		})
	case w.WindSpeed >= windWarnMS:
		alerts = append(alerts, models.WeatherAlert{
			Type:     "wind",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("strong wind: %.1f m/s", w.WindSpeed),
			Value:    w.WindSpeed,
		})
	}

	switch {
	case w.Temperature >= heatDangerC:
		alerts = append(alerts, models.WeatherAlert{
			Type:     "heat",
			Severity: models.SeverityDanger,
			Message:  fmt.Sprintf("extreme heat: %.1f°C", w.Temperature),
			Value:    w.Temperature,
		})
	case w.Temperature >= heatWarnC:
		alerts = append(alerts, models.WeatherAlert{
			Type:     "heat",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("high temperature: %.1f°C", w.Temperature),
			Value:    w.Temperature,
		})
	case w.Temperature <= coldDangerC:
		alerts = append(alerts, models.WeatherAlert{
			Type:     "cold",
			Severity: models.SeverityDanger,
			Message:  fmt.Sprintf("extreme cold: %.1f°C", w.Temperature),
			Value:    w.Temperature,
		})
	case w.Temperature <= coldWarnC:
		alerts = append(alerts, models.WeatherAlert{
			Type:     "cold",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("freezing temperature: %.1f°C", w.Temperature),
			Value:    w.Temperature,
		})
	}

	precip := w.Precipitation()
	switch {
	case precip >= precipDangerMMH:
		alerts = append(alerts, models.WeatherAlert{
			Type:     "precipitation",
			Severity: models.SeverityDanger,
			Message:  fmt.Sprintf("heavy precipitation: %.1f mm/h", precip),
			Value:    precip,
		})
	case precip >= precipWarnMMH:
		alerts = append(alerts, models.WeatherAlert{
			Type:     "precipitation",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("precipitation: %.1f mm/h", precip),
			Value:    precip,
		})
	}

	if w.Visibility > 0 {
		switch {
		case w.Visibility <= visibilityDangerM:
			alerts = append(alerts, models.WeatherAlert{
				Type:     "visibility",
				Severity: models.SeverityDanger,
				Message:  fmt.Sprintf("dense fog: visibility %.0f m", w.Visibility),
				Value:    w.Visibility,
			})
		case w.Visibility <= visibilityWarnM:
			alerts = append(alerts, models.WeatherAlert{
				Type:     "visibility",
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("low visibility: %.0f m", w.Visibility),
				Value:    w.Visibility,
			})
		}
	}

	return alerts
}
