package risk

import (
	"strings"

	"weather-risk-service/internal/config"
	"weather-risk-service/internal/models"
)

// idealSummary is emitted when no variable produced a notable message.
const idealSummary = "Ideal weather conditions"

// Classifier maps raw meteorological scalars to ordinal risk levels using a
// fixed threshold table. It holds no mutable state; identical inputs always
// produce identical output.
type Classifier struct {
	thresholds *config.Thresholds
}

func NewClassifier(thresholds *config.Thresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// TemperatureRisk buckets a temperature reading. Comparisons are inclusive
// on the severe side, so a value exactly at a cutoff takes the more severe
// band.
func (c *Classifier) TemperatureRisk(temperature float64) models.VariableRisk {
	t := c.thresholds.Temperature

	var r models.VariableRisk
	switch {
	case temperature >= t.ExtremeHeat:
		r = models.VariableRisk{Risk: models.RiskHigh, Message: "Extreme heat risk", Notable: true}
	case temperature >= t.Heat:
		r = models.VariableRisk{Risk: models.RiskMedium, Message: "Heat risk", Notable: true}
	case temperature <= t.ExtremeCold:
		r = models.VariableRisk{Risk: models.RiskHigh, Message: "Extreme cold risk", Notable: true}
	case temperature <= t.Cold:
		r = models.VariableRisk{Risk: models.RiskMedium, Message: "Cold risk", Notable: true}
	default:
		r = models.VariableRisk{Risk: models.RiskLow, Message: "Comfortable temperature"}
	}
	r.Value = temperature
	return r
}

// PrecipitationRisk buckets an hourly precipitation total in millimetres.
func (c *Classifier) PrecipitationRisk(precipitation float64) models.VariableRisk {
	t := c.thresholds.Precipitation

	var r models.VariableRisk
	switch {
	case precipitation >= t.Heavy:
		r = models.VariableRisk{Risk: models.RiskHigh, Message: "Heavy precipitation", Notable: true}
	case precipitation >= t.Moderate:
		r = models.VariableRisk{Risk: models.RiskMedium, Message: "Moderate precipitation", Notable: true}
	default:
		r = models.VariableRisk{Risk: models.RiskLow, Message: "Light or no precipitation"}
	}
	r.Value = precipitation
	return r
}

// WindRisk buckets a wind speed reading.
func (c *Classifier) WindRisk(windSpeed float64) models.VariableRisk {
	t := c.thresholds.Wind

	var r models.VariableRisk
	switch {
	case windSpeed >= t.Strong:
		r = models.VariableRisk{Risk: models.RiskHigh, Message: "Strong winds", Notable: true}
	case windSpeed >= t.Moderate:
		r = models.VariableRisk{Risk: models.RiskMedium, Message: "Moderate winds", Notable: true}
	default:
		r = models.VariableRisk{Risk: models.RiskLow, Message: "Calm conditions"}
	}
	r.Value = windSpeed
	return r
}

// HumidityRisk buckets a relative humidity percentage. Unlike the other
// variables it has no high band on the dry side.
func (c *Classifier) HumidityRisk(humidity float64) models.VariableRisk {
	t := c.thresholds.Humidity

	var r models.VariableRisk
	switch {
	case humidity >= t.VeryHigh:
		r = models.VariableRisk{Risk: models.RiskHigh, Message: "Very humid conditions", Notable: true}
	case humidity >= t.High:
		r = models.VariableRisk{Risk: models.RiskMedium, Message: "Humid conditions", Notable: true}
	case humidity <= t.VeryLow:
		r = models.VariableRisk{Risk: models.RiskMedium, Message: "Very dry conditions", Notable: true}
	default:
		r = models.VariableRisk{Risk: models.RiskLow, Message: "Comfortable humidity"}
	}
	r.Value = humidity
	return r
}

// HourlyRisk combines the per-variable classifications for one hour.
//
// The overall level is the ordinal maximum of temperature, precipitation and
// wind. Humidity, when present, is evaluated afterwards and can only escalate
// the result; when it does, its message is appended to the summary. Missing
// precipitation or wind must be defaulted to 0 by the caller.
func (c *Classifier) HourlyRisk(temperature, precipitation, windSpeed float64, humidity *float64) models.RiskAssessment {
	tempRisk := c.TemperatureRisk(temperature)
	precipRisk := c.PrecipitationRisk(precipitation)
	windRisk := c.WindRisk(windSpeed)

	overall := models.MaxRiskLevel(tempRisk.Risk, precipRisk.Risk, windRisk.Risk)

	var notable []string
	for _, r := range []models.VariableRisk{tempRisk, precipRisk, windRisk} {
		if r.Notable {
			notable = append(notable, r.Message)
		}
	}

	summary := idealSummary
	if len(notable) > 0 {
		summary = strings.Join(notable, "; ")
	}

	assessment := models.RiskAssessment{
		OverallRisk: overall,
		Summary:     summary,
		Details: map[string]models.VariableRisk{
			"temperature":   tempRisk,
			"precipitation": precipRisk,
			"wind":          windRisk,
		},
	}

	if humidity != nil {
		humidityRisk := c.HumidityRisk(*humidity)
		assessment.Details["humidity"] = humidityRisk

		if humidityRisk.Risk.Ordinal() > assessment.OverallRisk.Ordinal() {
			assessment.OverallRisk = humidityRisk.Risk
			assessment.Summary += "; " + humidityRisk.Message
		}
	}

	return assessment
}
