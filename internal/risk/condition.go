package risk

import (
	"weather-risk-service/internal/config"
)

// Condition labels, one per decision-chain branch.
const (
	ConditionStormy     = "Stormy"
	ConditionHeavyRain  = "Heavy Rain"
	ConditionRainy      = "Rainy"
	ConditionLightRain  = "Light Rain"
	ConditionFreezing   = "Freezing / Snowy"
	ConditionColdCloudy = "Cold & Cloudy"
	ConditionColdClear  = "Cold & Clear"
	ConditionHeatwave   = "Very Hot / Heatwave"
	ConditionHotSunny   = "Hot & Sunny"
	ConditionHotHumid   = "Hot & Humid"
	ConditionHumid      = "Cloudy / Humid"
	ConditionDryClear   = "Dry & Clear"
	ConditionPleasant   = "Clear / Pleasant"
)

// ConditionClassifier produces one descriptive label per hour from a
// priority-ordered decision chain: precipitation first, then cold, then heat,
// then humidity, with a pleasant fallback. The first matching rule wins and
// later rules are never evaluated.
type ConditionClassifier struct {
	thresholds *config.Thresholds
}

func NewConditionClassifier(thresholds *config.Thresholds) *ConditionClassifier {
	return &ConditionClassifier{thresholds: thresholds}
}

// Classify resolves the label for one hour. A nil humidity skips every
// humidity-dependent branch: cold and hot hours take their clear-sky label
// and the standalone humidity rules are passed over.
func (c *ConditionClassifier) Classify(temperature, precipitation, windSpeed float64, humidity *float64) string {
	t := c.thresholds

	// Rain and storm
	switch {
	case precipitation >= t.Precipitation.Heavy && windSpeed >= t.Wind.Strong:
		return ConditionStormy
	case precipitation >= t.Precipitation.Heavy:
		return ConditionHeavyRain
	case precipitation >= t.Precipitation.Moderate:
		return ConditionRainy
	case precipitation >= t.Precipitation.Light:
		return ConditionLightRain
	}

	// Snow and cold
	switch {
	case temperature <= t.Temperature.ExtremeCold:
		return ConditionFreezing
	case temperature <= t.Temperature.Cold:
		if humidity != nil && *humidity >= t.Humidity.High {
			return ConditionColdCloudy
		}
		return ConditionColdClear
	}

	// Heat and sun
	switch {
	case temperature >= t.Temperature.ExtremeHeat:
		return ConditionHeatwave
	case temperature >= t.Temperature.Heat:
		if humidity != nil && *humidity > t.Humidity.Low {
			return ConditionHotHumid
		}
		return ConditionHotSunny
	}

	// Humidity and clouds
	if humidity != nil {
		switch {
		case *humidity >= t.Humidity.High:
			return ConditionHumid
		case *humidity <= t.Humidity.VeryLow:
			return ConditionDryClear
		}
	}

	return ConditionPleasant
}
