package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Thresholds is the table of numeric cutoffs both classifiers compare raw
// measurements against. It is loaded once at startup and never mutated; the
// process refuses to start without a complete table.
//
// Cutoffs within a variable are expected to be ordered so that the more
// extreme condition has the larger magnitude (heat, wind, precipitation) or
// the smaller one (cold). The classifiers assume this ordering.
type Thresholds struct {
	Temperature   TemperatureThresholds   `json:"temperature"`
	Precipitation PrecipitationThresholds `json:"precipitation"`
	Wind          WindThresholds          `json:"wind"`
	Humidity      HumidityThresholds      `json:"humidity"`
}

type TemperatureThresholds struct {
	ExtremeHeat float64 `json:"extreme_heat"`
	Heat        float64 `json:"heat"`
	Cold        float64 `json:"cold"`
	ExtremeCold float64 `json:"extreme_cold"`
}

type PrecipitationThresholds struct {
	Heavy    float64 `json:"heavy"`
	Moderate float64 `json:"moderate"`
	Light    float64 `json:"light"`
}

type WindThresholds struct {
	Strong   float64 `json:"strong"`
	Moderate float64 `json:"moderate"`
}

type HumidityThresholds struct {
	VeryHigh float64 `json:"very_high"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	VeryLow  float64 `json:"very_low"`
}

// LoadThresholds reads and validates the threshold table from path.
func LoadThresholds(path string) (*Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading thresholds file: %w", err)
	}

	var t Thresholds
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing thresholds file %s: %w", path, err)
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds in %s: %w", path, err)
	}

	return &t, nil
}

// validate rejects tables with unset cutoffs. A zero extreme_cold is a
// legitimate value, so temperature cold bounds are checked by relative order
// instead of against zero.
func (t *Thresholds) validate() error {
	if t.Temperature.ExtremeHeat == 0 || t.Temperature.Heat == 0 {
		return fmt.Errorf("temperature heat cutoffs are required")
	}
	if t.Temperature.Cold <= t.Temperature.ExtremeCold {
		return fmt.Errorf("temperature.cold must exceed temperature.extreme_cold")
	}
	if t.Precipitation.Heavy == 0 || t.Precipitation.Moderate == 0 || t.Precipitation.Light == 0 {
		return fmt.Errorf("precipitation cutoffs are required")
	}
	if t.Wind.Strong == 0 || t.Wind.Moderate == 0 {
		return fmt.Errorf("wind cutoffs are required")
	}
	if t.Humidity.VeryHigh == 0 || t.Humidity.High == 0 || t.Humidity.Low == 0 || t.Humidity.VeryLow == 0 {
		return fmt.Errorf("humidity cutoffs are required")
	}
	return nil
}
