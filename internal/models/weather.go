package models

import (
	"fmt"
	"time"
)

// Source identifies which upstream produced an hourly record. Each hour is
// attributed to exactly one source; the two values are never mixed within a
// single record.
type Source string

const (
	SourceNASA     Source = "nasa"
	SourceForecast Source = "forecast"
)

// RiskLevel is an ordinal risk bucket, ordered low < medium < high.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Ordinal returns the rank used when combining per-variable risks.
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 0
	}
}

// MaxRiskLevel returns the highest of the given levels by ordinal.
func MaxRiskLevel(levels ...RiskLevel) RiskLevel {
	max := RiskLow
	for _, l := range levels {
		if l.Ordinal() > max.Ordinal() {
			max = l
		}
	}
	return max
}

// LocalTime is an hour-resolution timestamp in the location's local time,
// serialized without a zone offset ("2006-01-02T15:04:05").
type LocalTime struct {
	time.Time
}

const localTimeLayout = "2006-01-02T15:04:05"

func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(localTimeLayout) + `"`), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid local time %s", s)
	}
	parsed, err := time.Parse(localTimeLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// VariableRisk is the classification of a single weather variable.
// Notable marks levels worth surfacing in the summary; benign readings
// keep their message in the details but are dropped from the summary line.
type VariableRisk struct {
	Risk    RiskLevel `json:"risk"`
	Message string    `json:"message"`
	Value   float64   `json:"value"`
	Notable bool      `json:"-"`
}

// RiskAssessment is the combined result of classifying one hour.
type RiskAssessment struct {
	OverallRisk RiskLevel               `json:"overall_risk"`
	Summary     string                  `json:"summary"`
	Details     map[string]VariableRisk `json:"details"`
}

// HourlyObservation is the normalized per-hour shape both source adapters
// produce before classification. Temperature is always set; humidity is nil
// when the source lacked the series for that hour.
type HourlyObservation struct {
	Time          time.Time
	Temperature   float64
	Precipitation float64
	WindSpeed     float64
	Humidity      *float64
}

// HourlyRecord is one classified, provenance-tagged hour of the response.
type HourlyRecord struct {
	Time           LocalTime      `json:"time"`
	Temperature    *float64       `json:"temperature"`
	Precipitation  float64        `json:"precipitation"`
	WindSpeed      float64        `json:"wind_speed"`
	Humidity       *float64       `json:"humidity"`
	RiskAssessment RiskAssessment `json:"risk_assessment"`
	Condition      string         `json:"condition"`
	Source         Source         `json:"source"`
}

// RequestWindow carries one request's temporal facts, derived once and
// threaded through without re-derivation.
type RequestWindow struct {
	Latitude   float64
	Longitude  float64
	TargetDate time.Time
	Now        time.Time
	IsToday    bool
	IsFuture   bool
}

// NewRequestWindow builds a RequestWindow, classifying targetDate against
// now's calendar date.
func NewRequestWindow(lat, lon float64, targetDate, now time.Time) RequestWindow {
	target := truncateToDate(targetDate)
	today := truncateToDate(now)

	return RequestWindow{
		Latitude:   lat,
		Longitude:  lon,
		TargetDate: target,
		Now:        now,
		IsToday:    target.Equal(today),
		IsFuture:   target.After(today),
	}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AreaSuggestion is one autocomplete hit from the area lookup table.
type AreaSuggestion struct {
	AreaName     string `json:"area_name"`
	DistrictName string `json:"district_name"`
}

// Coordinates is a resolved geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
