package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weather-risk-service/internal/config"
	"weather-risk-service/internal/models"
	"weather-risk-service/internal/observability"
	"weather-risk-service/internal/risk"
)

type stubHistory struct {
	observations []models.HourlyObservation
	err          error
	calls        int
}

func (s *stubHistory) HourlyObservations(_ context.Context, _, _ float64, _ time.Time) ([]models.HourlyObservation, error) {
	s.calls++
	return s.observations, s.err
}

type stubForecast struct {
	observations []models.HourlyObservation
	err          error
	calls        int
}

func (s *stubForecast) HourlyForecast(_ context.Context, _, _ float64, _, _ time.Time) ([]models.HourlyObservation, error) {
	s.calls++
	return s.observations, s.err
}

func routerThresholds() *config.Thresholds {
	return &config.Thresholds{
		Temperature:   config.TemperatureThresholds{ExtremeHeat: 40, Heat: 35, Cold: 10, ExtremeCold: 0},
		Precipitation: config.PrecipitationThresholds{Heavy: 10, Moderate: 2.5, Light: 0.1},
		Wind:          config.WindThresholds{Strong: 30, Moderate: 15},
		Humidity:      config.HumidityThresholds{VeryHigh: 90, High: 70, Low: 30, VeryLow: 20},
	}
}

// hoursOn builds one mild observation per hour in [from, to] on date.
func hoursOn(date time.Time, from, to int) []models.HourlyObservation {
	var observations []models.HourlyObservation
	for h := from; h <= to; h++ {
		observations = append(observations, models.HourlyObservation{
			Time:          time.Date(date.Year(), date.Month(), date.Day(), h, 0, 0, 0, time.UTC),
			Temperature:   22,
			Precipitation: 0,
			WindSpeed:     5,
		})
	}
	return observations
}

func newTestRouter(history *stubHistory, forecast *stubForecast, now time.Time) *Router {
	thresholds := routerThresholds()
	return NewRouter(
		history,
		forecast,
		risk.NewClassifier(thresholds),
		risk.NewConditionClassifier(thresholds),
		clockwork.NewFakeClockAt(now),
		observability.NewMetricsForTesting(),
		zap.NewNop(),
	)
}

func TestHourlyWeatherPastDateUsesArchiveOnly(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	target := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	history := &stubHistory{observations: hoursOn(target, 0, 23)}
	forecast := &stubForecast{}
	router := newTestRouter(history, forecast, now)

	records := router.HourlyWeather(context.Background(), router.NewWindow(23.81, 90.41, target))

	require.Len(t, records, 24)
	assert.Equal(t, 1, history.calls)
	assert.Equal(t, 0, forecast.calls, "past dates must never hit the forecast source")
	for _, rec := range records {
		assert.Equal(t, models.SourceNASA, rec.Source)
	}
}

func TestHourlyWeatherFutureDateUsesForecastOnly(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	target := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	history := &stubHistory{}
	// The forecast range fetch may spill into the next day; those hours must
	// be filtered out.
	observations := hoursOn(target, 0, 23)
	observations = append(observations, hoursOn(target.AddDate(0, 0, 1), 0, 2)...)
	forecast := &stubForecast{observations: observations}
	router := newTestRouter(history, forecast, now)

	records := router.HourlyWeather(context.Background(), router.NewWindow(23.81, 90.41, target))

	require.Len(t, records, 24)
	assert.Equal(t, 0, history.calls, "future dates must never hit the archive")
	assert.Equal(t, 1, forecast.calls)
	for _, rec := range records {
		assert.Equal(t, models.SourceForecast, rec.Source)
		assert.Equal(t, target.Day(), rec.Time.Day())
	}
}

func TestHourlyWeatherTodayStitchesSources(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// Both sources return the full day; the router must take the split.
	history := &stubHistory{observations: hoursOn(target, 0, 23)}
	forecast := &stubForecast{observations: hoursOn(target, 0, 23)}
	router := newTestRouter(history, forecast, now)

	records := router.HourlyWeather(context.Background(), router.NewWindow(23.81, 90.41, target))

	require.Len(t, records, 24)
	for _, rec := range records {
		if rec.Time.Hour() <= 14 {
			assert.Equal(t, models.SourceNASA, rec.Source, "hour %d", rec.Time.Hour())
		} else {
			assert.Equal(t, models.SourceForecast, rec.Source, "hour %d", rec.Time.Hour())
		}
	}

	// Every hour appears exactly once.
	seen := map[int]bool{}
	for _, rec := range records {
		assert.False(t, seen[rec.Time.Hour()], "hour %d duplicated", rec.Time.Hour())
		seen[rec.Time.Hour()] = true
	}
}

func TestHourlyWeatherTodayLastHourSkipsForecast(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 5, 0, 0, time.UTC)
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	history := &stubHistory{observations: hoursOn(target, 0, 23)}
	forecast := &stubForecast{observations: hoursOn(target, 0, 23)}
	router := newTestRouter(history, forecast, now)

	records := router.HourlyWeather(context.Background(), router.NewWindow(23.81, 90.41, target))

	require.Len(t, records, 24)
	assert.Equal(t, 0, forecast.calls, "no forecast hours remain after hour 23")
}

func TestHourlyWeatherSortsAscending(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	target := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Archive hours arrive out of order.
	shuffled := []models.HourlyObservation{
		{Time: time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC), Temperature: 20},
		{Time: time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC), Temperature: 20},
		{Time: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Temperature: 20},
	}
	history := &stubHistory{observations: shuffled}
	router := newTestRouter(history, &stubForecast{}, now)

	records := router.HourlyWeather(context.Background(), router.NewWindow(23.81, 90.41, target))

	require.Len(t, records, 3)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i-1].Time.Before(records[i].Time.Time))
	}
}

func TestHourlyWeatherAbsorbsUpstreamFailure(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	t.Run("archive down on past date", func(t *testing.T) {
		history := &stubHistory{err: errors.New("power api unavailable")}
		router := newTestRouter(history, &stubForecast{}, now)

		target := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		records := router.HourlyWeather(context.Background(), router.NewWindow(23.81, 90.41, target))
		assert.Empty(t, records)
	})

	t.Run("forecast down on today keeps archive hours", func(t *testing.T) {
		target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		history := &stubHistory{observations: hoursOn(target, 0, 23)}
		forecast := &stubForecast{err: errors.New("open-meteo unavailable")}
		router := newTestRouter(history, forecast, now)

		records := router.HourlyWeather(context.Background(), router.NewWindow(23.81, 90.41, target))
		require.Len(t, records, 15, "hours 0..14 from the archive")
		for _, rec := range records {
			assert.Equal(t, models.SourceNASA, rec.Source)
		}
	})
}

func TestHourlyWeatherEnrichesEveryHour(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	target := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	humidity := 50.0
	history := &stubHistory{observations: []models.HourlyObservation{
		{
			Time:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Temperature:   41,
			Precipitation: 0,
			WindSpeed:     5,
			Humidity:      &humidity,
		},
	}}
	router := newTestRouter(history, &stubForecast{}, now)

	records := router.HourlyWeather(context.Background(), router.NewWindow(23.81, 90.41, target))

	require.Len(t, records, 1)
	rec := records[0]
	require.NotNil(t, rec.Temperature)
	assert.Equal(t, 41.0, *rec.Temperature)
	assert.Equal(t, models.RiskHigh, rec.RiskAssessment.OverallRisk)
	assert.NotEmpty(t, rec.Condition)
	assert.Len(t, rec.RiskAssessment.Details, 4)
}
