package services

import (
	"context"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"weather-risk-service/internal/models"
	"weather-risk-service/internal/observability"
	"weather-risk-service/internal/risk"
)

// HistoricalSource provides archival point observations for one calendar
// date.
type HistoricalSource interface {
	HourlyObservations(ctx context.Context, lat, lon float64, date time.Time) ([]models.HourlyObservation, error)
}

// ForecastSource provides short-range hourly forecasts for a date range.
type ForecastSource interface {
	HourlyForecast(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.HourlyObservation, error)
}

// Router selects and composes the historical and forecast sources per
// request window, runs every hour through both classifiers, and produces one
// time-ordered sequence of enriched hourly records.
//
// An upstream failure contributes zero hours rather than failing the
// request; "no data" is a legitimate answer. Both fetches on the today path
// are issued sequentially.
type Router struct {
	history   HistoricalSource
	forecast  ForecastSource
	risk      *risk.Classifier
	condition *risk.ConditionClassifier
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewRouter(
	history HistoricalSource,
	forecast ForecastSource,
	riskClassifier *risk.Classifier,
	conditionClassifier *risk.ConditionClassifier,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Router {
	return &Router{
		history:   history,
		forecast:  forecast,
		risk:      riskClassifier,
		condition: conditionClassifier,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// NewWindow classifies targetDate against the router's clock.
func (r *Router) NewWindow(lat, lon float64, targetDate time.Time) models.RequestWindow {
	return models.NewRequestWindow(lat, lon, targetDate, r.clock.Now())
}

// HourlyWeather assembles the enriched hourly sequence for one request
// window.
func (r *Router) HourlyWeather(ctx context.Context, w models.RequestWindow) []models.HourlyRecord {
	var records []models.HourlyRecord

	switch {
	case w.IsFuture:
		records = r.futureHours(ctx, w)
	case w.IsToday:
		records = r.todayHours(ctx, w)
	default:
		records = r.pastHours(ctx, w)
	}

	// Historical and forecast fetches return hours in their own native
	// orders, and the today path concatenates two sequences.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time.Time)
	})

	return records
}

// futureHours serves a strictly future date entirely from the forecast
// source, fetching [target, target+1) and keeping hours on the target date.
func (r *Router) futureHours(ctx context.Context, w models.RequestWindow) []models.HourlyRecord {
	observations := r.fetchForecast(ctx, w, w.TargetDate, w.TargetDate.AddDate(0, 0, 1))

	var records []models.HourlyRecord
	for _, obs := range observations {
		if !sameDate(obs.Time, w.TargetDate) {
			continue
		}
		records = append(records, r.enrich(obs, models.SourceForecast))
	}
	return records
}

// pastHours serves a strictly past date entirely from the archive.
func (r *Router) pastHours(ctx context.Context, w models.RequestWindow) []models.HourlyRecord {
	observations := r.fetchHistory(ctx, w)

	var records []models.HourlyRecord
	for _, obs := range observations {
		records = append(records, r.enrich(obs, models.SourceNASA))
	}
	return records
}

// todayHours stitches the archive for elapsed hours with the forecast for
// the rest of the day. The archive owns hours 0..currentHour, the forecast
// owns hours strictly after it; the two ranges never overlap.
func (r *Router) todayHours(ctx context.Context, w models.RequestWindow) []models.HourlyRecord {
	currentHour := w.Now.Hour()

	var records []models.HourlyRecord
	for _, obs := range r.fetchHistory(ctx, w) {
		if obs.Time.Hour() > currentHour {
			continue
		}
		records = append(records, r.enrich(obs, models.SourceNASA))
	}

	if currentHour < 23 {
		for _, obs := range r.fetchForecast(ctx, w, w.TargetDate, w.TargetDate) {
			if !sameDate(obs.Time, w.TargetDate) || obs.Time.Hour() <= currentHour {
				continue
			}
			records = append(records, r.enrich(obs, models.SourceForecast))
		}
	}

	return records
}

// fetchHistory absorbs archival failures: the archive contributes zero hours
// and the request proceeds.
func (r *Router) fetchHistory(ctx context.Context, w models.RequestWindow) []models.HourlyObservation {
	observations, err := r.history.HourlyObservations(ctx, w.Latitude, w.Longitude, w.TargetDate)
	if err != nil {
		r.logger.Warn("Archival source returned no data",
			zap.Float64("lat", w.Latitude),
			zap.Float64("lon", w.Longitude),
			zap.Time("date", w.TargetDate),
			zap.Error(err))
		return nil
	}
	return observations
}

// fetchForecast absorbs forecast failures the same way.
func (r *Router) fetchForecast(ctx context.Context, w models.RequestWindow, start, end time.Time) []models.HourlyObservation {
	observations, err := r.forecast.HourlyForecast(ctx, w.Latitude, w.Longitude, start, end)
	if err != nil {
		r.logger.Warn("Forecast source returned no data",
			zap.Float64("lat", w.Latitude),
			zap.Float64("lon", w.Longitude),
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err))
		return nil
	}
	return observations
}

// enrich classifies one observation and tags its provenance.
func (r *Router) enrich(obs models.HourlyObservation, source models.Source) models.HourlyRecord {
	temperature := obs.Temperature
	assessment := r.risk.HourlyRisk(obs.Temperature, obs.Precipitation, obs.WindSpeed, obs.Humidity)
	condition := r.condition.Classify(obs.Temperature, obs.Precipitation, obs.WindSpeed, obs.Humidity)

	r.metrics.HoursServed.WithLabelValues(string(source)).Inc()

	return models.HourlyRecord{
		Time:           models.LocalTime{Time: obs.Time},
		Temperature:    &temperature,
		Precipitation:  obs.Precipitation,
		WindSpeed:      obs.WindSpeed,
		Humidity:       obs.Humidity,
		RiskAssessment: assessment,
		Condition:      condition,
		Source:         source,
	}
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
