package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"weather-risk-service/internal/models"
	"weather-risk-service/internal/observability"
)

// NASA POWER hourly parameter codes.
const (
	nasaParamTemperature   = "T2M"
	nasaParamPrecipitation = "PRECTOTCORR"
	nasaParamWind          = "WS2M"
	nasaParamHumidity      = "RH2M"
)

const nasaDateLayout = "20060102"

// ResponseCache is the keyed expiring store upstream clients shield their
// APIs with. A miss is always safe; the cache is never a correctness
// dependency.
type ResponseCache interface {
	Get(key string) (json.RawMessage, bool)
	Set(key string, data json.RawMessage, ttl time.Duration) error
}

// NasaPowerClient fetches archival point observations from the NASA POWER
// hourly API and normalizes its hour-keyed parameter maps into per-hour
// observations.
type NasaPowerClient struct {
	*BaseClient
	baseURL  string
	cache    ResponseCache
	cacheTTL time.Duration
}

// nasaHourlyResponse mirrors the POWER payload:
// properties.parameter.<VARIABLE>.<YYYYMMDDHH> -> value|null.
type nasaHourlyResponse struct {
	Properties struct {
		Parameter map[string]map[string]*float64 `json:"parameter"`
	} `json:"properties"`
}

func NewNasaPowerClient(baseURL string, cache ResponseCache, cacheTTL time.Duration, config ClientConfig, metrics *observability.Metrics, logger *zap.Logger) *NasaPowerClient {
	return &NasaPowerClient{
		BaseClient: NewBaseClient("nasa", config, metrics, logger),
		baseURL:    baseURL,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// HourlyObservations fetches one calendar date of archival data for the
// given point. An hour is emitted only when the temperature series holds a
// non-null value for its key; missing precipitation and wind default to 0
// and missing humidity stays nil.
func (c *NasaPowerClient) HourlyObservations(ctx context.Context, lat, lon float64, date time.Time) ([]models.HourlyObservation, error) {
	dateKey := date.Format(nasaDateLayout)
	cacheKey := fmt.Sprintf("nasa_hourly_%.4f_%.4f_%s_%s", lat, lon, dateKey, dateKey)

	raw, ok := c.cache.Get(cacheKey)
	if !ok {
		params := url.Values{}
		params.Set("parameters", fmt.Sprintf("%s,%s,%s,%s",
			nasaParamTemperature, nasaParamPrecipitation, nasaParamWind, nasaParamHumidity))
		params.Set("start", dateKey)
		params.Set("end", dateKey)
		params.Set("latitude", fmt.Sprintf("%f", lat))
		params.Set("longitude", fmt.Sprintf("%f", lon))
		params.Set("community", "AG")
		params.Set("format", "JSON")

		body, err := c.GetWithRetry(ctx, c.baseURL+"?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch archival data: %w", err)
		}
		raw = body

		if err := c.cache.Set(cacheKey, raw, c.cacheTTL); err != nil {
			c.logger.Warn("Failed to cache archival response",
				zap.String("key", cacheKey),
				zap.Error(err))
		}
	}

	var response nasaHourlyResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("failed to parse archival response: %w", err)
	}

	return c.normalize(response, date, dateKey), nil
}

func (c *NasaPowerClient) normalize(response nasaHourlyResponse, date time.Time, dateKey string) []models.HourlyObservation {
	temps := response.Properties.Parameter[nasaParamTemperature]
	precip := response.Properties.Parameter[nasaParamPrecipitation]
	wind := response.Properties.Parameter[nasaParamWind]
	humidity := response.Properties.Parameter[nasaParamHumidity]

	var observations []models.HourlyObservation
	for hour := 0; hour < 24; hour++ {
		hourKey := fmt.Sprintf("%s%02d", dateKey, hour)

		temp, ok := temps[hourKey]
		if !ok || temp == nil {
			continue
		}

		obs := models.HourlyObservation{
			Time:        time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.UTC),
			Temperature: *temp,
		}
		if v := precip[hourKey]; v != nil {
			obs.Precipitation = *v
		}
		if v := wind[hourKey]; v != nil {
			obs.WindSpeed = *v
		}
		if v := humidity[hourKey]; v != nil {
			obs.Humidity = v
		}

		observations = append(observations, obs)
	}

	return observations
}
