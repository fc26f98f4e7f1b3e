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

// Open-Meteo hourly times are local and carry no zone or seconds.
const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoClient fetches short-range hourly forecasts from Open-Meteo and
// normalizes its positionally aligned parallel arrays into per-hour
// observations.
type OpenMeteoClient struct {
	*BaseClient
	baseURL  string
	cache    ResponseCache
	cacheTTL time.Duration
}

type openMeteoHourlyResponse struct {
	Hourly struct {
		Time               []string  `json:"time"`
		Temperature2M      []float64 `json:"temperature_2m"`
		Precipitation      []float64 `json:"precipitation"`
		WindSpeed10M       []float64 `json:"windspeed_10m"`
		RelativeHumidity2M []float64 `json:"relative_humidity_2m"`
	} `json:"hourly"`
}

func NewOpenMeteoClient(baseURL string, cache ResponseCache, cacheTTL time.Duration, config ClientConfig, metrics *observability.Metrics, logger *zap.Logger) *OpenMeteoClient {
	return &OpenMeteoClient{
		BaseClient: NewBaseClient("forecast", config, metrics, logger),
		baseURL:    baseURL,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// HourlyForecast fetches the hourly forecast covering [start, end] and zips
// the variable arrays against the time axis. Hours past the end of a shorter
// variable array default to 0 (precipitation, wind) or stay nil (humidity).
func (c *OpenMeteoClient) HourlyForecast(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.HourlyObservation, error) {
	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")
	cacheKey := fmt.Sprintf("forecast_%.4f_%.4f_%s_%s", lat, lon, startStr, endStr)

	raw, ok := c.cache.Get(cacheKey)
	if !ok {
		params := url.Values{}
		params.Set("latitude", fmt.Sprintf("%f", lat))
		params.Set("longitude", fmt.Sprintf("%f", lon))
		params.Set("start_date", startStr)
		params.Set("end_date", endStr)
		params.Set("hourly", "temperature_2m,precipitation,relative_humidity_2m,windspeed_10m")
		params.Set("timezone", "auto")

		body, err := c.GetWithRetry(ctx, c.baseURL+"?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch forecast: %w", err)
		}
		raw = body

		if err := c.cache.Set(cacheKey, raw, c.cacheTTL); err != nil {
			c.logger.Warn("Failed to cache forecast response",
				zap.String("key", cacheKey),
				zap.Error(err))
		}
	}

	var response openMeteoHourlyResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("failed to parse forecast response: %w", err)
	}

	return c.normalize(response)
}

func (c *OpenMeteoClient) normalize(response openMeteoHourlyResponse) ([]models.HourlyObservation, error) {
	h := response.Hourly

	observations := make([]models.HourlyObservation, 0, len(h.Time))
	for i, raw := range h.Time {
		if i >= len(h.Temperature2M) {
			break
		}

		ts, err := time.Parse(openMeteoTimeLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse forecast time %q: %w", raw, err)
		}

		obs := models.HourlyObservation{
			Time:        ts,
			Temperature: h.Temperature2M[i],
		}
		if i < len(h.Precipitation) {
			obs.Precipitation = h.Precipitation[i]
		}
		if i < len(h.WindSpeed10M) {
			obs.WindSpeed = h.WindSpeed10M[i]
		}
		if i < len(h.RelativeHumidity2M) {
			humidity := h.RelativeHumidity2M[i]
			obs.Humidity = &humidity
		}

		observations = append(observations, obs)
	}

	return observations, nil
}
