package locations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"

	"weather-risk-service/internal/models"
	"weather-risk-service/internal/observability"
)

// ErrPlaceNotFound is returned when no coordinates exist for a place name.
var ErrPlaceNotFound = errors.New("no coordinates found for place")

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, placeName string) (models.Coordinates, error)
}

// NominatimGeocoder resolves place names through the OpenStreetMap Nominatim
// search API. It is the default geocoder and needs no API key.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func NewNominatimGeocoder(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

func (g *NominatimGeocoder) Resolve(ctx context.Context, placeName string) (models.Coordinates, error) {
	params := url.Values{}
	params.Set("q", placeName)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("creating geocoding request: %w", err)
	}
	// Nominatim's usage policy requires an identifying agent.
	req.Header.Set("User-Agent", "weather-risk-service/1.0")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	g.metrics.UpstreamDuration.WithLabelValues("geocoder").Observe(time.Since(start).Seconds())
	if err != nil {
		g.metrics.UpstreamRequests.WithLabelValues("geocoder", "error").Inc()
		return models.Coordinates{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.metrics.UpstreamRequests.WithLabelValues("geocoder", "error").Inc()
		return models.Coordinates{}, fmt.Errorf("geocoding service returned HTTP %d", resp.StatusCode)
	}

	// Nominatim returns coordinates as strings.
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		g.metrics.UpstreamRequests.WithLabelValues("geocoder", "error").Inc()
		return models.Coordinates{}, fmt.Errorf("decoding geocoding response: %w", err)
	}

	g.metrics.UpstreamRequests.WithLabelValues("geocoder", "success").Inc()

	if len(results) == 0 {
		return models.Coordinates{}, ErrPlaceNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parsing latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parsing longitude %q: %w", results[0].Lon, err)
	}

	return models.Coordinates{Lat: lat, Lon: lon}, nil
}

// GoogleGeocoder resolves place names through the Google Geocoding API when
// an API key is configured.
type GoogleGeocoder struct {
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewGoogleGeocoder(apiKey string, metrics *observability.Metrics, logger *zap.Logger) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		metrics: metrics,
		logger:  logger,
	}
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, placeName string) (models.Coordinates, error) {
	location, err := geocoder.Geocoding(geocoder.Address{Street: placeName})
	if err != nil {
		g.metrics.UpstreamRequests.WithLabelValues("geocoder", "error").Inc()
		// The library surfaces the upstream status string as the error.
		if err.Error() == "ZERO_RESULTS" {
			return models.Coordinates{}, ErrPlaceNotFound
		}
		return models.Coordinates{}, fmt.Errorf("google geocoding: %w", err)
	}

	g.metrics.UpstreamRequests.WithLabelValues("geocoder", "success").Inc()
	return models.Coordinates{Lat: location.Latitude, Lon: location.Longitude}, nil
}
