package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		MetricsPort  string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}

	Upstream struct {
		NasaPowerURL   string
		OpenMeteoURL   string
		NominatimURL   string
		GeocoderAPIKey string
		NasaTimeout    time.Duration
		ForecastTimeout time.Duration
	}

	Thresholds struct {
		Path string
	}

	Cache struct {
		Dir             string
		HistoricalTTL   time.Duration
		ForecastTTL     time.Duration
	}

	Areas struct {
		DBPath string
	}

	CircuitBreaker struct {
		Timeout time.Duration
	}

	Retry struct {
		MaxRetries int
		Delay      time.Duration
		Multiplier float64
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.MetricsPort = getEnv("METRICS_PORT", "9090")
	cfg.Server.ReadTimeout = parseDuration(getEnv("HTTP_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("HTTP_WRITE_TIMEOUT", "30s"))

	// Upstream services
	cfg.Upstream.NasaPowerURL = getEnv("NASA_POWER_URL", "https://power.larc.nasa.gov/api/temporal/hourly/point")
	cfg.Upstream.OpenMeteoURL = getEnv("OPENMETEO_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.Upstream.NominatimURL = getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search")
	cfg.Upstream.GeocoderAPIKey = getEnv("GOOGLE_GEOCODER_API_KEY", "")
	cfg.Upstream.NasaTimeout = parseDuration(getEnv("NASA_TIMEOUT", "15s"))
	cfg.Upstream.ForecastTimeout = parseDuration(getEnv("FORECAST_TIMEOUT", "15s"))

	// Threshold table
	cfg.Thresholds.Path = getEnv("THRESHOLDS_PATH", "config/thresholds.json")

	// Response cache
	cfg.Cache.Dir = getEnv("CACHE_DIR", "cache")
	cfg.Cache.HistoricalTTL = parseDuration(getEnv("CACHE_HISTORICAL_TTL", "24h"))
	cfg.Cache.ForecastTTL = parseDuration(getEnv("CACHE_FORECAST_TTL", "1h"))

	// Area autocomplete store
	cfg.Areas.DBPath = getEnv("AREAS_DB_PATH", "areas.db")

	// Circuit breaker configuration
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Retry configuration
	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "2"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "500ms"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}
