package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"weather-risk-service/internal/api"
	"weather-risk-service/internal/config"
	"weather-risk-service/internal/locations"
	"weather-risk-service/internal/observability"
	"weather-risk-service/internal/risk"
	"weather-risk-service/internal/services"
	"weather-risk-service/pkg/client"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Risk Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// The threshold table is required; the process cannot serve without it.
	thresholds, err := config.LoadThresholds(cfg.Thresholds.Path)
	if err != nil {
		logger.Fatal("Failed to load thresholds", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// File-backed response cache shared by both upstream clients
	cache, err := services.NewFileCache(cfg.Cache.Dir, clock, metrics, logger)
	if err != nil {
		logger.Fatal("Failed to initialize response cache", zap.Error(err))
	}

	// Upstream clients
	nasaClient := client.NewNasaPowerClient(
		cfg.Upstream.NasaPowerURL,
		cache,
		cfg.Cache.HistoricalTTL,
		client.ClientConfig{
			Timeout:        cfg.Upstream.NasaTimeout,
			MaxRetries:     cfg.Retry.MaxRetries,
			RetryDelay:     cfg.Retry.Delay,
			Multiplier:     cfg.Retry.Multiplier,
			BreakerTimeout: cfg.CircuitBreaker.Timeout,
		},
		metrics,
		logger,
	)

	forecastClient := client.NewOpenMeteoClient(
		cfg.Upstream.OpenMeteoURL,
		cache,
		cfg.Cache.ForecastTTL,
		client.ClientConfig{
			Timeout:        cfg.Upstream.ForecastTimeout,
			MaxRetries:     cfg.Retry.MaxRetries,
			RetryDelay:     cfg.Retry.Delay,
			Multiplier:     cfg.Retry.Multiplier,
			BreakerTimeout: cfg.CircuitBreaker.Timeout,
		},
		metrics,
		logger,
	)

	// Classifiers share the one immutable threshold table
	riskClassifier := risk.NewClassifier(thresholds)
	conditionClassifier := risk.NewConditionClassifier(thresholds)

	router := services.NewRouter(
		nasaClient,
		forecastClient,
		riskClassifier,
		conditionClassifier,
		clock,
		metrics,
		logger,
	)

	// Area autocomplete store
	areas, err := locations.OpenAreaStore(cfg.Areas.DBPath)
	if err != nil {
		logger.Fatal("Failed to open area store", zap.Error(err))
	}
	defer areas.Close()

	// Geocoder: Google when a key is configured, Nominatim otherwise
	var geocoder locations.Geocoder
	if cfg.Upstream.GeocoderAPIKey != "" {
		geocoder = locations.NewGoogleGeocoder(cfg.Upstream.GeocoderAPIKey, metrics, logger)
		logger.Info("Google geocoder initialized")
	} else {
		geocoder = locations.NewNominatimGeocoder(cfg.Upstream.NominatimURL, cfg.Upstream.ForecastTimeout, metrics, logger)
		logger.Info("Nominatim geocoder initialized")
	}

	// Hourly sweep of expired cache files
	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@hourly", cache.Sweep); err != nil {
		logger.Fatal("Failed to schedule cache sweep", zap.Error(err))
	}
	sweeper.Start()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: errorHandler,
	})

	handler := api.NewHandler(router, areas, geocoder, logger)
	api.SetupRoutes(app, handler, logger)

	// Metrics listener on its own port
	metricsServer := observability.NewMetricsServer(cfg.Server.MetricsPort, logger)
	go func() {
		if err := metricsServer.Start(); err != nil {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sweeper.Stop()

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", zap.Error(err))
	}

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	// Default to 500 status code
	code := fiber.StatusInternalServerError

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
