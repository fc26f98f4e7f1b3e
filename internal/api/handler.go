package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"weather-risk-service/internal/locations"
	"weather-risk-service/internal/models"
	"weather-risk-service/internal/services"
)

var validate = validator.New()

type Handler struct {
	router   *services.Router
	areas    *locations.AreaStore
	geocoder locations.Geocoder
	logger   *zap.Logger
}

func NewHandler(router *services.Router, areas *locations.AreaStore, geocoder locations.Geocoder, logger *zap.Logger) *Handler {
	return &Handler{
		router:   router,
		areas:    areas,
		geocoder: geocoder,
		logger:   logger,
	}
}

// hourlyQuery holds the raw query parameters for the hourly weather
// endpoint. Validation runs on the raw strings so a missing parameter and a
// malformed one produce the same 400 tier without touching any upstream.
type hourlyQuery struct {
	Lat  string `validate:"required,latitude"`
	Lon  string `validate:"required,longitude"`
	Date string `validate:"required,datetime=2006-01-02"`
}

// GetHourlyWeather handles GET /api/weather/hourly
func (h *Handler) GetHourlyWeather(c *fiber.Ctx) error {
	q := hourlyQuery{
		Lat:  c.Query("lat"),
		Lon:  c.Query("lon"),
		Date: c.Query("date"),
	}

	if q.Lat == "" || q.Lon == "" || q.Date == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing parameters: lat, lon, and date are required",
		})
	}

	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid parameters: lat and lon must be coordinates, date must be YYYY-MM-DD",
		})
	}

	lat, _ := strconv.ParseFloat(q.Lat, 64)
	lon, _ := strconv.ParseFloat(q.Lon, 64)
	targetDate, _ := time.Parse("2006-01-02", q.Date)

	window := h.router.NewWindow(lat, lon, targetDate)

	h.logger.Info("Fetching hourly weather",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.String("date", q.Date),
		zap.Bool("is_today", window.IsToday),
		zap.Bool("is_future", window.IsFuture))

	records := h.router.HourlyWeather(c.Context(), window)
	if records == nil {
		records = []models.HourlyRecord{}
	}

	return c.JSON(fiber.Map{
		"date": q.Date,
		"location": fiber.Map{
			"latitude":  lat,
			"longitude": lon,
		},
		"hourly_data": records,
		"is_today":    window.IsToday,
		"is_future":   window.IsFuture,
	})
}

// SuggestLocations handles GET /api/location/suggest
func (h *Handler) SuggestLocations(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q parameter is required",
		})
	}

	suggestions, err := h.areas.Suggest(c.Context(), query)
	if err != nil {
		h.logger.Error("Area suggestion lookup failed",
			zap.String("q", query),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch location suggestions",
		})
	}

	return c.JSON(suggestions)
}

type coordinatesRequest struct {
	PlaceName string `json:"place_name" validate:"required"`
}

// GetCoordinates handles POST /api/location/coordinates
func (h *Handler) GetCoordinates(c *fiber.Ctx) error {
	var req coordinatesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "place_name is required",
		})
	}

	coords, err := h.geocoder.Resolve(c.Context(), req.PlaceName)
	if err != nil {
		if !errors.Is(err, locations.ErrPlaceNotFound) {
			h.logger.Warn("Geocoding failed",
				zap.String("place_name", req.PlaceName),
				zap.Error(err))
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Could not resolve place name",
		})
	}

	return c.JSON(coords)
}

// GetHealth handles GET /api/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": "Backend is running",
	})
}
