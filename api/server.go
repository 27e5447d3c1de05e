// Package api exposes the aggregation engine over HTTP
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"routeweather.app/aggregate"
	"routeweather.app/config"
	weathererr "routeweather.app/errors"
	"routeweather.app/models"
	"routeweather.app/providers/cache"
	"routeweather.app/ratelimit"
	"routeweather.app/scheduler"
)

// Server represents the HTTP server and API handler
type Server struct {
	router         *gin.Engine
	config         *config.Config
	manager        *aggregate.Manager
	orchestrator   *aggregate.BatchOrchestrator
	healthMonitor  *scheduler.HealthMonitor
	routeCache     cache.Cache
	weatherLimiter *ratelimit.Limiter
	uploadLimiter  *ratelimit.Limiter
}

// NewServer creates and configures a new HTTP server
func NewServer(
	cfg *config.Config,
	manager *aggregate.Manager,
	orchestrator *aggregate.BatchOrchestrator,
	healthMonitor *scheduler.HealthMonitor,
	routeCache cache.Cache,
	weatherLimiter *ratelimit.Limiter,
	uploadLimiter *ratelimit.Limiter,
) *Server {
	router := gin.Default()
	router.Use(requestIDMiddleware())
	registerValidations()

	server := &Server{
		router:         router,
		config:         cfg,
		manager:        manager,
		orchestrator:   orchestrator,
		healthMonitor:  healthMonitor,
		routeCache:     routeCache,
		weatherLimiter: weatherLimiter,
		uploadLimiter:  uploadLimiter,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/weather", s.weatherLimiter.Middleware(ratelimit.ClientIPKey), s.getWeather)
		api.POST("/forecast/route", s.uploadLimiter.Middleware(ratelimit.ClientIPAndIDKey), s.getRouteForecast)
		api.GET("/providers/status", s.getProviderStatus)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start begins the HTTP server
func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%d", s.config.Server.Port))
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// registerValidations installs the provider-name rule used by the
// route forecast request binding
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("providerid", func(fl validator.FieldLevel) bool {
		name := models.ProviderID(fl.Field().String())
		for _, id := range models.AllProviderIDs() {
			if id == name {
				return true
			}
		}
		return false
	})
}

// requestIDMiddleware tags each request with an id for log correlation
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) getWeather(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		s.handleError(c, weathererr.NewValidationError("lat must be a number between -90 and 90"))
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		s.handleError(c, weathererr.NewValidationError("lon must be a number between -180 and 180"))
		return
	}

	providerIDs := parseProviderFilter(c.QueryArray("provider"))

	slog.Debug("Getting multi-source weather", "lat", lat, "lon", lon)
	weather, err := s.manager.FetchMultiSourceData(c.Request.Context(), lat, lon, providerIDs)
	if err != nil {
		slog.Error("Aggregation error", "error", err, "lat", lat, "lon", lon)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, weather)
}

// RouteForecastRequest is the body of POST /api/forecast/route
type RouteForecastRequest struct {
	Points    []models.RoutePoint `json:"points" binding:"required,min=1,max=500,dive"`
	StartTime time.Time           `json:"startTime"`
	AvgSpeed  float64             `json:"avgSpeed" binding:"gte=0"`
	Interval  int                 `json:"intervalMinutes" binding:"gte=0"`
	Units     string              `json:"units"`
	Providers []string            `json:"providers" binding:"dive,providerid"`
}

// RouteForecastResponse carries the per-point forecasts plus run metadata
type RouteForecastResponse struct {
	Forecasts []models.MultiSourceWeatherForecast `json:"forecasts"`
	Requested int                                 `json:"requestedPoints"`
	Succeeded int                                 `json:"succeededPoints"`
	FromCache bool                                `json:"fromCache"`
}

func (s *Server) getRouteForecast(c *gin.Context) {
	var req RouteForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, weathererr.NewValidationError("invalid request format"))
		return
	}

	if req.Units == "" {
		req.Units = "metric"
	}

	cacheKey := cache.RouteForecastKey(routeCacheRequest(&req))
	ctx := c.Request.Context()

	if data, found := s.routeCache.Get(ctx, cacheKey); found {
		var cached RouteForecastResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			cached.FromCache = true
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	providerIDs := parseProviderFilter(req.Providers)

	slog.Info("Route forecast requested",
		"points", len(req.Points), "requestID", c.GetString("requestID"))

	forecasts := s.orchestrator.FetchMultiSourceForecasts(ctx, req.Points, providerIDs,
		func(processed, total int) {
			slog.Debug("route forecast progress", "processed", processed, "total", total,
				"requestID", c.GetString("requestID"))
		})

	if len(forecasts) == 0 {
		s.handleError(c, weathererr.NewNoDataError("no data from any source for any route point"))
		return
	}

	response := RouteForecastResponse{
		Forecasts: forecasts,
		Requested: len(req.Points),
		Succeeded: len(forecasts),
	}

	if data, err := json.Marshal(response); err == nil {
		s.routeCache.Set(ctx, cacheKey, data, s.config.Cache.RouteTTL)
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) getProviderStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": s.healthMonitor.Statuses(),
	})
}

// routeCacheRequest reduces the request to its semantic inputs so that
// identical routes share one cache entry
func routeCacheRequest(req *RouteForecastRequest) cache.RouteForecastRequest {
	points := make([]cache.RouteKeyPoint, 0, len(req.Points))
	for _, p := range req.Points {
		points = append(points, cache.RouteKeyPoint{Lat: p.Latitude, Lon: p.Longitude})
	}
	return cache.RouteForecastRequest{
		Points:    points,
		StartTime: req.StartTime,
		AvgSpeed:  req.AvgSpeed,
		Interval:  time.Duration(req.Interval) * time.Minute,
		Units:     req.Units,
	}
}

func parseProviderFilter(raw []string) []models.ProviderID {
	if len(raw) == 0 {
		return nil
	}
	ids := make([]models.ProviderID, 0, len(raw))
	for _, r := range raw {
		ids = append(ids, models.ProviderID(r))
	}
	return ids
}

func (s *Server) handleError(c *gin.Context, err error) {
	var appErr *weathererr.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	switch appErr.Type {
	case weathererr.ValidationError:
		c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message})
	case weathererr.NoDataError:
		c.JSON(http.StatusNotFound, gin.H{"error": appErr.Message})
	case weathererr.RateLimitError:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": appErr.Message})
	case weathererr.ConfigurationError:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": appErr.Message})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": appErr.Message})
	}
}
