package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"drive_router/pkg/geo"
	"drive_router/pkg/input"
	"drive_router/pkg/planner"
)

// invalidInputMessage is returned for any form that fails validation.
const invalidInputMessage = "Invalid input. Please enter two valid coordinates (longitude, latitude) for both source and destination."

// maxJSONBody bounds the JSON request body.
const maxJSONBody = 1024

// RoutePlanner computes routes. *planner.Planner implements it.
type RoutePlanner interface {
	Plan(ctx context.Context, src, dst geo.Coordinate) (*planner.Result, error)
	Stats(ctx context.Context) (planner.Stats, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	planner RoutePlanner
	log     *zap.Logger
}

// NewHandlers creates handlers with the given planner.
func NewHandlers(p RoutePlanner, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{planner: p, log: log}
}

// RegisterRoutes registers the page and API routes.
func (h *Handlers) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.HandleIndex)
	r.POST("/api/route", h.HandleRouteForm)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/route", h.HandleRoute)
		v1.GET("/health", h.HandleHealth)
		v1.GET("/stats", h.HandleStats)
	}
}

// HandleIndex handles GET / with the input form.
func (h *Handlers) HandleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// HandleRouteForm handles POST /api/route from the HTML form.
func (h *Handlers) HandleRouteForm(c *gin.Context) {
	src, dst, err := input.Validate(c.PostFormArray("source"), c.PostFormArray("destination"))
	if err != nil {
		h.log.Debug("rejected route form", zap.Error(err))
		c.String(http.StatusBadRequest, invalidInputMessage)
		return
	}

	res, err := h.planner.Plan(c.Request.Context(), src, dst)
	if err != nil {
		status, code := statusFor(err)
		h.logFailure(err, status, code)
		c.String(status, "Route calculation failed: %s", err.Error())
		return
	}

	c.HTML(http.StatusOK, "route.html", gin.H{
		"source":         formatCoord(res.Source),
		"destination":    formatCoord(res.Destination),
		"travel_time":    fmt.Sprintf("%.2f", res.Summary.TimeMinutes),
		"total_distance": fmt.Sprintf("%.2f", res.Summary.DistanceKm),
		"image_url":      res.Image.URL,
	})
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(c *gin.Context) {
	if c.ContentType() != "application/json" {
		writeError(c, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req RouteRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBody)
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "")
		return
	}

	src, err := input.FromFloats(req.Source)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_coordinates", "source")
		return
	}
	dst, err := input.FromFloats(req.Destination)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_coordinates", "destination")
		return
	}

	res, err := h.planner.Plan(c.Request.Context(), src, dst)
	if err != nil {
		status, code := statusFor(err)
		h.logFailure(err, status, code)
		writeError(c, status, code, "")
		return
	}

	c.JSON(http.StatusOK, RouteResponse{
		Source:            [2]float64{res.Source.Lon, res.Source.Lat},
		Destination:       [2]float64{res.Destination.Lon, res.Destination.Lat},
		TravelTimeMinutes: res.Summary.TimeMinutes,
		TotalDistanceKm:   res.Summary.DistanceKm,
		TravelTime:        fmt.Sprintf("%.2f", res.Summary.TimeMinutes),
		TotalDistance:     fmt.Sprintf("%.2f", res.Summary.DistanceKm),
		ImageURL:          res.Image.URL,
	})
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats. It loads the network if needed.
func (h *Handlers) HandleStats(c *gin.Context) {
	st, err := h.planner.Stats(c.Request.Context())
	if err != nil {
		status, code := statusFor(err)
		h.logFailure(err, status, code)
		writeError(c, status, code, "")
		return
	}
	c.JSON(http.StatusOK, StatsResponse{NumNodes: st.NumNodes, NumEdges: st.NumEdges, LoadedAt: st.LoadedAt})
}

func (h *Handlers) logFailure(err error, status int, code string) {
	fields := []zap.Field{zap.Error(err), zap.Int("status", status), zap.String("code", code)}
	if status >= http.StatusInternalServerError {
		h.log.Error("route request failed", fields...)
		return
	}
	h.log.Info("route request failed", fields...)
}

func formatCoord(c geo.Coordinate) string {
	return fmt.Sprintf("%.6f, %.6f", c.Lon, c.Lat)
}

func writeError(c *gin.Context, status int, code, field string) {
	c.JSON(status, ErrorResponse{Error: code, Field: field})
}
