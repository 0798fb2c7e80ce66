package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pbl-proxy-go/internal/config"
	"pbl-proxy-go/internal/model"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints. Neither touches upstream.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Health returns the constant liveness payload.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, model.HealthResponse{
		Status:  "ok",
		Service: h.cfg.Service.Name,
	})
}

// Status returns relay build and upstream information.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, model.StatusResponse{
		Status:      "ok",
		Service:     h.cfg.Service.Name,
		Version:     string(h.version),
		UpstreamURL: h.cfg.Upstream.BaseURL,
	})
}
