package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pbl-proxy-go/internal/config"
	"pbl-proxy-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// The metrics route is only mounted when metrics are enabled.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, download *DownloadHandler, health *HealthHandler) {
	e.GET("/health", health.Health)
	e.GET("/status", health.Status)

	e.GET("/download/:identifier", download.Download)
	e.GET("/api/download", download.DownloadQuery)

	if cfg.Metrics.Enabled && m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
