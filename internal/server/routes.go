package server

import (
	"github.com/assemblage/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiRoutes := e.Group("/api")

	// Clustering routes
	apiRoutes.POST("/assemblages/detect", routes.DetectAssemblagesHandler)
	apiRoutes.POST("/assemblages/jobs", routes.EnqueueDetectHandler)

	// Link and entity routes
	apiRoutes.POST("/links/reconcile", routes.ReconcileLinksHandler)
	apiRoutes.POST("/resolve/match", routes.MatchNamesHandler)
}
