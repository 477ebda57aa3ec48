package server

import (
	"github.com/seekwell/atlas/internal/server/middleware"
	"github.com/seekwell/atlas/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Query routes
	apiRoutes.POST("/query", routes.QueryHandler)
	apiRoutes.GET("/profiles", routes.GetProfilesHandler)
}
