package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snkproperties/snkprop_backend/controllers"
	"github.com/snkproperties/snkprop_backend/middleware"
)

// RegisterAppRoutes sets up version-check and statistics routes
func RegisterAppRoutes(e *echo.Echo, versionController *controllers.AppVersionController, statisticsController *controllers.StatisticsController) {
	// Public, polled by mobile clients
	e.GET("/api/app/version-check", versionController.CheckVersion)
	e.POST("/api/app/download", statisticsController.RecordDownload)

	// Admin release management and dashboard counters
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware(), middleware.RequireAdmin())
	admin.POST("/app-versions", versionController.CreateVersion)
	admin.GET("/app-versions", versionController.ListVersions)
	admin.GET("/statistics", statisticsController.GetStatistics)
}
