package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snkproperties/snkprop_backend/controllers"
	"github.com/snkproperties/snkprop_backend/middleware"
)

// RegisterPropertyRoutes sets up listing browse and management routes
func RegisterPropertyRoutes(e *echo.Echo, propertyController *controllers.PropertyController) {
	// Public browsing
	public := e.Group("/api/properties")
	public.GET("", propertyController.GetProperties)
	public.GET("/:id", propertyController.GetProperty)

	// Broker-managed listings
	broker := e.Group("/api/properties")
	broker.Use(middleware.JWTMiddleware(), middleware.RequireBroker())
	broker.POST("", propertyController.CreateProperty)
	broker.GET("/my/listings", propertyController.GetMyProperties)
	broker.PUT("/:id", propertyController.UpdateProperty)
	broker.DELETE("/:id", propertyController.DeleteProperty)

	// Any authenticated user can favorite
	user := e.Group("/api/properties")
	user.Use(middleware.JWTMiddleware())
	user.POST("/:id/favorite", propertyController.ToggleFavorite)
}
