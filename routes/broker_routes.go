package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snkproperties/snkprop_backend/controllers"
	"github.com/snkproperties/snkprop_backend/middleware"
)

// RegisterBrokerRoutes sets up broker management, verification and
// sub-broker routes
func RegisterBrokerRoutes(e *echo.Echo, brokerController *controllers.BrokerController) {
	// Admin management surface
	admin := e.Group("/api/admin/brokers")
	admin.Use(middleware.JWTMiddleware(), middleware.RequireAdmin())
	admin.GET("", brokerController.ListBrokers)
	admin.GET("/pending", brokerController.GetPendingBrokers)
	admin.GET("/:id", brokerController.GetBroker)
	admin.PUT("/:id/verify", brokerController.VerifyBroker)
	admin.DELETE("/:id", brokerController.DeleteBroker)

	// Broker self-service
	broker := e.Group("/api/brokers")
	broker.Use(middleware.JWTMiddleware(), middleware.RequireUserType("broker"))
	broker.POST("/sub-brokers", brokerController.CreateSubBroker)
	broker.GET("/sub-brokers", brokerController.ListSubBrokers)

	// Profile updates: brokers edit their own, admins edit any; the
	// handler enforces ownership
	profile := e.Group("/api/brokers")
	profile.Use(middleware.JWTMiddleware(), middleware.RequireUserType("broker", "sub_broker", "admin"))
	profile.PUT("/:id", brokerController.UpdateBrokerProfile)
}
