package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snkproperties/snkprop_backend/controllers"
	"github.com/snkproperties/snkprop_backend/middleware"
)

// RegisterAuthRoutes sets up registration, login and profile routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	// Public routes
	public := e.Group("/api/auth")
	public.POST("/register", authController.Register)
	public.POST("/register-broker", authController.RegisterBroker)
	public.POST("/login", authController.Login)
	public.GET("/validate-session", authController.ValidateSession)

	// Protected profile routes
	protected := e.Group("/api/users")
	protected.Use(middleware.JWTMiddleware())
	protected.GET("/profile", authController.GetProfile)
	protected.PUT("/profile", authController.UpdateProfile)
	protected.POST("/change-password", authController.ChangePassword)
}
