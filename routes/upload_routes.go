package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snkproperties/snkprop_backend/controllers"
	"github.com/snkproperties/snkprop_backend/middleware"
)

// RegisterUploadRoutes sets up image and document upload routes
func RegisterUploadRoutes(e *echo.Echo, uploadController *controllers.UploadController) {
	upload := e.Group("/api/upload")
	upload.Use(middleware.JWTMiddleware())

	upload.POST("/profile-image", uploadController.UploadProfileImage)
	upload.POST("/presigned-url", uploadController.GetPresignedUploadURL)

	broker := e.Group("/api/upload")
	broker.Use(middleware.JWTMiddleware(), middleware.RequireBroker())
	broker.POST("/property-image", uploadController.UploadPropertyImage)
	broker.POST("/kyc-document", uploadController.UploadKYCDocument)
}
