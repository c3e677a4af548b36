package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/snkproperties/snkprop_backend/config"
	"github.com/snkproperties/snkprop_backend/controllers"
	"github.com/snkproperties/snkprop_backend/middleware"
	"github.com/snkproperties/snkprop_backend/repositories"
	"github.com/snkproperties/snkprop_backend/routes"
	"github.com/snkproperties/snkprop_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := config.GetDatabase(client)

	// Create a new Echo instance
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(middleware.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "SNK Properties Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize services
	referralService := services.NewReferralService(db)
	emailService := services.NewEmailService()
	s3Service, err := services.NewS3Service()
	if err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}

	// Initialize repositories
	employeeRepo := repositories.NewEmployeeRepository(db)

	// Initialize controllers
	authController := controllers.NewAuthController(db, referralService, emailService)
	propertyController := controllers.NewPropertyController(db, referralService)
	brokerController := controllers.NewBrokerController(db, s3Service)
	employeeController := controllers.NewEmployeeController(db, employeeRepo, referralService, emailService)
	referralController := controllers.NewReferralController(db, redisClient, referralService, employeeRepo, emailService)
	versionController := controllers.NewAppVersionController(db, redisClient)
	statisticsController := controllers.NewStatisticsController(db)
	uploadController := controllers.NewUploadController(db, s3Service)

	// Register routes
	routes.RegisterAuthRoutes(e, authController)
	routes.RegisterPropertyRoutes(e, propertyController)
	routes.RegisterBrokerRoutes(e, brokerController)
	routes.RegisterEmployeeRoutes(e, employeeController)
	routes.RegisterReferralRoutes(e, referralController)
	routes.RegisterAppRoutes(e, versionController, statisticsController)
	routes.RegisterUploadRoutes(e, uploadController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
