package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snkproperties/snkprop_backend/controllers"
	"github.com/snkproperties/snkprop_backend/middleware"
)

// RegisterEmployeeRoutes sets up the employee account and dashboard
// surface plus the public referral-code check
func RegisterEmployeeRoutes(e *echo.Echo, employeeController *controllers.EmployeeController) {
	// Public: code check during signup, employee login
	e.GET("/api/referral/validate", employeeController.ValidateReferralCode)
	e.POST("/api/employees/login", employeeController.LoginEmployee)

	// Employee self-service
	employee := e.Group("/api/employees")
	employee.Use(middleware.JWTMiddleware(), middleware.RequireUserType("employee"))
	employee.GET("/dashboard", employeeController.GetDashboard)
	employee.GET("/stats", employeeController.GetMonthlyStats)

	// Admin management
	admin := e.Group("/api/admin/employees")
	admin.Use(middleware.JWTMiddleware(), middleware.RequireAdmin())
	admin.POST("", employeeController.CreateEmployee)
	admin.GET("", employeeController.ListEmployees)
	admin.GET("/:id", employeeController.GetEmployee)
	admin.PUT("/:id/rates", employeeController.UpdateEmployeeRates)
	admin.DELETE("/:id", employeeController.DeactivateEmployee)
}
