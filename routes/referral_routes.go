package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/snkproperties/snkprop_backend/controllers"
	"github.com/snkproperties/snkprop_backend/middleware"
)

// RegisterReferralRoutes sets up the admin commission-ledger surface
func RegisterReferralRoutes(e *echo.Echo, referralController *controllers.ReferralController) {
	admin := e.Group("/api/admin/referrals")
	admin.Use(middleware.JWTMiddleware(), middleware.RequireAdmin())

	admin.GET("/overview", referralController.GetOverview)
	admin.GET("/top-performers", referralController.GetTopPerformers)
	admin.GET("/unpaid", referralController.GetUnpaidCommissions)
	admin.GET("/analytics", referralController.GetReferralAnalytics)

	admin.GET("/employees/:id/stats", referralController.GetEmployeeStats)
	admin.GET("/employees/:id/performance", referralController.GetEmployeePerformance)
	admin.POST("/employees/:id/calculate", referralController.CalculateEarnings)
	admin.POST("/employees/:id/mark-paid", referralController.MarkPaid)
}
