// controllers/referral_controller.go
package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/snkproperties/snkprop_backend/models"
	"github.com/snkproperties/snkprop_backend/repositories"
	"github.com/snkproperties/snkprop_backend/services"
)

// How long leaderboard responses stay cached
const topPerformersCacheTTL = 5 * time.Minute

type ReferralController struct {
	DB              *mongo.Database
	validate        *validator.Validate
	redisClient     *redis.Client
	referralService *services.ReferralService
	employeeRepo    *repositories.EmployeeRepository
	emailService    *services.EmailService
}

func NewReferralController(db *mongo.Database, redisClient *redis.Client, referralService *services.ReferralService, employeeRepo *repositories.EmployeeRepository, emailService *services.EmailService) *ReferralController {
	return &ReferralController{
		DB:              db,
		validate:        validator.New(),
		redisClient:     redisClient,
		referralService: referralService,
		employeeRepo:    employeeRepo,
		emailService:    emailService,
	}
}

// CalculateEarnings recomputes and persists one employee period from its
// counters under the employee's current rate card (admin only)
func (rc *ReferralController) CalculateEarnings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	employeeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid employee ID",
		})
	}

	now := time.Now()
	year, month, ok := parseYearMonth(c, now.Year(), int(now.Month()))
	if !ok {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid year or month",
		})
	}

	total, err := rc.referralService.CalculateEarnings(ctx, employeeID, year, month)
	if err != nil {
		switch err {
		case services.ErrEmployeeNotFound:
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Employee not found",
			})
		case services.ErrStatsNotFound:
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "No referral stats for the specified period",
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to calculate earnings",
			})
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Earnings calculated successfully",
		Data: map[string]interface{}{
			"period":        models.PeriodKey(year, month),
			"totalEarnings": total,
		},
	})
}

// MarkPaid settles one employee period (admin only). The period must
// already exist; settling never creates ledger rows.
func (rc *ReferralController) MarkPaid(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	employeeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid employee ID",
		})
	}

	var req models.MarkPaidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := rc.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	stats, err := rc.referralService.MarkPaymentsPaid(ctx, employeeID, req.Year, req.Month, req.PaidAmount, req.PaymentReference)
	if err != nil {
		if err == services.ErrStatsNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "No referral stats for the specified period",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to mark payment as paid",
		})
	}

	go func() {
		notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer notifyCancel()
		employee, err := rc.employeeRepo.GetByID(notifyCtx, employeeID)
		if err != nil {
			log.Printf("Failed to load employee %s for payment notification: %v", employeeID.Hex(), err)
			return
		}
		if err := rc.emailService.SendCommissionPaidEmail(employee, stats.Period, req.PaidAmount, req.PaymentReference); err != nil {
			log.Printf("Failed to send payment notification to %s: %v", employee.Email, err)
		}
	}()

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment marked as paid",
		Data:    stats,
	})
}

// GetEmployeeStats returns any employee's ledger entry for a period
// (admin only)
func (rc *ReferralController) GetEmployeeStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	employeeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid employee ID",
		})
	}

	now := time.Now()
	year, month, ok := parseYearMonth(c, now.Year(), int(now.Month()))
	if !ok {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid year or month",
		})
	}

	stats, err := rc.referralService.GetPeriod(ctx, employeeID, year, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch referral stats",
		})
	}
	if stats == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No referral stats for the specified period",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral stats retrieved successfully",
		Data:    stats,
	})
}

// GetEmployeePerformance sums an employee's ledger over a date range
// (admin only). Dates are inclusive "YYYY-MM-DD"; boundary months count
// in full.
func (rc *ReferralController) GetEmployeePerformance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	employeeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid employee ID",
		})
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	performance, err := rc.referralService.GetEmployeePerformance(ctx, employeeID, start, end)
	if err != nil {
		if err == services.ErrEmployeeNotFound {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Employee not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch employee performance",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Employee performance retrieved successfully",
		Data:    performance,
	})
}

// GetTopPerformers returns the period leaderboard (admin only). Results
// are cached in Redis for a few minutes since the board backs a
// frequently refreshed dashboard widget.
func (rc *ReferralController) GetTopPerformers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	year, month, ok := parseYearMonth(c, now.Year(), int(now.Month()))
	if !ok {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid year or month",
		})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	sortBy := c.QueryParam("sortBy")
	switch sortBy {
	case "", services.SortByTotalCommission, services.SortByTotalReferred,
		services.SortByUsersReferred, services.SortByBrokersReferred:
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid sortBy value",
		})
	}

	cacheKey := fmt.Sprintf("top_performers:%s:%s:%d", models.PeriodKey(year, month), sortBy, limit)
	if rc.redisClient != nil {
		if cached, err := rc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var performers []models.TopPerformer
			if err := json.Unmarshal([]byte(cached), &performers); err == nil {
				return c.JSON(http.StatusOK, models.Response{
					Status:  http.StatusOK,
					Message: "Top performers retrieved successfully",
					Data:    performers,
				})
			}
		}
	}

	performers, err := rc.referralService.GetTopPerformers(ctx, year, month, limit, sortBy)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch top performers",
		})
	}
	if performers == nil {
		performers = []models.TopPerformer{}
	}

	if rc.redisClient != nil {
		if payload, err := json.Marshal(performers); err == nil {
			if err := rc.redisClient.Set(ctx, cacheKey, payload, topPerformersCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache top performers: %v", err)
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Top performers retrieved successfully",
		Data:    performers,
	})
}

// GetOverview rolls one period up across every employee: counters,
// earnings, paid/pending split and the period's top five performers
// (admin only)
func (rc *ReferralController) GetOverview(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	year, month, ok := parseYearMonth(c, now.Year(), int(now.Month()))
	if !ok {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid year or month",
		})
	}

	overview, err := rc.referralService.GetOverview(ctx, year, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch referral overview",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral overview retrieved successfully",
		Data:    overview,
	})
}

// GetUnpaidCommissions lists outstanding commission grouped by employee
// (admin only)
func (rc *ReferralController) GetUnpaidCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unpaid, err := rc.referralService.GetUnpaidCommissions(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch unpaid commissions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Unpaid commissions retrieved successfully",
		Data:    unpaid,
	})
}

// GetReferralAnalytics reports referred-signup counts from the user
// records over a date range (admin only)
func (rc *ReferralController) GetReferralAnalytics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start, end, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	analytics, err := rc.referralService.GetReferralAnalytics(ctx, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch referral analytics",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral analytics retrieved successfully",
		Data:    analytics,
	})
}

// parseDateRange reads startDate/endDate query params ("YYYY-MM-DD"),
// defaulting to the last 90 days. The end date is inclusive.
func parseDateRange(c echo.Context) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -90)
	end := now

	if startStr := c.QueryParam("startDate"); startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate, expected YYYY-MM-DD")
		}
		start = parsed
	}
	if endStr := c.QueryParam("endDate"); endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate, expected YYYY-MM-DD")
		}
		// include the whole end day
		end = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("endDate must not be before startDate")
	}
	return start, end, nil
}
