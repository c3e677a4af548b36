// controllers/employee_controller.go
package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/snkproperties/snkprop_backend/middleware"
	"github.com/snkproperties/snkprop_backend/models"
	"github.com/snkproperties/snkprop_backend/repositories"
	"github.com/snkproperties/snkprop_backend/services"
	"github.com/snkproperties/snkprop_backend/utils"
)

type EmployeeController struct {
	DB              *mongo.Database
	validate        *validator.Validate
	employeeRepo    *repositories.EmployeeRepository
	referralService *services.ReferralService
	emailService    *services.EmailService
}

func NewEmployeeController(db *mongo.Database, employeeRepo *repositories.EmployeeRepository, referralService *services.ReferralService, emailService *services.EmailService) *EmployeeController {
	return &EmployeeController{
		DB:              db,
		validate:        validator.New(),
		employeeRepo:    employeeRepo,
		referralService: referralService,
		emailService:    emailService,
	}
}

// CreateEmployee onboards a sales employee (admin only). Codes are
// generated server-side; credentials are mailed to the employee.
func (ec *EmployeeController) CreateEmployee(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CreateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := ec.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	role := req.Role
	if role == "" {
		role = "field_agent"
	}

	employee := &models.Employee{
		EmployeeName: req.EmployeeName,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     hashedPassword,
		Role:         role,
		JoinDate:     time.Now(),
	}
	if req.Targets != nil {
		employee.Targets = *req.Targets
	}
	if req.CommissionRates != nil {
		employee.CommissionRates = *req.CommissionRates
	}
	if req.BankDetails != nil {
		employee.BankDetails = *req.BankDetails
	}
	employee.Address = req.Address

	if err := ec.employeeRepo.Create(ctx, employee); err != nil {
		switch err {
		case repositories.ErrDuplicateEmail:
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Email already registered",
			})
		case repositories.ErrCodeGeneration:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to generate unique employee codes",
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to create employee",
			})
		}
	}

	go func() {
		if err := ec.emailService.SendEmployeeCredentials(employee, req.Password); err != nil {
			log.Printf("Failed to send credentials email to %s: %v", employee.Email, err)
		}
	}()

	employee.Password = ""
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Employee created successfully",
		Data:    employee,
	})
}

// ListEmployees returns the employee directory with free-text search
// over name, email and codes, plus role/isActive filters (admin only)
func (ec *EmployeeController) ListEmployees(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, limit := 1, 10
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	filter := repositories.SearchFilter{
		Search: c.QueryParam("search"),
		Role:   c.QueryParam("role"),
	}
	if activeStr := c.QueryParam("isActive"); activeStr != "" {
		active := activeStr == "true"
		filter.IsActive = &active
	}

	employees, total, err := ec.employeeRepo.Search(ctx, filter, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch employees",
		})
	}

	for i := range employees {
		employees[i].Password = ""
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Employees retrieved successfully",
		Data: map[string]interface{}{
			"employees":  employees,
			"pagination": models.NewPagination(page, limit, total),
		},
	})
}

// GetEmployee returns one employee with their six most recent ledger
// entries (admin only)
func (ec *EmployeeController) GetEmployee(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	employeeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid employee ID",
		})
	}

	employee, err := ec.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Employee not found",
		})
	}

	recentStats, err := ec.referralService.GetRecentStats(ctx, employeeID, 6)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch referral stats",
		})
	}

	employee.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Employee retrieved successfully",
		Data: map[string]interface{}{
			"employee":    employee,
			"recentStats": recentStats,
		},
	})
}

// LoginEmployee authenticates an employee against the employees collection
func (ec *EmployeeController) LoginEmployee(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := ec.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	employee, err := ec.employeeRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}
	if !employee.IsActive {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is deactivated",
		})
	}
	if err := utils.CheckPassword(employee.Password, req.Password); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(employee.ID.Hex(), employee.Email, "employee")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	if err := ec.employeeRepo.UpdateLastLogin(ctx, employee.ID); err != nil {
		log.Printf("Failed to update last login for employee %s: %v", employee.ID.Hex(), err)
	}

	employee.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"employee":     employee,
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

// ValidateReferralCode is the public pre-signup check the mobile app
// calls while the user types a code
func (ec *EmployeeController) ValidateReferralCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Referral code is required",
		})
	}

	employee, err := ec.referralService.ValidateReferralCode(ctx, code)
	if err != nil {
		if err == services.ErrInvalidReferralCode {
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Referral code validation result",
				Data:    map[string]interface{}{"valid": false},
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to validate referral code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral code validation result",
		Data: map[string]interface{}{
			"valid":        true,
			"employeeName": employee.EmployeeName,
		},
	})
}

// GetDashboard returns the authenticated employee's home view: current
// period ledger entry, all-time totals, six-month trend, most recent
// referrals, live commission calculation and referral link
func (ec *EmployeeController) GetDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	employeeID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid employee ID",
		})
	}

	employee, err := ec.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Employee not found",
		})
	}

	now := time.Now()
	year, month := now.Year(), int(now.Month())

	stats, err := ec.referralService.GetPeriod(ctx, employeeID, year, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch referral stats",
		})
	}
	if stats == nil {
		stats = models.NewReferralStats(employeeID, now)
	}

	commission, err := ec.referralService.CalculateMonthlyCommission(ctx, employeeID, year, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to calculate commission",
		})
	}

	allTime, err := ec.referralService.GetAllTimeTotals(ctx, employeeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch all-time stats",
		})
	}

	trend, err := ec.referralService.GetMonthlyTrend(ctx, employeeID, 6)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch monthly trend",
		})
	}

	recentReferrals, err := ec.referralService.GetRecentReferrals(ctx, employeeID, 10)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch recent referrals",
		})
	}

	qrCode, err := generateReferralQRCode(employee.ReferralCode)
	if err != nil {
		log.Printf("Failed to generate QR code for %s: %v", employee.ReferralCode, err)
	}

	employee.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard retrieved successfully",
		Data: map[string]interface{}{
			"employee":        employee,
			"currentPeriod":   stats,
			"allTime":         allTime,
			"monthlyTrend":    trend,
			"recentReferrals": recentReferrals,
			"commission":      commission,
			"referralLink":    fmt.Sprintf("https://snkproperties.com/referral?code=%s", employee.ReferralCode),
			"qrCode":          qrCode,
		},
	})
}

// GetMonthlyStats returns the authenticated employee's ledger entry for a
// given period, defaulting to the current month
func (ec *EmployeeController) GetMonthlyStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	employeeID, err := primitive.ObjectIDFromHex(userID)
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

	stats, err := ec.referralService.GetPeriod(ctx, employeeID, year, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch referral stats",
		})
	}
	if stats == nil {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "No referral activity for the period",
			Data:    models.NewReferralStats(employeeID, time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral stats retrieved successfully",
		Data:    stats,
	})
}

// UpdateEmployeeRates replaces an employee's rate card and targets
// (admin only)
func (ec *EmployeeController) UpdateEmployeeRates(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	employeeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid employee ID",
		})
	}

	var req struct {
		CommissionRates models.CommissionRates `json:"commissionRates"`
		Targets         models.EmployeeTargets `json:"targets"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := ec.employeeRepo.UpdateRates(ctx, employeeID, req.CommissionRates, req.Targets); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Employee not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update employee rates",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Employee rates updated successfully",
	})
}

// DeactivateEmployee disables an employee account (admin only)
func (ec *EmployeeController) DeactivateEmployee(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	employeeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid employee ID",
		})
	}

	if err := ec.employeeRepo.Deactivate(ctx, employeeID); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Employee not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to deactivate employee",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Employee deactivated successfully",
	})
}

// generateReferralQRCode renders a referral link as a base64 PNG QR code
func generateReferralQRCode(referralCode string) (string, error) {
	content := fmt.Sprintf("https://snkproperties.com/referral?code=%s", referralCode)

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// parseYearMonth reads optional year/month query params with defaults
func parseYearMonth(c echo.Context, defaultYear, defaultMonth int) (int, int, bool) {
	year, month := defaultYear, defaultMonth

	if yearStr := c.QueryParam("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil || parsed < 2000 || parsed > 2100 {
			return 0, 0, false
		}
		year = parsed
	}
	if monthStr := c.QueryParam("month"); monthStr != "" {
		parsed, err := strconv.Atoi(monthStr)
		if err != nil || parsed < 1 || parsed > 12 {
			return 0, 0, false
		}
		month = parsed
	}
	return year, month, true
}
