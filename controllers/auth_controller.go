// controllers/auth_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snkproperties/snkprop_backend/middleware"
	"github.com/snkproperties/snkprop_backend/models"
	"github.com/snkproperties/snkprop_backend/services"
	"github.com/snkproperties/snkprop_backend/utils"
)

type AuthController struct {
	DB              *mongo.Database
	validate        *validator.Validate
	referralService *services.ReferralService
	emailService    *services.EmailService
}

func NewAuthController(db *mongo.Database, referralService *services.ReferralService, emailService *services.EmailService) *AuthController {
	return &AuthController{
		DB:              db,
		validate:        validator.New(),
		referralService: referralService,
		emailService:    emailService,
	}
}

// Register creates a regular user account. When the payload carries a
// referral code the signup is linked to the referring employee after the
// insert commits; a bad code never fails the registration, but the
// response flags it so the client can tell the user.
func (ac *AuthController) Register(c echo.Context) error {
	return ac.register(c, "user")
}

// RegisterBroker creates a broker account pending verification.
func (ac *AuthController) RegisterBroker(c echo.Context) error {
	return ac.register(c, "broker")
}

func (ac *AuthController) register(c echo.Context, userType string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := ac.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	count, err := ac.DB.Collection("users").CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check existing users",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Email already registered",
		})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	now := time.Now()
	user := models.User{
		ID:            primitive.NewObjectID(),
		Email:         email,
		Password:      hashedPassword,
		FullName:      req.FullName,
		ContactNumber: req.ContactNumber,
		Location:      req.Location,
		PropertyType:  req.PropertyType,
		UserType:      userType,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if userType == "broker" {
		user.VerificationStatus = "pending"
	}

	// Resolve the referral code before the insert so the response can
	// report whether it took. A bad code never fails the registration.
	var referringEmployee *models.Employee
	invalidReferralCode := false
	if req.ReferralCode != "" {
		referringEmployee, err = ac.referralService.ValidateReferralCode(ctx, req.ReferralCode)
		if err != nil {
			if err != services.ErrInvalidReferralCode {
				log.Printf("Failed to validate referral code %s: %v", req.ReferralCode, err)
			}
			referringEmployee = nil
			invalidReferralCode = true
		}
	}

	if _, err := ac.DB.Collection("users").InsertOne(ctx, user); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	// Referral attribution, the download-style user counter and the
	// welcome email run after the signup has committed; none can fail
	// the registration.
	if referringEmployee != nil {
		employee := referringEmployee
		go func() {
			trackCtx, trackCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer trackCancel()
			if err := ac.referralService.CreditReferral(trackCtx, employee, user.ID, userType); err != nil {
				log.Printf("Failed to track referral for user %s with code %s: %v", user.ID.Hex(), employee.ReferralCode, err)
			}
		}()
	}
	go func() {
		statsCtx, statsCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer statsCancel()
		if err := bumpUserStatistics(statsCtx, ac.DB); err != nil {
			log.Printf("Failed to bump user statistics: %v", err)
		}
	}()
	go func() {
		if err := ac.emailService.SendWelcomeEmail(user.Email, user.FullName); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
		}
	}()

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.UserType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Account created but failed to generate token",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created successfully",
		Data: map[string]interface{}{
			"user":                user,
			"token":               token,
			"refreshToken":        refreshToken,
			"referralApplied":     referringEmployee != nil,
			"invalidReferralCode": invalidReferralCode,
		},
	})
}

// bumpUserStatistics increments the all-time registered-user counter.
func bumpUserStatistics(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("statistics").UpdateOne(ctx,
		bson.M{"period": "all-time"},
		bson.M{
			"$inc": bson.M{"data.users": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Login authenticates a user or broker account
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := ac.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	var user models.User
	err := ac.DB.Collection("users").FindOne(ctx, bson.M{
		"email": strings.ToLower(strings.TrimSpace(req.Email)),
	}).Decode(&user)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if !user.IsActive {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is deactivated",
		})
	}

	if err := utils.CheckPassword(user.Password, req.Password); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.UserType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"user":         user,
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

// GetProfile returns the authenticated user's profile
func (ac *AuthController) GetProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var user models.User
	err = ac.DB.Collection("users").FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data:    user,
	})
}

// UpdateProfile updates the authenticated user's mutable profile fields
func (ac *AuthController) UpdateProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	update := bson.M{"updatedAt": time.Now()}
	if req.FullName != "" {
		update["fullName"] = req.FullName
	}
	if req.ContactNumber != "" {
		update["contactNumber"] = req.ContactNumber
	}
	if req.Location != "" {
		update["location"] = req.Location
	}
	if len(req.PropertyType) > 0 {
		update["propertyType"] = req.PropertyType
	}

	res, err := ac.DB.Collection("users").UpdateByID(ctx, objID, bson.M{"$set": update})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update profile",
		})
	}
	if res.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile updated successfully",
	})
}

// ChangePassword verifies the current password and replaces it
func (ac *AuthController) ChangePassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := ac.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	var user models.User
	err = ac.DB.Collection("users").FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	if err := utils.CheckPassword(user.Password, req.CurrentPassword); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Current password is incorrect",
		})
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	_, err = ac.DB.Collection("users").UpdateByID(ctx, objID, bson.M{
		"$set": bson.M{"password": hashedPassword, "updatedAt": time.Now()},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update password",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password changed successfully",
	})
}

// ValidateSession reports whether the supplied token is still usable
func (ac *AuthController) ValidateSession(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	resp, err := utils.ValidateToken(tokenString)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to validate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token validation result",
		Data:    resp,
	})
}
