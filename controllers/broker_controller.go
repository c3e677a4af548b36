// controllers/broker_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
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

type BrokerController struct {
	DB        *mongo.Database
	validate  *validator.Validate
	s3Service *services.S3Service
}

func NewBrokerController(db *mongo.Database, s3Service *services.S3Service) *BrokerController {
	return &BrokerController{DB: db, validate: validator.New(), s3Service: s3Service}
}

// ListBrokers returns brokers and sub-brokers, paginated, optionally
// filtered by verification status (admin only)
func (bc *BrokerController) ListBrokers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, limit := 1, 10
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	filter := bson.M{"userType": bson.M{"$in": []string{"broker", "sub_broker"}}}
	if status := c.QueryParam("verificationStatus"); status != "" {
		filter["verificationStatus"] = status
	}

	collection := bc.DB.Collection("users")
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count brokers",
		})
	}

	cursor, err := collection.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(int64((page-1)*limit)).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch brokers",
		})
	}
	defer cursor.Close(ctx)

	brokers := []models.User{}
	if err := cursor.All(ctx, &brokers); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode brokers",
		})
	}
	for i := range brokers {
		brokers[i].Password = ""
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Brokers retrieved successfully",
		Data: map[string]interface{}{
			"brokers":    brokers,
			"pagination": models.NewPagination(page, limit, total),
		},
	})
}

// GetBroker returns one broker with their five newest listings and, for
// parent brokers, their sub-broker accounts (admin only)
func (bc *BrokerController) GetBroker(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	brokerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid broker ID",
		})
	}

	var broker models.User
	err = bc.DB.Collection("users").FindOne(ctx, bson.M{
		"_id":      brokerID,
		"userType": bson.M{"$in": []string{"broker", "sub_broker"}},
	}).Decode(&broker)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Broker not found",
		})
	}
	broker.Password = ""

	properties := []models.Property{}
	cursor, err := bc.DB.Collection("properties").Find(ctx,
		bson.M{"brokerId": brokerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(5),
	)
	if err == nil {
		if err := cursor.All(ctx, &properties); err != nil {
			properties = []models.Property{}
		}
		cursor.Close(ctx)
	}

	subBrokers := []models.User{}
	if broker.UserType == "broker" {
		subCursor, err := bc.DB.Collection("users").Find(ctx,
			bson.M{"parentBrokerId": brokerID, "userType": "sub_broker"},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err == nil {
			if err := subCursor.All(ctx, &subBrokers); err != nil {
				subBrokers = []models.User{}
			}
			subCursor.Close(ctx)
			for i := range subBrokers {
				subBrokers[i].Password = ""
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Broker retrieved successfully",
		Data: map[string]interface{}{
			"broker":     broker,
			"properties": properties,
			"subBrokers": subBrokers,
		},
	})
}

// UpdateBrokerProfile updates a broker's mutable profile fields. Brokers
// can update their own profile; admins can update any.
func (bc *BrokerController) UpdateBrokerProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	brokerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid broker ID",
		})
	}

	callerID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	callerType := middleware.ExtractUserType(c)
	if callerID != brokerID.Hex() && callerType != "admin" {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Not authorized to update this profile",
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

	var updated models.User
	err = bc.DB.Collection("users").FindOneAndUpdate(ctx,
		bson.M{"_id": brokerID, "userType": bson.M{"$in": []string{"broker", "sub_broker"}}},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Broker not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update broker profile",
		})
	}

	updated.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Broker profile updated successfully",
		Data:    updated,
	})
}

// DeleteBroker removes a broker account with its listings (admin only).
// Sub-brokers of a deleted parent are detached, not deleted; their
// accounts and listings stand on their own. Stored S3 objects are
// removed best-effort after the database cascade.
func (bc *BrokerController) DeleteBroker(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	brokerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid broker ID",
		})
	}

	var broker models.User
	err = bc.DB.Collection("users").FindOne(ctx, bson.M{
		"_id":      brokerID,
		"userType": bson.M{"$in": []string{"broker", "sub_broker"}},
	}).Decode(&broker)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Broker not found",
		})
	}

	objectURLs := []string{}
	if broker.ProfileImage != "" {
		objectURLs = append(objectURLs, broker.ProfileImage)
	}
	for _, doc := range broker.KYCDocuments {
		objectURLs = append(objectURLs, doc.URL)
	}

	propCursor, err := bc.DB.Collection("properties").Find(ctx, bson.M{"brokerId": brokerID})
	if err == nil {
		var properties []models.Property
		if err := propCursor.All(ctx, &properties); err == nil {
			for _, property := range properties {
				objectURLs = append(objectURLs, property.Images...)
				for _, doc := range property.Documents {
					objectURLs = append(objectURLs, doc.URL)
				}
			}
		}
		propCursor.Close(ctx)
	}

	if _, err := bc.DB.Collection("properties").DeleteMany(ctx, bson.M{"brokerId": brokerID}); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete broker properties",
		})
	}

	if broker.UserType == "broker" {
		_, err := bc.DB.Collection("users").UpdateMany(ctx,
			bson.M{"parentBrokerId": brokerID},
			bson.M{"$unset": bson.M{"parentBrokerId": 1}, "$set": bson.M{"updatedAt": time.Now()}},
		)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to detach sub-brokers",
			})
		}
	}

	if _, err := bc.DB.Collection("users").DeleteOne(ctx, bson.M{"_id": brokerID}); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete broker",
		})
	}

	if bc.s3Service != nil && len(objectURLs) > 0 {
		urls := objectURLs
		go func() {
			for _, url := range urls {
				if err := bc.s3Service.DeleteObject(url); err != nil {
					log.Printf("Failed to delete object %s for broker %s: %v", url, brokerID.Hex(), err)
				}
			}
		}()
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Broker deleted successfully",
	})
}

// GetPendingBrokers lists brokers awaiting verification (admin only)
func (bc *BrokerController) GetPendingBrokers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := bc.DB.Collection("users").Find(ctx,
		bson.M{"userType": "broker", "verificationStatus": "pending"},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending brokers",
		})
	}
	defer cursor.Close(ctx)

	brokers := []models.User{}
	if err := cursor.All(ctx, &brokers); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode brokers",
		})
	}
	for i := range brokers {
		brokers[i].Password = ""
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending brokers retrieved successfully",
		Data:    brokers,
	})
}

// VerifyBroker approves or rejects a broker account (admin only)
func (bc *BrokerController) VerifyBroker(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	brokerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid broker ID",
		})
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=verified rejected"`
		Reason string `json:"reason,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := bc.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "status must be verified or rejected",
		})
	}

	res, err := bc.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": brokerID, "userType": "broker"},
		bson.M{"$set": bson.M{
			"verificationStatus": req.Status,
			"isVerified":         req.Status == "verified",
			"updatedAt":          time.Now(),
		}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update broker",
		})
	}
	if res.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Broker not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Broker verification updated successfully",
	})
}

// CreateSubBroker lets a verified broker create an account under them.
// Sub-brokers list properties like brokers but hang off the parent for
// accountability.
func (bc *BrokerController) CreateSubBroker(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	parentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var parent models.User
	err = bc.DB.Collection("users").FindOne(ctx, bson.M{"_id": parentID, "userType": "broker"}).Decode(&parent)
	if err != nil {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only brokers can create sub-brokers",
		})
	}
	if !parent.IsVerified {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Broker must be verified to create sub-brokers",
		})
	}

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := bc.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	count, err := bc.DB.Collection("users").CountDocuments(ctx, bson.M{"email": email})
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
	subBroker := models.User{
		ID:             primitive.NewObjectID(),
		Email:          email,
		Password:       hashedPassword,
		FullName:       req.FullName,
		ContactNumber:  req.ContactNumber,
		Location:       req.Location,
		UserType:       "sub_broker",
		IsActive:       true,
		ParentBrokerID: &parentID,
		// Sub-brokers ride on the parent's verification
		VerificationStatus: parent.VerificationStatus,
		IsVerified:         parent.IsVerified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := bc.DB.Collection("users").InsertOne(ctx, subBroker); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create sub-broker",
		})
	}

	subBroker.Password = ""
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Sub-broker created successfully",
		Data:    subBroker,
	})
}

// ListSubBrokers returns the authenticated broker's sub-brokers
func (bc *BrokerController) ListSubBrokers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	parentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	cursor, err := bc.DB.Collection("users").Find(ctx,
		bson.M{"parentBrokerId": parentID, "userType": "sub_broker"},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch sub-brokers",
		})
	}
	defer cursor.Close(ctx)

	subBrokers := []models.User{}
	if err := cursor.All(ctx, &subBrokers); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode sub-brokers",
		})
	}
	for i := range subBrokers {
		subBrokers[i].Password = ""
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Sub-brokers retrieved successfully",
		Data:    subBrokers,
	})
}
