// controllers/property_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snkproperties/snkprop_backend/middleware"
	"github.com/snkproperties/snkprop_backend/models"
	"github.com/snkproperties/snkprop_backend/services"
)

type PropertyController struct {
	DB              *mongo.Database
	referralService *services.ReferralService
}

func NewPropertyController(db *mongo.Database, referralService *services.ReferralService) *PropertyController {
	return &PropertyController{DB: db, referralService: referralService}
}

// CreateProperty creates a listing for the authenticated broker. The
// broker's first listing triggers the one-time referral bonus after the
// insert commits.
func (pc *PropertyController) CreateProperty(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	brokerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var property models.Property
	if err := c.Bind(&property); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if property.Title == "" || property.Price <= 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Title and a positive price are required",
		})
	}
	if !contains(models.ValidPropertyTypes, property.PropertyType) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid property type",
		})
	}
	if !contains(models.ValidTransactionTypes, property.TransactionType) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid transaction type",
		})
	}
	if property.AreaUnit != "" && !contains(models.ValidAreaUnits, property.AreaUnit) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid area unit",
		})
	}

	var broker models.User
	err = pc.DB.Collection("users").FindOne(ctx, bson.M{"_id": brokerID}).Decode(&broker)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Broker not found",
		})
	}

	now := time.Now()
	property.ID = primitive.NewObjectID()
	property.BrokerID = brokerID
	property.BrokerName = broker.FullName
	property.BrokerContact = broker.ContactNumber
	property.Status = "Active"
	property.Views = 0
	property.CreatedAt = now
	property.UpdatedAt = now

	if _, err := pc.DB.Collection("properties").InsertOne(ctx, property); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create property",
		})
	}

	// First-listing bonus runs post-commit; a failure there never
	// affects the listing.
	go func() {
		trackCtx, trackCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer trackCancel()
		if _, err := pc.referralService.TrackBrokerFirstProperty(trackCtx, brokerID); err != nil {
			log.Printf("Failed to track first property for broker %s: %v", brokerID.Hex(), err)
		}
	}()

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Property created successfully",
		Data:    property,
	})
}

// GetProperties lists active properties with filters and pagination
func (pc *PropertyController) GetProperties(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := bson.M{"status": "Active"}
	if propertyType := c.QueryParam("propertyType"); propertyType != "" {
		filter["propertyType"] = propertyType
	}
	if transactionType := c.QueryParam("transactionType"); transactionType != "" {
		filter["transactionType"] = transactionType
	}
	if city := c.QueryParam("city"); city != "" {
		filter["location.city"] = primitive.Regex{Pattern: "^" + city + "$", Options: "i"}
	}
	priceFilter := bson.M{}
	if minPrice, err := strconv.ParseFloat(c.QueryParam("minPrice"), 64); err == nil {
		priceFilter["$gte"] = minPrice
	}
	if maxPrice, err := strconv.ParseFloat(c.QueryParam("maxPrice"), 64); err == nil {
		priceFilter["$lte"] = maxPrice
	}
	if len(priceFilter) > 0 {
		filter["price"] = priceFilter
	}
	if bedrooms, err := strconv.Atoi(c.QueryParam("bedrooms")); err == nil {
		filter["bedrooms"] = bson.M{"$gte": bedrooms}
	}

	collection := pc.DB.Collection("properties")
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count properties",
		})
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "isFeatured", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch properties",
		})
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode properties",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Properties retrieved successfully",
		Data: map[string]interface{}{
			"properties": properties,
			"pagination": models.NewPagination(page, limit, total),
		},
	})
}

// GetProperty fetches one listing and bumps its view counter
func (pc *PropertyController) GetProperty(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	propertyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid property ID",
		})
	}

	var property models.Property
	err = pc.DB.Collection("properties").FindOneAndUpdate(ctx,
		bson.M{"_id": propertyID},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&property)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Property not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch property",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Property retrieved successfully",
		Data:    property,
	})
}

// GetMyProperties lists the authenticated broker's own listings,
// including inactive ones
func (pc *PropertyController) GetMyProperties(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	brokerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	cursor, err := pc.DB.Collection("properties").Find(ctx,
		bson.M{"brokerId": brokerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch properties",
		})
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode properties",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Properties retrieved successfully",
		Data:    properties,
	})
}

// UpdateProperty updates a listing owned by the authenticated broker
func (pc *PropertyController) UpdateProperty(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	brokerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}
	propertyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid property ID",
		})
	}

	var req map[string]interface{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	// Only whitelisted fields are updatable; ownership and counters are not
	allowed := map[string]bool{
		"title": true, "description": true, "price": true, "area": true,
		"areaUnit": true, "bedrooms": true, "bathrooms": true, "location": true,
		"images": true, "amenities": true, "features": true, "status": true,
	}
	update := bson.M{"updatedAt": time.Now()}
	for key, value := range req {
		if allowed[key] {
			update[key] = value
		}
	}

	res, err := pc.DB.Collection("properties").UpdateOne(ctx,
		bson.M{"_id": propertyID, "brokerId": brokerID},
		bson.M{"$set": update},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update property",
		})
	}
	if res.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Property not found or not owned by you",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Property updated successfully",
	})
}

// DeleteProperty removes a listing owned by the authenticated broker
func (pc *PropertyController) DeleteProperty(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	brokerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}
	propertyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid property ID",
		})
	}

	res, err := pc.DB.Collection("properties").DeleteOne(ctx, bson.M{
		"_id":      propertyID,
		"brokerId": brokerID,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete property",
		})
	}
	if res.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Property not found or not owned by you",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Property deleted successfully",
	})
}

// ToggleFavorite adds or removes the authenticated user from a listing's
// favorites
func (pc *PropertyController) ToggleFavorite(c echo.Context) error {
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
	propertyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid property ID",
		})
	}

	collection := pc.DB.Collection("properties")

	res, err := collection.UpdateOne(ctx,
		bson.M{"_id": propertyID, "favorites": bson.M{"$ne": objID}},
		bson.M{"$addToSet": bson.M{"favorites": objID}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update favorites",
		})
	}

	favorited := res.ModifiedCount > 0
	if !favorited {
		// Already present; remove instead
		res, err = collection.UpdateOne(ctx,
			bson.M{"_id": propertyID},
			bson.M{"$pull": bson.M{"favorites": objID}},
		)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to update favorites",
			})
		}
		if res.MatchedCount == 0 {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Property not found",
			})
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Favorites updated successfully",
		Data:    map[string]bool{"favorited": favorited},
	})
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
