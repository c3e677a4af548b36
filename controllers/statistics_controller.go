// controllers/statistics_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snkproperties/snkprop_backend/models"
)

type StatisticsController struct {
	DB *mongo.Database
}

func NewStatisticsController(db *mongo.Database) *StatisticsController {
	return &StatisticsController{DB: db}
}

// GetStatistics returns the admin dashboard counters. Live counts come
// from the source collections; the stored all-time row keeps the counters
// that have no source of truth elsewhere (downloads).
func (sc *StatisticsController) GetStatistics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, err := sc.DB.Collection("users").CountDocuments(ctx, bson.M{"userType": bson.M{"$ne": "admin"}})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count users",
		})
	}
	properties, err := sc.DB.Collection("properties").CountDocuments(ctx, bson.M{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count properties",
		})
	}

	// Total listing views via aggregation
	viewsCursor, err := sc.DB.Collection("properties").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "views": bson.M{"$sum": "$views"}}}},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to aggregate views",
		})
	}
	defer viewsCursor.Close(ctx)

	views := 0
	var viewsRow []struct {
		Views int `bson:"views"`
	}
	if err := viewsCursor.All(ctx, &viewsRow); err == nil && len(viewsRow) > 0 {
		views = viewsRow[0].Views
	}

	var stored models.Statistics
	err = sc.DB.Collection("statistics").FindOne(ctx, bson.M{"period": "all-time"}).Decode(&stored)
	if err != nil && err != mongo.ErrNoDocuments {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch statistics",
		})
	}

	data := models.StatisticsData{
		Downloads:       stored.Data.Downloads,
		TotalProperties: int(properties),
		Users:           int(users),
		Views:           views,
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Statistics retrieved successfully",
		Data:    data,
	})
}

// RecordDownload bumps the all-time download counter. Mobile clients call
// this once on first launch; the endpoint is public.
func (sc *StatisticsController) RecordDownload(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	_, err := sc.DB.Collection("statistics").UpdateOne(ctx,
		bson.M{"period": "all-time"},
		bson.M{
			"$inc":         bson.M{"data.downloads": 1},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"date": now, "createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to record download",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Download recorded",
	})
}
