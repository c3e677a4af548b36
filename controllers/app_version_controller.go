// controllers/app_version_controller.go
package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snkproperties/snkprop_backend/models"
)

// Active version rows change rarely; cache them aggressively
const versionCacheTTL = 10 * time.Minute

type AppVersionController struct {
	DB          *mongo.Database
	redisClient *redis.Client
}

func NewAppVersionController(db *mongo.Database, redisClient *redis.Client) *AppVersionController {
	return &AppVersionController{DB: db, redisClient: redisClient}
}

func versionCacheKey(platform string) string {
	return "app_version:active:" + platform
}

// CheckVersion is the public endpoint mobile clients poll on launch.
// It compares the client's version against the active row for its
// platform and reports whether an update is needed or forced.
func (avc *AppVersionController) CheckVersion(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	platform := c.QueryParam("platform")
	currentVersion := c.QueryParam("currentVersion")
	if (platform != "android" && platform != "ios") || currentVersion == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "platform (android|ios) and currentVersion are required",
		})
	}

	latest, err := avc.getActiveVersion(ctx, platform)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Version check result",
				Data: models.UpdateCheck{
					NeedsUpdate: false,
					Message:     "No version information available",
				},
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check version",
		})
	}

	check := models.UpdateCheck{}
	if models.CompareVersions(currentVersion, latest.Version) < 0 {
		check.NeedsUpdate = true
		check.LatestVersion = latest
		check.IsForceUpdate = latest.IsForceUpdate
		// A client below the minimum supported version is forced
		// regardless of the row's flag
		if latest.MinimumSupportedVersion != "" &&
			models.CompareVersions(currentVersion, latest.MinimumSupportedVersion) < 0 {
			check.IsForceUpdate = true
		}
		if check.IsForceUpdate {
			check.Message = "A mandatory update is required to continue"
		} else {
			check.Message = "A new version is available"
		}
	} else {
		check.Message = "App is up to date"
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Version check result",
		Data:    check,
	})
}

func (avc *AppVersionController) getActiveVersion(ctx context.Context, platform string) (*models.AppVersion, error) {
	if avc.redisClient != nil {
		if cached, err := avc.redisClient.Get(ctx, versionCacheKey(platform)).Result(); err == nil {
			var version models.AppVersion
			if err := json.Unmarshal([]byte(cached), &version); err == nil {
				return &version, nil
			}
		}
	}

	var version models.AppVersion
	err := avc.DB.Collection("app_versions").FindOne(ctx, bson.M{
		"platform": platform,
		"isActive": true,
	}).Decode(&version)
	if err != nil {
		return nil, err
	}

	if avc.redisClient != nil {
		if payload, err := json.Marshal(version); err == nil {
			if err := avc.redisClient.Set(ctx, versionCacheKey(platform), payload, versionCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache app version for %s: %v", platform, err)
			}
		}
	}
	return &version, nil
}

// CreateVersion publishes a new release row (admin only). The previous
// active row for the platform is deactivated in the same request so the
// partial unique index never sees two active rows.
func (avc *AppVersionController) CreateVersion(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var version models.AppVersion
	if err := c.Bind(&version); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if version.Platform != "android" && version.Platform != "ios" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "platform must be android or ios",
		})
	}
	if version.Version == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "version is required",
		})
	}

	now := time.Now()

	_, err := avc.DB.Collection("app_versions").UpdateMany(ctx,
		bson.M{"platform": version.Platform, "isActive": true},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": now}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to deactivate previous version",
		})
	}

	version.ID = primitive.NewObjectID()
	version.IsActive = true
	if version.ReleaseDate.IsZero() {
		version.ReleaseDate = now
	}
	version.CreatedAt = now
	version.UpdatedAt = now

	if _, err := avc.DB.Collection("app_versions").InsertOne(ctx, version); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create version",
		})
	}

	avc.invalidateCache(ctx, version.Platform)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Version created successfully",
		Data:    version,
	})
}

// ListVersions returns release history for a platform (admin only)
func (avc *AppVersionController) ListVersions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if platform := c.QueryParam("platform"); platform != "" {
		filter["platform"] = platform
	}

	cursor, err := avc.DB.Collection("app_versions").Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "releaseDate", Value: -1}}),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch versions",
		})
	}
	defer cursor.Close(ctx)

	versions := []models.AppVersion{}
	if err := cursor.All(ctx, &versions); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode versions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Versions retrieved successfully",
		Data:    versions,
	})
}

func (avc *AppVersionController) invalidateCache(ctx context.Context, platform string) {
	if avc.redisClient == nil {
		return
	}
	if err := avc.redisClient.Del(ctx, versionCacheKey(platform)).Err(); err != nil {
		log.Printf("Failed to invalidate version cache for %s: %v", platform, err)
	}
}
