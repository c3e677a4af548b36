// controllers/upload_controller.go
package controllers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/snkproperties/snkprop_backend/middleware"
	"github.com/snkproperties/snkprop_backend/models"
	"github.com/snkproperties/snkprop_backend/security"
	"github.com/snkproperties/snkprop_backend/services"
	"github.com/snkproperties/snkprop_backend/utils"
)

type UploadController struct {
	DB        *mongo.Database
	s3Service *services.S3Service
}

func NewUploadController(db *mongo.Database, s3Service *services.S3Service) *UploadController {
	return &UploadController{DB: db, s3Service: s3Service}
}

// UploadPropertyImage stores a listing image and a generated thumbnail in
// S3 and returns both URLs
func (uc *UploadController) UploadPropertyImage(c echo.Context) error {
	if !security.ValidateContentType(c.Request().Header.Get("Content-Type")) {
		return c.JSON(http.StatusUnsupportedMediaType, models.Response{
			Status:  http.StatusUnsupportedMediaType,
			Message: "Unsupported content type",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "image file is required",
		})
	}
	if err := utils.ValidateImageFile(file.Filename, file.Size); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	imageURL, err := uc.s3Service.UploadImage(file, "properties")
	if err != nil {
		log.Printf("Property image upload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to upload image",
		})
	}

	// Thumbnail generation is best-effort; the full image URL is the
	// contract
	thumbnailURL := ""
	if src, err := file.Open(); err == nil {
		if data, err := io.ReadAll(src); err == nil {
			if thumb, err := utils.GenerateThumbnail(data); err == nil {
				key := fmt.Sprintf("properties/thumbnails/%s.jpg", uuid.New().String())
				if url, err := uc.s3Service.UploadBytes(thumb, key, "image/jpeg"); err == nil {
					thumbnailURL = url
				} else {
					log.Printf("Thumbnail upload failed: %v", err)
				}
			}
		}
		src.Close()
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Image uploaded successfully",
		Data: map[string]string{
			"url":          imageURL,
			"thumbnailUrl": thumbnailURL,
		},
	})
}

// presignExpiry bounds how long a direct-upload grant stays usable.
const presignExpiry = 10 * time.Minute

// GetPresignedUploadURL issues a time-limited direct-to-S3 PUT URL so
// large images skip the API entirely. The client PUTs the file to
// uploadUrl, then stores fileUrl on the listing or profile.
func (uc *UploadController) GetPresignedUploadURL(c echo.Context) error {
	var req struct {
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
		Folder   string `json:"folder"`
	}
	if err := c.Bind(&req); err != nil || req.FileName == "" || req.FileType == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "fileName and fileType are required",
		})
	}

	switch req.FileType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Only image files are allowed (jpeg, jpg, png, webp)",
		})
	}

	folder := req.Folder
	switch folder {
	case "", "properties":
		folder = "properties"
	case "profiles", "kyc":
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "folder must be one of properties, profiles, kyc",
		})
	}

	grant, err := uc.s3Service.PresignUpload(folder, utils.CleanFilename(req.FileName), req.FileType, presignExpiry)
	if err != nil {
		log.Printf("Failed to presign upload: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate upload URL",
		})
	}

	uploadToken, err := security.GenerateUploadToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate upload token",
		})
	}

	userID, _ := middleware.ExtractUserID(c)
	log.Printf("Issued upload grant %s for key %s to user %s", uploadToken, grant.Key, userID)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Upload URL generated successfully",
		Data: map[string]string{
			"uploadUrl":   grant.UploadURL,
			"fileUrl":     grant.FileURL,
			"key":         grant.Key,
			"uploadToken": uploadToken,
		},
	})
}

// UploadProfileImage stores a profile picture and records it on the
// authenticated user
func (uc *UploadController) UploadProfileImage(c echo.Context) error {
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

	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "image file is required",
		})
	}
	if err := utils.ValidateImageFile(file.Filename, file.Size); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	imageURL, err := uc.s3Service.UploadImage(file, "profiles")
	if err != nil {
		log.Printf("Profile image upload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to upload image",
		})
	}

	_, err = uc.DB.Collection("users").UpdateByID(ctx, objID, bson.M{
		"$set": bson.M{"profileImage": imageURL, "updatedAt": time.Now()},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save profile image",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile image uploaded successfully",
		Data:    map[string]string{"url": imageURL},
	})
}

// UploadKYCDocument stores a broker identity document and appends it to
// the broker's KYC list in pending status
func (uc *UploadController) UploadKYCDocument(c echo.Context) error {
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

	docType := c.FormValue("type")
	switch docType {
	case "aadhar", "pan", "photo", "other":
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "type must be one of aadhar, pan, photo, other",
		})
	}

	file, err := c.FormFile("document")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "document file is required",
		})
	}
	if err := utils.ValidateImageFile(file.Filename, file.Size); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	docURL, err := uc.s3Service.UploadImage(file, "kyc")
	if err != nil {
		log.Printf("KYC document upload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to upload document",
		})
	}

	doc := models.KYCDocument{
		Type:       docType,
		URL:        docURL,
		Key:        utils.CleanFilename(file.Filename),
		Status:     "pending",
		UploadedAt: time.Now(),
	}

	res, err := uc.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": objID, "userType": bson.M{"$in": []string{"broker", "sub_broker"}}},
		bson.M{
			"$push": bson.M{"kycDocuments": doc},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save document",
		})
	}
	if res.MatchedCount == 0 {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only brokers can upload KYC documents",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Document uploaded successfully",
		Data:    doc,
	})
}
