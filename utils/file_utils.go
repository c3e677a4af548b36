package utils

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// Maximum upload size (10MB)
	maxFileSize = 10 * 1024 * 1024
	// Width generated thumbnails are resized to; height keeps aspect
	thumbnailWidth = 320
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// CleanFilename removes any potentially dangerous characters from the filename
func CleanFilename(filename string) string {
	filename = filepath.Base(filename)
	return filenameCleaner.ReplaceAllString(filename, "")
}

// ValidateImageFile checks size and extension of an uploaded image
func ValidateImageFile(filename string, size int64) error {
	if size > maxFileSize {
		return fmt.Errorf("file too large. Maximum size is %d bytes", maxFileSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png, webp")
	}
	return nil
}

// GenerateThumbnail decodes an image and returns a JPEG thumbnail resized
// to the standard listing width.
func GenerateThumbnail(imageData []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	resized := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %v", err)
	}
	return buf.Bytes(), nil
}
