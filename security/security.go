package security

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
)

// GenerateUploadToken returns a random token identifying one presigned
// upload grant. It is handed to the client and logged with the object
// key so a grant and the object it produced can be matched up later.
func GenerateUploadToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ValidateContentType ensures the request has an accepted content type.
// Multipart types carry a boundary parameter, so prefix-match those.
func ValidateContentType(contentType string) bool {
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return true
	}
	validTypes := map[string]bool{
		"application/json":                  true,
		"application/x-www-form-urlencoded": true,
	}
	return validTypes[contentType]
}

// SanitizeHeaders removes sensitive headers before request logging
func SanitizeHeaders(headers http.Header) http.Header {
	sensitiveHeaders := []string{
		"Authorization",
		"Cookie",
		"Set-Cookie",
	}

	for _, header := range sensitiveHeaders {
		headers.Del(header)
	}
	return headers
}
