package services

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// S3Service stores property and profile images in an S3 bucket and hands
// back public object URLs.
type S3Service struct {
	client *s3.S3
	bucket string
	region string
}

func NewS3Service() (*S3Service, error) {
	region := os.Getenv("AWS_REGION")
	bucket := os.Getenv("AWS_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is not set")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	return &S3Service{
		client: s3.New(sess),
		bucket: bucket,
		region: region,
	}, nil
}

// UploadImage stores one image under the given folder ("properties",
// "profiles", "kyc") and returns its public URL. The object key embeds a
// UUID so repeated uploads of the same filename never collide.
func (s *S3Service) UploadImage(file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %v", err)
	}
	defer src.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(src); err != nil {
		return "", fmt.Errorf("failed to read uploaded file: %v", err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	key := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)

	_, err = s.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(file.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// UploadBytes stores raw bytes (generated thumbnails, QR codes) under key
// and returns the public URL.
func (s *S3Service) UploadBytes(data []byte, key, contentType string) (string, error) {
	_, err := s.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// PresignedUpload is a direct-to-bucket upload grant: the client PUTs
// the file to UploadURL and then stores FileURL with the record.
type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
}

// PresignUpload issues a time-limited PUT URL for one object so large
// files go straight to the bucket instead of through the API.
func (s *S3Service) PresignUpload(folder, fileName, contentType string, expiry time.Duration) (*PresignedUpload, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	key := fmt.Sprintf("%s/%s/%s%s", folder, time.Now().Format("2006-01-02"), uuid.New().String(), ext)

	req, _ := s.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	uploadURL, err := req.Presign(expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %v", err)
	}

	return &PresignedUpload{
		UploadURL: uploadURL,
		FileURL:   fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key),
		Key:       key,
	}, nil
}

// PresignDownload issues a time-limited GET URL for a stored object.
func (s *S3Service) PresignDownload(key string, expiry time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %v", err)
	}
	return url, nil
}

// DeleteObject removes an object by its public URL. Unknown URLs are a
// no-op error from S3's perspective and are returned as-is.
func (s *S3Service) DeleteObject(objectURL string) error {
	prefix := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region)
	key := strings.TrimPrefix(objectURL, prefix)
	if key == objectURL {
		return fmt.Errorf("object URL does not belong to bucket %s", s.bucket)
	}

	_, err := s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
