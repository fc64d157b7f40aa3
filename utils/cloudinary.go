package utils

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const maxPreviewSize = 10 * 1024 * 1024

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, file *multipart.FileHeader, folder string) (string, error)
}

type CloudinaryUploader struct {
	cld       *cloudinary.Cloudinary
	cloudName string
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryUploader{cld: cld, cloudName: cloudName}, nil
}

func boolPointer(b bool) *bool {
	return &b
}

func isValidImageType(filename string) bool {
	validExtensions := []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg"}
	lowerFilename := strings.ToLower(filename)

	for _, ext := range validExtensions {
		if strings.HasSuffix(lowerFilename, ext) {
			return true
		}
	}
	return false
}

// ValidatePreview checks extension and size before anything is uploaded
func ValidatePreview(file *multipart.FileHeader) error {
	if !isValidImageType(file.Filename) {
		return &ValidationFailed{Field: "preview", Rule: "unsupported image format"}
	}
	if file.Size > maxPreviewSize {
		return &ValidationFailed{Field: "preview", Rule: "image larger than 10MB"}
	}
	return nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		Folder:         folder,
		PublicID:       uuid.NewString(),
		UniqueFilename: boolPointer(true),
		Overwrite:      boolPointer(true),
		ResourceType:   "image",
	}

	result, err := u.cld.Upload.Upload(ctx, src, uploadParams)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}

	if result.SecureURL == "" {
		if result.PublicID == "" {
			return "", fmt.Errorf("cloudinary returned no URL")
		}
		return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", u.cloudName, result.PublicID), nil
	}
	return result.SecureURL, nil
}
