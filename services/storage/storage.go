package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"selftape/utils"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryStorage implements StorageService on Cloudinary.
type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	logger *zap.Logger
}

// NewCloudinaryStorage returns nil without an error when credentials are missing.
func NewCloudinaryStorage(cloudName, apiKey, apiSecret string, logger *zap.Logger) (*CloudinaryStorage, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, nil
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStorage{cld: cld, logger: logger}, nil
}

// UploadHeadshot sniffs the first bytes, rejects non-images and uploads the rest.
func (s *CloudinaryStorage) UploadHeadshot(ctx context.Context, file Upload) (string, error) {
	if s == nil || s.cld == nil {
		return "", ErrNotConfigured
	}
	if err := ValidateHeadshot(file); err != nil {
		return "", err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", utils.NewValidationError("could not read upload")
	}
	head = head[:n]
	if !allowedImageTypes[http.DetectContentType(head)] {
		return "", ErrNotImage
	}

	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(file.Body, MaxHeadshotSize))
	result, err := s.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		Folder:       HeadshotFolder,
		ResourceType: "image",
	})
	if err != nil {
		return "", utils.NewUpstreamError("failed to upload file", err)
	}
	if result.Error.Message != "" {
		return "", utils.NewUpstreamError("failed to upload file", fmt.Errorf("cloudinary: %s", result.Error.Message))
	}
	s.logger.Info("Headshot uploaded", zap.String("publicID", result.PublicID), zap.Int("bytes", result.Bytes))
	return result.SecureURL, nil
}
