package storage

import (
	"context"
	"io"

	"selftape/utils"
)

const (
	HeadshotFolder  = "headshots"
	MaxHeadshotSize = 5 << 20
)

var (
	ErrNotConfigured = utils.NewUnavailableError("media storage is not configured")
	ErrTooLarge      = utils.NewFieldError("file", "must be 5 MB or smaller")
	ErrNotImage      = utils.NewFieldError("file", "must be a JPEG, PNG or WebP image")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Upload is one file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StorageService stores reader media and returns public URLs.
type StorageService interface {
	UploadHeadshot(ctx context.Context, file Upload) (string, error)
}

// ValidateHeadshot checks size and declared type before anything is uploaded.
func ValidateHeadshot(file Upload) error {
	if file.Size > MaxHeadshotSize {
		return ErrTooLarge
	}
	if !allowedImageTypes[file.ContentType] {
		return ErrNotImage
	}
	return nil
}
