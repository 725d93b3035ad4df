package reader

import (
	"context"

	"selftape/models"
)

// ReaderService covers reader onboarding, profile reads and booking policy.
type ReaderService interface {
	Register(ctx context.Context, req models.CreateReaderRequest) (*models.CreateReaderResponse, error)
	GetProfile(ctx context.Context, id string) (*models.ReaderProfile, error)
	UpdateSettings(ctx context.Context, id string, s models.ReaderSettings) (*models.Reader, error)
	RequestMagicLink(ctx context.Context, email string) error
}

// TokenGenerator issues reader access tokens.
type TokenGenerator interface {
	GenerateToken(readerID, email string) (string, error)
}

// LinkMailer queues a login link email.
type LinkMailer interface {
	MagicLink(ctx context.Context, p models.MagicLinkPayload) error
}
