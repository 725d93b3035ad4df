package reader

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"selftape/database/repository"
	"selftape/models"
	"selftape/utils"

	"go.uber.org/zap"
)

var ErrReaderNotFound = utils.NewNotFoundError("reader not found")

// GetProfile returns the public profile of a reader with its weekly template.
func (s *DefaultReaderService) GetProfile(ctx context.Context, id string) (*models.ReaderProfile, error) {
	reader, err := s.Readers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReaderNotFound
		}
		return nil, utils.NewInternalError("failed to load reader", err)
	}
	slots, err := s.Availability.ListByReader(ctx, id)
	if err != nil {
		return nil, utils.NewInternalError("failed to load availability", err)
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	return &models.ReaderProfile{Reader: *reader, Availability: slots}, nil
}

// UpdateSettings changes the booking policy. An empty timezone keeps the current one.
func (s *DefaultReaderService) UpdateSettings(ctx context.Context, id string, set models.ReaderSettings) (*models.Reader, error) {
	current, err := s.Readers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReaderNotFound
		}
		return nil, utils.NewInternalError("failed to load reader", err)
	}
	tz, err := models.ParseTimezone(set.Timezone, current.Timezone)
	if err != nil {
		return nil, utils.NewFieldError("timezone", "must be a valid IANA timezone")
	}
	set.Timezone = tz.String()

	updated, err := s.Readers.UpdateSettings(ctx, id, set)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReaderNotFound
		}
		return nil, utils.NewInternalError("failed to update settings", err)
	}
	s.Logger.Info("Reader settings updated",
		zap.String("readerID", id),
		zap.Int("maxAdvanceBooking", set.MaxAdvanceDays),
		zap.Int("minAdvanceHours", set.MinNoticeHours),
		zap.Int("bookingBuffer", set.BufferMinutes),
	)
	return updated, nil
}

// RequestMagicLink emails a login link when the address belongs to a reader.
// Unknown addresses succeed silently.
func (s *DefaultReaderService) RequestMagicLink(ctx context.Context, email string) error {
	reader, err := s.Readers.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.Logger.Debug("Magic link requested for unknown email")
			return nil
		}
		return utils.NewInternalError("failed to look up reader", err)
	}

	token, err := s.Tokens.GenerateToken(reader.ID, reader.Email)
	if err != nil {
		return utils.NewInternalError("failed to issue token", err)
	}
	link := strings.TrimRight(s.BaseURL, "/") + "/reader/login?token=" + url.QueryEscape(token)

	if err := s.Mailer.MagicLink(ctx, models.MagicLinkPayload{ReaderID: reader.ID, Email: reader.Email, Link: link}); err != nil {
		s.Logger.Warn("failed to queue magic link", zap.String("readerID", reader.ID), zap.Error(err))
	}
	return nil
}
