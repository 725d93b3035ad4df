package reader

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"selftape/database/repository"
	"selftape/models"
	"selftape/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// minChargeCents is the smallest amount the payment provider will charge.
const minChargeCents = 50

// DefaultReaderService implements ReaderService.
type DefaultReaderService struct {
	Readers      repository.ReaderRepository
	Availability repository.AvailabilityRepository
	Tokens       TokenGenerator
	Mailer       LinkMailer
	BaseURL      string
	Logger       *zap.Logger
	Now          func() time.Time
}

func (s *DefaultReaderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func dollarsToCents(usd float64) int64 {
	return int64(math.Round(usd * 100))
}

func validateRate(field string, cents int64, fields map[string]string) {
	if cents != 0 && cents < minChargeCents {
		fields[field] = "must be 0 or at least 0.50"
	}
}

// Register creates a reader and returns an access token for it.
func (s *DefaultReaderService) Register(ctx context.Context, req models.CreateReaderRequest) (*models.CreateReaderResponse, error) {
	fields := make(map[string]string)
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		fields["displayName"] = "is required"
	}
	if !req.AcceptsTerms {
		fields["acceptsTerms"] = "must be accepted"
	}
	tz, err := models.ParseTimezone(req.Timezone, models.DefaultReaderTimezone)
	if err != nil {
		fields["timezone"] = "must be a valid IANA timezone"
	}
	if req.PlayableAgeMin != nil && req.PlayableAgeMax != nil && *req.PlayableAgeMin > *req.PlayableAgeMax {
		fields["playableAgeMax"] = "must not be less than playableAgeMin"
	}
	rate15, rate30, rate60 := dollarsToCents(req.Rate15Usd), dollarsToCents(req.Rate30Usd), dollarsToCents(req.Rate60Usd)
	validateRate("rate15Usd", rate15, fields)
	validateRate("rate30Usd", rate30, fields)
	validateRate("rate60Usd", rate60, fields)
	if rate15 == 0 && rate30 == 0 && rate60 == 0 {
		fields["rate30Usd"] = "at least one session rate is required"
	}
	if len(fields) > 0 {
		return nil, &utils.AppError{Kind: utils.KindValidation, Message: "invalid reader profile", Fields: fields}
	}

	now := s.now().UTC()
	reader := &models.Reader{
		ID:             uuid.New().String(),
		DisplayName:    name,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          strings.TrimSpace(req.Phone),
		City:           strings.TrimSpace(req.City),
		Bio:            strings.TrimSpace(req.Bio),
		HeadshotURL:    req.HeadshotURL,
		PlayableAgeMin: req.PlayableAgeMin,
		PlayableAgeMax: req.PlayableAgeMax,
		Gender:         req.Gender,
		Unions:         req.Unions,
		Languages:      req.Languages,
		Specialties:    req.Specialties,
		Links:          req.Links,
		RatePer15Min:   rate15,
		RatePer30Min:   rate30,
		RatePer60Min:   rate60,
		Timezone:       tz.String(),
		MaxAdvanceDays: models.DefaultMaxAdvanceDays,
		MinNoticeHours: models.DefaultMinNoticeHours,
		BufferMinutes:  models.DefaultBufferMinutes,
		AcceptsTerms:   req.AcceptsTerms,
		MarketingOptIn: req.MarketingOptIn,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Readers.Create(ctx, reader); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, utils.NewConflictError("a reader with this email already exists")
		}
		return nil, utils.NewInternalError("failed to create reader", err)
	}

	token, err := s.Tokens.GenerateToken(reader.ID, reader.Email)
	if err != nil {
		return nil, utils.NewInternalError("failed to issue token", err)
	}

	s.Logger.Info("Reader registered", zap.String("readerID", reader.ID))
	return &models.CreateReaderResponse{ReaderID: reader.ID, Token: token}, nil
}
