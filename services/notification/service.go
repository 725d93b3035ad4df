package notification

import (
	"context"
	"errors"
	"fmt"

	"selftape/database/repository"
	"selftape/models"

	"go.uber.org/zap"
)

const whenLayout = "Mon Jan 2, 2006 at 3:04 PM MST"

// DefaultNotificationService loads bookings and readers and emails the parties.
type DefaultNotificationService struct {
	Sender   Sender
	Readers  repository.ReaderRepository
	Bookings repository.BookingRepository
	Logger   *zap.Logger
}

func NewDefaultNotificationService(sender Sender, readers repository.ReaderRepository, bookings repository.BookingRepository, logger *zap.Logger) (*DefaultNotificationService, error) {
	if sender == nil || readers == nil || bookings == nil {
		return nil, fmt.Errorf("notification service initialization error: sender or repositories are nil")
	}
	return &DefaultNotificationService{Sender: sender, Readers: readers, Bookings: bookings, Logger: logger}, nil
}

// load returns a paid booking with its reader. A booking that is no longer
// PAID yields nil without error.
func (s *DefaultNotificationService) load(ctx context.Context, bookingID string) (*models.Booking, *models.Reader, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.Logger.Warn("Email for missing booking dropped", zap.String("bookingID", bookingID))
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if b.Status != models.BookingPaid {
		s.Logger.Info("Booking no longer paid, email skipped", zap.String("bookingID", bookingID), zap.String("status", string(b.Status)))
		return nil, nil, nil
	}
	r, err := s.Readers.GetByID(ctx, b.ReaderID)
	if err != nil {
		return nil, nil, fmt.Errorf("load reader %s: %w", b.ReaderID, err)
	}
	return b, r, nil
}

func view(b *models.Booking, r *models.Reader) sessionView {
	tz, err := models.ParseTimezone(b.ActorTimezone, models.DefaultActorTimezone)
	if err != nil {
		tz = models.MustTimezone(models.DefaultActorTimezone)
	}
	return sessionView{
		ActorName:   b.ActorName,
		ReaderName:  r.DisplayName,
		When:        b.StartTime.In(tz.Location()).Format(whenLayout),
		DurationMin: b.DurationMin,
		MeetingURL:  b.MeetingURL,
		Notes:       b.Notes,
	}
}

// SendBookingConfirmation mails the actor and copies the reader.
func (s *DefaultNotificationService) SendBookingConfirmation(ctx context.Context, bookingID string) error {
	b, r, err := s.load(ctx, bookingID)
	if err != nil || b == nil {
		return err
	}
	html, err := render(confirmationTmpl, view(b, r))
	if err != nil {
		return err
	}
	return s.Sender.Send(ctx, models.Email{
		To:      []string{b.ActorEmail},
		Cc:      []string{r.Email},
		Subject: fmt.Sprintf("Your session with %s is booked", r.DisplayName),
		HTML:    html,
	})
}

func (s *DefaultNotificationService) SendBookingReminder(ctx context.Context, bookingID string) error {
	b, r, err := s.load(ctx, bookingID)
	if err != nil || b == nil {
		return err
	}
	html, err := render(reminderTmpl, view(b, r))
	if err != nil {
		return err
	}
	return s.Sender.Send(ctx, models.Email{
		To:      []string{b.ActorEmail},
		Cc:      []string{r.Email},
		Subject: fmt.Sprintf("Reminder: session with %s tomorrow", r.DisplayName),
		HTML:    html,
	})
}

func (s *DefaultNotificationService) SendMagicLink(ctx context.Context, p models.MagicLinkPayload) error {
	html, err := render(magicLinkTmpl, p)
	if err != nil {
		return err
	}
	return s.Sender.Send(ctx, models.Email{
		To:      []string{p.Email},
		Subject: "Your sign-in link",
		HTML:    html,
	})
}
