package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"selftape/database/repository"
	"selftape/models"
	"selftape/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	feedLimit        = 500
	meetingTimeout   = 5 * time.Second
	sideEffectWindow = 5 * time.Second
)

var tracer = otel.Tracer("selftape/services/booking")

// DefaultBookingService implements BookingService. Meetings, Notifier,
// Events and Feeds are optional.
type DefaultBookingService struct {
	Readers      repository.ReaderRepository
	Availability repository.AvailabilityRepository
	Bookings     repository.BookingRepository
	Checkout     CheckoutProvider
	Meetings     MeetingProvisioner
	Notifier     Notifier
	Events       EventPublisher
	Feeds        FeedInvalidator
	FeePercent   int64
	Logger       *zap.Logger
	Now          func() time.Time
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create validates the requested slot, stores a PENDING booking and opens a hosted checkout.
func (s *DefaultBookingService) Create(ctx context.Context, req models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	ctx, span := tracer.Start(ctx, "booking.Create")
	defer span.End()
	span.SetAttributes(attribute.String("reader.id", req.ReaderID), attribute.Int("booking.duration_min", req.DurationMin))

	resp, err := s.create(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return resp, err
}

func (s *DefaultBookingService) create(ctx context.Context, req models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	actorTZ, err := models.ParseTimezone(req.ActorTimezone, models.DefaultActorTimezone)
	if err != nil {
		return nil, utils.NewFieldError("actorTimezone", "must be a valid IANA timezone")
	}
	if strings.TrimSpace(req.ActorName) == "" {
		return nil, utils.NewFieldError("actorName", "is required")
	}
	if req.StartMin == nil || *req.StartMin < 0 || *req.StartMin >= models.MinutesPerDay {
		return nil, utils.NewFieldError("startMin", "must be between 0 and 1439")
	}
	day, err := ParseDay(req.Date)
	if err != nil {
		return nil, err
	}
	if err := ValidateDuration(req.DurationMin); err != nil {
		return nil, err
	}

	reader, loc, windows, err := readerContext(ctx, s.Readers, s.Availability, req.ReaderID)
	if err != nil {
		return nil, err
	}
	price, err := PriceFor(*reader, req.DurationMin)
	if err != nil {
		return nil, err
	}
	if !reader.PayoutsEnabled() {
		return nil, ErrPayoutsDisabled
	}

	startMin := *req.StartMin
	now := s.now()
	start := day.At(loc, startMin)
	end := start.Add(time.Duration(req.DurationMin) * time.Minute)
	if !withinWindows(windows, day.Weekday(), startMin, req.DurationMin) {
		return nil, ErrOutsideHours
	}
	if !start.After(slotCutoff(now, reader.MinNoticeHours)) {
		return nil, ErrTooSoon
	}
	if _, last := bookingWindow(now, loc, reader.MaxAdvanceDays); day.After(last) {
		return nil, ErrTooFarAhead
	}

	b := models.Booking{
		ID:               uuid.NewString(),
		ReaderID:         reader.ID,
		ActorName:        strings.TrimSpace(req.ActorName),
		ActorEmail:       strings.TrimSpace(req.ActorEmail),
		ActorTimezone:    actorTZ.String(),
		StartTime:        start.UTC(),
		EndTime:          end.UTC(),
		DurationMin:      req.DurationMin,
		PriceCents:       price,
		PlatformFeeCents: PlatformFee(price, s.FeePercent),
		Status:           models.BookingPending,
		Notes:            strings.TrimSpace(req.Notes),
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
	buffer := time.Duration(reader.BufferMinutes) * time.Minute
	if err := s.Bookings.CreatePending(ctx, &b, buffer); err != nil {
		switch {
		case errors.Is(err, repository.ErrOverlap):
			return nil, ErrSlotTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrReaderNotFound
		}
		return nil, utils.NewInternalError("failed to create booking", err)
	}

	session, err := s.Checkout.CreateBookingCheckout(ctx, models.CheckoutRequest{
		BookingID:        b.ID,
		ReaderID:         reader.ID,
		ReaderName:       reader.DisplayName,
		ReaderAccountID:  reader.StripeAccountID,
		ActorEmail:       b.ActorEmail,
		DurationMin:      b.DurationMin,
		StartTime:        b.StartTime,
		PriceCents:       b.PriceCents,
		PlatformFeeCents: b.PlatformFeeCents,
	})
	if err != nil {
		s.release(ctx, b.ID)
		return nil, utils.NewUpstreamError("payment provider is unavailable", err)
	}
	if err := s.Bookings.SetCheckoutSession(ctx, b.ID, session.ID); err != nil {
		s.Logger.Warn("failed to store checkout session", zap.String("bookingID", b.ID), zap.Error(err))
	}
	s.attachMeeting(ctx, &b)

	s.Logger.Info("Booking created",
		zap.String("bookingID", b.ID),
		zap.String("readerID", b.ReaderID),
		zap.Time("start", b.StartTime),
		zap.Int64("priceCents", b.PriceCents),
	)
	s.afterChange(ctx, b, "booking.created")
	return &models.CreateBookingResponse{BookingID: b.ID, CheckoutURL: session.URL}, nil
}

// attachMeeting provisions a room for b. Failures are logged and ignored.
func (s *DefaultBookingService) attachMeeting(ctx context.Context, b *models.Booking) {
	if s.Meetings == nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, meetingTimeout)
	defer cancel()

	url, err := s.Meetings.CreateRoom(mctx, *b)
	if err != nil {
		s.Logger.Warn("meeting room provisioning failed", zap.String("bookingID", b.ID), zap.Error(err))
		return
	}
	if url == "" {
		return
	}
	if err := s.Bookings.SetMeetingURL(ctx, b.ID, url); err != nil {
		s.Logger.Warn("failed to store meeting url", zap.String("bookingID", b.ID), zap.Error(err))
		return
	}
	b.MeetingURL = url
}

// release cancels a booking whose checkout could not be opened so the slot frees up.
func (s *DefaultBookingService) release(ctx context.Context, id string) {
	if _, _, err := s.Bookings.Transition(ctx, id, models.BookingPending, models.BookingCanceled); err != nil {
		s.Logger.Error("failed to release booking after checkout failure", zap.String("bookingID", id), zap.Error(err))
	}
}

// afterChange runs the best-effort side effects of a booking change.
func (s *DefaultBookingService) afterChange(ctx context.Context, b models.Booking, eventType string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectWindow)
	defer cancel()

	if s.Feeds != nil {
		if err := s.Feeds.Invalidate(ctx, b.ReaderID); err != nil {
			s.Logger.Warn("failed to invalidate calendar feed", zap.String("readerID", b.ReaderID), zap.Error(err))
		}
	}
	if s.Events != nil {
		ev := models.BookingEvent{
			Type:       eventType,
			BookingID:  b.ID,
			ReaderID:   b.ReaderID,
			Status:     b.Status,
			StartTime:  b.StartTime,
			EndTime:    b.EndTime,
			PriceCents: b.PriceCents,
			OccurredAt: s.now().UTC(),
		}
		if err := s.Events.Publish(ctx, ev); err != nil {
			s.Logger.Warn("failed to publish booking event", zap.String("type", eventType), zap.Error(err))
		}
	}
}

// MarkPaid moves a PENDING booking to PAID. It reports false when the booking
// was already past PENDING, in which case nothing else happens.
func (s *DefaultBookingService) MarkPaid(ctx context.Context, id string) (bool, error) {
	b, changed, err := s.transition(ctx, id, models.BookingPaid)
	if err != nil || !changed {
		return false, err
	}
	if s.Notifier != nil {
		if err := s.Notifier.BookingConfirmed(ctx, *b); err != nil {
			s.Logger.Warn("failed to schedule booking emails", zap.String("bookingID", id), zap.Error(err))
		}
	}
	s.afterChange(ctx, *b, "booking.paid")
	return true, nil
}

// Cancel moves a PENDING booking to CANCELED and frees its slot.
func (s *DefaultBookingService) Cancel(ctx context.Context, id string) (bool, error) {
	b, changed, err := s.transition(ctx, id, models.BookingCanceled)
	if err != nil || !changed {
		return false, err
	}
	s.afterChange(ctx, *b, "booking.canceled")
	return true, nil
}

func (s *DefaultBookingService) transition(ctx context.Context, id string, to models.BookingStatus) (*models.Booking, bool, error) {
	b, changed, err := s.Bookings.Transition(ctx, id, models.BookingPending, to)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrBookingNotFound
		}
		return nil, false, utils.NewInternalError("failed to update booking", err)
	}
	if !changed {
		s.Logger.Info("Booking transition skipped",
			zap.String("bookingID", id),
			zap.String("status", string(b.Status)),
			zap.String("target", string(to)),
		)
		return b, false, nil
	}
	s.Logger.Info("Booking transitioned", zap.String("bookingID", id), zap.String("status", string(to)))
	return b, true, nil
}

// Get returns the public summary of a booking.
func (s *DefaultBookingService) Get(ctx context.Context, id string) (*models.BookingSummary, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, utils.NewInternalError("failed to load booking", err)
	}
	summary := &models.BookingSummary{
		ID:          b.ID,
		ReaderID:    b.ReaderID,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		DurationMin: b.DurationMin,
		PriceCents:  b.PriceCents,
		Status:      b.Status,
	}
	if b.Status == models.BookingPaid {
		summary.MeetingURL = b.MeetingURL
	}
	if reader, err := s.Readers.GetByID(ctx, b.ReaderID); err == nil {
		summary.ReaderName = reader.DisplayName
	}
	return summary, nil
}

// ListForReader returns a reader's bookings. Upcoming hides sessions that already ended.
func (s *DefaultBookingService) ListForReader(ctx context.Context, readerID string, scope models.BookingScope) ([]models.Booking, error) {
	if _, err := s.Readers.GetByID(ctx, readerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReaderNotFound
		}
		return nil, utils.NewInternalError("failed to load reader", err)
	}

	var since *time.Time
	switch scope {
	case models.ScopeUpcoming, "":
		now := s.now()
		since = &now
	case models.ScopeAll:
	default:
		return nil, utils.NewFieldError("scope", "must be upcoming or all")
	}

	bookings, err := s.Bookings.ListByReader(ctx, readerID, since, feedLimit)
	if err != nil {
		return nil, utils.NewInternalError("failed to list bookings", err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}
