package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"selftape/database/repository"
	"selftape/models"
	"selftape/utils"

	"go.uber.org/zap"
)

// DefaultAvailabilityService implements AvailabilityService.
type DefaultAvailabilityService struct {
	Readers      repository.ReaderRepository
	Availability repository.AvailabilityRepository
	Bookings     repository.BookingRepository
	Logger       *zap.Logger
	Now          func() time.Time
}

func (s *DefaultAvailabilityService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ValidateWindows checks every row and returns all field errors at once.
func ValidateWindows(in []models.AvailabilityInput) ([]models.AvailabilitySlot, error) {
	fields := make(map[string]string)
	out := make([]models.AvailabilitySlot, 0, len(in))
	for i, w := range in {
		key := fmt.Sprintf("slots[%d]", i)
		if w.DayOfWeek == nil || w.StartMin == nil || w.EndMin == nil {
			fields[key] = "dayOfWeek, startMin and endMin are required"
			continue
		}
		day, start, end := *w.DayOfWeek, *w.StartMin, *w.EndMin
		switch {
		case day < 0 || day > 6:
			fields[key+".dayOfWeek"] = "must be between 0 and 6"
		case start < 0 || start >= models.MinutesPerDay:
			fields[key+".startMin"] = "must be between 0 and 1439"
		case end <= 0 || end > models.MinutesPerDay:
			fields[key+".endMin"] = "must be between 1 and 1440"
		case start >= end:
			fields[key+".endMin"] = "must be after startMin"
		default:
			out = append(out, models.AvailabilitySlot{DayOfWeek: day, StartMin: start, EndMin: end})
		}
	}
	if len(fields) > 0 {
		return nil, &utils.AppError{Kind: utils.KindValidation, Message: "invalid availability", Fields: fields}
	}
	return out, nil
}

// Save replaces the reader's weekly template. Any invalid row rejects the whole request.
func (s *DefaultAvailabilityService) Save(ctx context.Context, readerID string, in []models.AvailabilityInput) ([]models.AvailabilitySlot, error) {
	slots, err := ValidateWindows(in)
	if err != nil {
		return nil, err
	}
	if err := s.Availability.Replace(ctx, readerID, slots); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReaderNotFound
		}
		return nil, utils.NewInternalError("failed to save availability", err)
	}
	s.Logger.Info("Availability saved", zap.String("readerID", readerID), zap.Int("windows", len(slots)))
	return s.List(ctx, readerID)
}

func (s *DefaultAvailabilityService) List(ctx context.Context, readerID string) ([]models.AvailabilitySlot, error) {
	slots, err := s.Availability.ListByReader(ctx, readerID)
	if err != nil {
		return nil, utils.NewInternalError("failed to load availability", err)
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	return slots, nil
}

// readerContext loads the reader with its zone and weekly template.
func readerContext(ctx context.Context, readers repository.ReaderRepository, avail repository.AvailabilityRepository, readerID string) (*models.Reader, *time.Location, []models.AvailabilitySlot, error) {
	reader, err := readers.GetByID(ctx, readerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, ErrReaderNotFound
		}
		return nil, nil, nil, utils.NewInternalError("failed to load reader", err)
	}
	tz, err := models.ParseTimezone(reader.Timezone, models.DefaultReaderTimezone)
	if err != nil {
		return nil, nil, nil, utils.NewInternalError("reader has an invalid timezone", err)
	}
	windows, err := avail.ListByReader(ctx, readerID)
	if err != nil {
		return nil, nil, nil, utils.NewInternalError("failed to load availability", err)
	}
	return reader, tz.Location(), windows, nil
}

// Slots returns the open slots of one reader on one date.
func (s *DefaultAvailabilityService) Slots(ctx context.Context, q models.SlotQuery) ([]models.Slot, error) {
	if err := ValidateDuration(q.DurationMin); err != nil {
		return nil, err
	}
	day, err := ParseDay(q.Date)
	if err != nil {
		return nil, err
	}
	reader, loc, windows, err := readerContext(ctx, s.Readers, s.Availability, q.ReaderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	first, last := bookingWindow(now, loc, reader.MaxAdvanceDays)
	if day.Before(first) || day.After(last) {
		return []models.Slot{}, nil
	}

	dayStart := day.At(loc, 0)
	dayEnd := day.AddDays(1).At(loc, 0)
	buffer := time.Duration(reader.BufferMinutes) * time.Minute
	bookings, err := s.Bookings.ListActiveInRange(ctx, reader.ID, dayStart.Add(-buffer), dayEnd.Add(buffer))
	if err != nil {
		return nil, utils.NewInternalError("failed to load bookings", err)
	}

	slots := BuildSlots(SlotParams{
		Day:         day,
		Location:    loc,
		DurationMin: q.DurationMin,
		Windows:     windows,
		Bookings:    bookings,
		Cutoff:      slotCutoff(now, reader.MinNoticeHours),
		Buffer:      buffer,
	})
	if slots == nil {
		slots = []models.Slot{}
	}
	return slots, nil
}

// AvailableDays lists the dates in the booking window with at least one open slot.
func (s *DefaultAvailabilityService) AvailableDays(ctx context.Context, q models.DaysQuery) ([]models.AvailableDay, error) {
	if err := ValidateDuration(q.DurationMin); err != nil {
		return nil, err
	}
	reader, loc, windows, err := readerContext(ctx, s.Readers, s.Availability, q.ReaderID)
	if err != nil {
		return nil, err
	}
	days := []models.AvailableDay{}
	if len(windows) == 0 {
		return days, nil
	}

	now := s.now()
	first, last := bookingWindow(now, loc, reader.MaxAdvanceDays)
	buffer := time.Duration(reader.BufferMinutes) * time.Minute
	bookings, err := s.Bookings.ListActiveInRange(ctx, reader.ID,
		first.At(loc, 0).Add(-buffer), last.AddDays(1).At(loc, 0).Add(buffer))
	if err != nil {
		return nil, utils.NewInternalError("failed to load bookings", err)
	}

	cutoff := slotCutoff(now, reader.MinNoticeHours)
	for d := first; !d.After(last); d = d.AddDays(1) {
		slots := BuildSlots(SlotParams{
			Day:         d,
			Location:    loc,
			DurationMin: q.DurationMin,
			Windows:     windows,
			Bookings:    bookings,
			Cutoff:      cutoff,
			Buffer:      buffer,
		})
		if len(slots) > 0 {
			days = append(days, models.AvailableDay{Date: d.String(), SlotCount: len(slots)})
		}
	}
	return days, nil
}
