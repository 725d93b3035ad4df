package booking

import (
	"context"

	"selftape/models"
)

// AvailabilityService manages weekly templates and computes open slots.
type AvailabilityService interface {
	Save(ctx context.Context, readerID string, in []models.AvailabilityInput) ([]models.AvailabilitySlot, error)
	List(ctx context.Context, readerID string) ([]models.AvailabilitySlot, error)
	Slots(ctx context.Context, q models.SlotQuery) ([]models.Slot, error)
	AvailableDays(ctx context.Context, q models.DaysQuery) ([]models.AvailableDay, error)
}

// BookingService creates bookings and applies payment outcomes to them.
type BookingService interface {
	Create(ctx context.Context, req models.CreateBookingRequest) (*models.CreateBookingResponse, error)
	Get(ctx context.Context, id string) (*models.BookingSummary, error)
	ListForReader(ctx context.Context, readerID string, scope models.BookingScope) ([]models.Booking, error)
	MarkPaid(ctx context.Context, id string) (bool, error)
	Cancel(ctx context.Context, id string) (bool, error)
}

// CheckoutProvider opens a hosted payment page for a booking.
type CheckoutProvider interface {
	CreateBookingCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error)
}

// MeetingProvisioner creates a video room. An empty URL means rooms are disabled.
type MeetingProvisioner interface {
	CreateRoom(ctx context.Context, b models.Booking) (string, error)
}

// Notifier schedules the emails that follow a paid booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b models.Booking) error
}

// EventPublisher announces booking lifecycle changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.BookingEvent) error
}

// FeedInvalidator drops cached calendar feeds.
type FeedInvalidator interface {
	Invalidate(ctx context.Context, readerID string) error
}
