package repository

import (
	"context"
	"errors"
	"time"

	"selftape/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("conflict")
	// ErrOverlap is returned when a booking would overlap an active booking of the same reader.
	ErrOverlap = errors.New("booking overlaps an existing booking")
)

// ReaderRepository persists reader profiles.
type ReaderRepository interface {
	Create(ctx context.Context, r *models.Reader) error
	GetByID(ctx context.Context, id string) (*models.Reader, error)
	GetByEmail(ctx context.Context, email string) (*models.Reader, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Reader, error)
	UpdateSettings(ctx context.Context, id string, s models.ReaderSettings) (*models.Reader, error)
	SetStripeAccount(ctx context.Context, id, accountID string) error
	UpdateSubscription(ctx context.Context, id string, u models.SubscriptionUpdate) error
}

// AvailabilityRepository persists the weekly availability template.
type AvailabilityRepository interface {
	ListByReader(ctx context.Context, readerID string) ([]models.AvailabilitySlot, error)
	// Replace deletes every window of the reader and inserts slots in one transaction.
	Replace(ctx context.Context, readerID string, slots []models.AvailabilitySlot) error
}

// BookingRepository persists bookings.
type BookingRepository interface {
	// CreatePending inserts b unless an active booking of the reader lies within
	// buffer of [b.StartTime, b.EndTime). The check and insert are atomic.
	CreatePending(ctx context.Context, b *models.Booking, buffer time.Duration) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// ListActiveInRange returns PENDING and PAID bookings intersecting [from, to), ordered by start.
	ListActiveInRange(ctx context.Context, readerID string, from, to time.Time) ([]models.Booking, error)
	// ListByReader returns bookings ending after since (all when nil), ordered by start.
	ListByReader(ctx context.Context, readerID string, since *time.Time, limit int) ([]models.Booking, error)
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	SetMeetingURL(ctx context.Context, id, url string) error
	// Transition moves a booking from one status to another. It reports false with
	// the current row when the booking was not in the from status.
	Transition(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, bool, error)
}

// PendingEventLease is how long a journaled event without an outcome is
// considered in flight. After it lapses a redelivery may claim the event again.
const PendingEventLease = 2 * time.Minute

// EventJournal remembers which payment provider events were already handled.
type EventJournal interface {
	// Record stores the event and reports whether the caller should handle it:
	// true for a first sighting or for a stale entry that never got an outcome.
	Record(ctx context.Context, ev models.WebhookEvent) (bool, error)
	MarkOutcome(ctx context.Context, id, outcome string) error
	// Forget removes an event whose handling failed so a redelivery is processed again.
	Forget(ctx context.Context, id string) error
}
