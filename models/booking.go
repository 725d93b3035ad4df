package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending  BookingStatus = "PENDING"
	BookingPaid     BookingStatus = "PAID"
	BookingCanceled BookingStatus = "CANCELED"
)

// Active reports whether a booking in this status holds its time range.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingPaid
}

// Booking is a paid self-tape session between an actor and a reader.
type Booking struct {
	ID                string        `json:"id"`
	ReaderID          string        `json:"readerId"`
	ActorName         string        `json:"actorName"`
	ActorEmail        string        `json:"actorEmail"`
	ActorTimezone     string        `json:"actorTimezone"`
	StartTime         time.Time     `json:"startTime"` // UTC
	EndTime           time.Time     `json:"endTime"`   // UTC, exclusive
	DurationMin       int           `json:"durationMin"`
	PriceCents        int64         `json:"priceCents"`
	PlatformFeeCents  int64         `json:"platformFeeCents"`
	Status            BookingStatus `json:"status"`
	MeetingURL        string        `json:"meetingUrl,omitempty"`
	Notes             string        `json:"notes,omitempty"`
	CheckoutSessionID string        `json:"-"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// Overlaps reports whether [start,end) intersects the booking, widened by pad on both sides.
func (b Booking) Overlaps(start, end time.Time, pad time.Duration) bool {
	return b.StartTime.Before(end.Add(pad)) && b.EndTime.After(start.Add(-pad))
}

// CreateBookingRequest is the payload accepted by the booking endpoint.
type CreateBookingRequest struct {
	ReaderID      string `json:"readerId" binding:"required,uuid"`
	ActorName     string `json:"actorName" binding:"required,max=120"`
	ActorEmail    string `json:"actorEmail" binding:"required,email"`
	ActorTimezone string `json:"actorTimezone" binding:"omitempty,max=64"`
	Date          string `json:"date" binding:"required,datetime=2006-01-02"`
	StartMin      *int   `json:"startMin" binding:"required,min=0,max=1439"`
	DurationMin   int    `json:"durationMin" binding:"required"`
	Notes         string `json:"notes" binding:"omitempty,max=2000"`
}

// CreateBookingResponse carries the hosted checkout redirect.
type CreateBookingResponse struct {
	BookingID   string `json:"bookingId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// BookingSummary is the public view of a booking, safe to show on a checkout return page.
type BookingSummary struct {
	ID          string        `json:"id"`
	ReaderID    string        `json:"readerId"`
	ReaderName  string        `json:"readerName"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	DurationMin int           `json:"durationMin"`
	PriceCents  int64         `json:"priceCents"`
	Status      BookingStatus `json:"status"`
	MeetingURL  string        `json:"meetingUrl,omitempty"`
}

// BookingScope selects which of a reader's bookings to list.
type BookingScope string

const (
	ScopeUpcoming BookingScope = "upcoming"
	ScopeAll      BookingScope = "all"
)
