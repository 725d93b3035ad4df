package models

import "time"

// CheckoutRequest describes a hosted checkout for one booking.
type CheckoutRequest struct {
	BookingID        string
	ReaderID         string
	ReaderName       string
	ReaderAccountID  string
	ActorEmail       string
	DurationMin      int
	StartTime        time.Time
	PriceCents       int64
	PlatformFeeCents int64
}

// CheckoutSession is the hosted checkout created for a booking or subscription.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// WebhookEvent is a journal entry for one payment provider event.
type WebhookEvent struct {
	ID         string    `bson:"_id" json:"id"`
	Type       string    `bson:"type" json:"type"`
	ReceivedAt time.Time `bson:"receivedAt" json:"receivedAt"`
	Outcome    string    `bson:"outcome,omitempty" json:"outcome,omitempty"`
}
