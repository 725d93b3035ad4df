package models

import "time"

// BookingEmailPayload is the task payload for booking confirmation and reminder emails.
type BookingEmailPayload struct {
	BookingID string `json:"bookingId"`
}

// MagicLinkPayload is the task payload for a reader login email.
type MagicLinkPayload struct {
	ReaderID string `json:"readerId"`
	Email    string `json:"email"`
	Link     string `json:"link"`
}

// Email is an outbound message.
type Email struct {
	To      []string
	Cc      []string
	Subject string
	HTML    string
}

// BookingEvent is published to the broker on booking lifecycle changes.
type BookingEvent struct {
	Type       string        `json:"type"`
	BookingID  string        `json:"bookingId"`
	ReaderID   string        `json:"readerId"`
	Status     BookingStatus `json:"status"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime"`
	PriceCents int64         `json:"priceCents"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// MagicLinkRequest asks for a reader login link.
type MagicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}
