package models

import "time"

const (
	DefaultMaxAdvanceDays = 30
	DefaultMinNoticeHours = 0
	DefaultBufferMinutes  = 0
)

// Link is a labelled external profile link (IMDb, reel, socials).
type Link struct {
	Label string `json:"label" binding:"required,max=60"`
	URL   string `json:"url" binding:"required,url"`
}

// Reader is a person who reads opposite actors for self-tapes.
type Reader struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"displayName"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone,omitempty"`
	City           string   `json:"city,omitempty"`
	Bio            string   `json:"bio,omitempty"`
	HeadshotURL    string   `json:"headshotUrl,omitempty"`
	PlayableAgeMin *int     `json:"playableAgeMin,omitempty"`
	PlayableAgeMax *int     `json:"playableAgeMax,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	Unions         []string `json:"unions"`
	Languages      []string `json:"languages"`
	Specialties    []string `json:"specialties"`
	Links          []Link   `json:"links"`

	// Session rates in cents.
	RatePer15Min int64 `json:"ratePer15Min"`
	RatePer30Min int64 `json:"ratePer30Min"`
	RatePer60Min int64 `json:"ratePer60Min"`

	StripeAccountID string `json:"-"`
	Timezone        string `json:"timezone"`

	// Booking policy.
	MaxAdvanceDays int `json:"maxAdvanceBooking"`
	MinNoticeHours int `json:"minAdvanceHours"`
	BufferMinutes  int `json:"bookingBuffer"`

	AcceptsTerms   bool `json:"-"`
	MarketingOptIn bool `json:"-"`

	StripeCustomerID     string     `json:"-"`
	StripeSubscriptionID string     `json:"-"`
	SubscriptionStatus   string     `json:"subscriptionStatus,omitempty"`
	SubscriptionEndsAt   *time.Time `json:"subscriptionEndsAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PayoutsEnabled reports whether the reader can receive booking payments.
func (r Reader) PayoutsEnabled() bool {
	return r.StripeAccountID != ""
}

// ReaderSettings is the mutable booking policy of a reader.
type ReaderSettings struct {
	MaxAdvanceDays int    `json:"maxAdvanceBooking" binding:"min=1,max=365"`
	MinNoticeHours int    `json:"minAdvanceHours" binding:"min=0,max=168"`
	BufferMinutes  int    `json:"bookingBuffer" binding:"min=0,max=120"`
	Timezone       string `json:"timezone" binding:"omitempty,max=64"`
}

// CreateReaderRequest is the onboarding payload. Rates are in dollars.
type CreateReaderRequest struct {
	DisplayName    string   `json:"displayName" binding:"required,max=120"`
	Email          string   `json:"email" binding:"required,email"`
	Phone          string   `json:"phone" binding:"omitempty,max=40"`
	City           string   `json:"city" binding:"omitempty,max=120"`
	Bio            string   `json:"bio" binding:"omitempty,max=4000"`
	HeadshotURL    string   `json:"headshotUrl" binding:"omitempty,url"`
	PlayableAgeMin *int     `json:"playableAgeMin" binding:"omitempty,min=0,max=120"`
	PlayableAgeMax *int     `json:"playableAgeMax" binding:"omitempty,min=0,max=120"`
	Gender         string   `json:"gender" binding:"omitempty,max=40"`
	Unions         []string `json:"unions" binding:"omitempty,dive,max=40"`
	Languages      []string `json:"languages" binding:"omitempty,dive,max=40"`
	Specialties    []string `json:"specialties" binding:"omitempty,dive,max=60"`
	Links          []Link   `json:"links" binding:"omitempty,max=10,dive"`
	Rate15Usd      float64  `json:"rate15Usd" binding:"min=0"`
	Rate30Usd      float64  `json:"rate30Usd" binding:"min=0"`
	Rate60Usd      float64  `json:"rate60Usd" binding:"min=0"`
	Timezone       string   `json:"timezone" binding:"omitempty,max=64"`
	AcceptsTerms   bool     `json:"acceptsTerms"`
	MarketingOptIn bool     `json:"marketingOptIn"`
}

// CreateReaderResponse is returned after onboarding.
type CreateReaderResponse struct {
	ReaderID string `json:"readerId"`
	Token    string `json:"token"`
}

// ReaderProfile is the public profile along with the weekly template.
type ReaderProfile struct {
	Reader
	Availability []AvailabilitySlot `json:"availability"`
}

// SubscriptionUpdate is the reader subscription state reported by the payment provider.
type SubscriptionUpdate struct {
	CustomerID     string
	SubscriptionID string
	Status         string
	PeriodEnd      *time.Time
}
