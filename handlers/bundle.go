package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Tokens TokenValidator

	// Health
	HealthHandler gin.HandlerFunc

	// Reader endpoints
	RegisterReaderHandler   gin.HandlerFunc
	GetReaderHandler        gin.HandlerFunc
	UpdateSettingsHandler   gin.HandlerFunc
	ListReaderBookings      gin.HandlerFunc
	OnboardPayoutsHandler   gin.HandlerFunc
	SubscribeHandler        gin.HandlerFunc
	RequestMagicLinkHandler gin.HandlerFunc

	// Availability endpoints
	GetAvailabilityHandler  gin.HandlerFunc
	SaveAvailabilityHandler gin.HandlerFunc
	AvailableDaysHandler    gin.HandlerFunc
	AvailableSlotsHandler   gin.HandlerFunc

	// Booking endpoints
	CreateBookingHandler gin.HandlerFunc
	GetBookingHandler    gin.HandlerFunc

	// Integrations
	StripeWebhookHandler gin.HandlerFunc
	CalendarFeedHandler  gin.HandlerFunc
	UploadHandler        gin.HandlerFunc
}

// TokenValidator resolves reader bearer tokens.
type TokenValidator interface {
	ExtractReaderID(token string) (string, error)
}
