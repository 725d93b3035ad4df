package routes

import (
	"net/http"
	"strings"
	"time"

	"selftape/handlers"
	"selftape/middleware"
	"selftape/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func init() {
	// Request bodies with fields the API does not know are rejected.
	binding.EnableDecoderDisallowUnknownFields = true
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterReaderRoutes registers reader onboarding and dashboard endpoints.
func RegisterReaderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/readers")
	{
		api.POST("", hb.RegisterReaderHandler)
		api.GET("/:id", hb.GetReaderHandler)
		api.GET("/:id/availability", hb.GetAvailabilityHandler)

		// Reader-only routes; the token must belong to :id.
		protected := api.Group("")
		protected.Use(middleware.ReaderAuthMiddleware(hb.Tokens))
		protected.PUT("/:id/settings", hb.UpdateSettingsHandler)
		protected.PUT("/:id/availability", hb.SaveAvailabilityHandler)
		protected.GET("/:id/bookings", hb.ListReaderBookings)
		protected.POST("/:id/payouts/onboard", hb.OnboardPayoutsHandler)
		protected.POST("/:id/subscription", hb.SubscribeHandler)
	}

	r.POST("/api/auth/magic-link", hb.RequestMagicLinkHandler)
}

// RegisterScheduleRoutes registers public slot search.
func RegisterScheduleRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/schedule")
	{
		api.GET("/available-days", hb.AvailableDaysHandler)
		api.GET("/available-slots", hb.AvailableSlotsHandler)
	}
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("", hb.CreateBookingHandler)
		api.GET("/:id", hb.GetBookingHandler)
	}
}

// RegisterIntegrationRoutes registers the payment webhook, calendar feed and uploads.
func RegisterIntegrationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/stripe/webhook", hb.StripeWebhookHandler)
	r.GET("/api/calendar/ical/:readerId", hb.CalendarFeedHandler)
	r.POST("/api/uploads", hb.UploadHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, corsOrigins string, perMin int) {
	r.Use(cors.New(corsConfig(corsOrigins)))
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware(perMin))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, utils.ErrorResponse{Error: "route not found"})
	})

	RegisterHealthRoute(r, hb)
	RegisterReaderRoutes(r, hb)
	RegisterScheduleRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterIntegrationRoutes(r, hb)
}

func corsConfig(origins string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	var list []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			list = append(list, o)
		}
	}
	if len(list) == 0 || (len(list) == 1 && list[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = list
	cfg.AllowCredentials = true
	return cfg
}
