package handlers

import (
	"context"
	"net/http"

	"selftape/models"
	"selftape/services/booking"
	"selftape/services/reader"
	"selftape/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PayoutActions starts Stripe flows for a reader.
type PayoutActions interface {
	Onboard(ctx context.Context, readerID string) (string, error)
	Subscribe(ctx context.Context, readerID string) (string, error)
}

// ReaderHandler serves reader onboarding, settings and dashboard endpoints.
type ReaderHandler struct {
	ReaderSvc  reader.ReaderService
	BookingSvc booking.BookingService
	Payouts    PayoutActions
}

func NewReaderHandler(readerSvc reader.ReaderService, bookingSvc booking.BookingService, payouts PayoutActions) *ReaderHandler {
	return &ReaderHandler{ReaderSvc: readerSvc, BookingSvc: bookingSvc, Payouts: payouts}
}

// Register handles POST /api/readers.
func (h *ReaderHandler) Register(c *gin.Context) {
	var req models.CreateReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.BindingError(err))
		return
	}
	resp, err := h.ReaderSvc.Register(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("Reader registered", zap.String("readerID", resp.ReaderID))
	c.JSON(http.StatusCreated, resp)
}

// GetProfile handles GET /api/readers/:id.
func (h *ReaderHandler) GetProfile(c *gin.Context) {
	profile, err := h.ReaderSvc.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateSettings handles PUT /api/readers/:id/settings.
func (h *ReaderHandler) UpdateSettings(c *gin.Context) {
	var req models.ReaderSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.BindingError(err))
		return
	}
	updated, err := h.ReaderSvc.UpdateSettings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ListBookings handles GET /api/readers/:id/bookings?scope=upcoming|all.
func (h *ReaderHandler) ListBookings(c *gin.Context) {
	scope := models.BookingScope(c.DefaultQuery("scope", string(models.ScopeUpcoming)))
	bookings, err := h.BookingSvc.ListForReader(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// OnboardPayouts handles POST /api/readers/:id/payouts/onboard.
func (h *ReaderHandler) OnboardPayouts(c *gin.Context) {
	url, err := h.Payouts.Onboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"onboardingUrl": url})
}

// Subscribe handles POST /api/readers/:id/subscription.
func (h *ReaderHandler) Subscribe(c *gin.Context) {
	url, err := h.Payouts.Subscribe(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkoutUrl": url})
}

// RequestMagicLink handles POST /api/auth/magic-link. The answer never reveals
// whether the email belongs to a reader.
func (h *ReaderHandler) RequestMagicLink(c *gin.Context) {
	var req models.MagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.BindingError(err))
		return
	}
	if err := h.ReaderSvc.RequestMagicLink(c.Request.Context(), req.Email); err != nil {
		getLogger(c).Warn("Magic link request failed", zap.Error(err))
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "if the address belongs to a reader, a sign-in link is on its way"})
}
