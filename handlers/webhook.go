package handlers

import (
	"context"
	"io"
	"net/http"

	"selftape/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

// WebhookProcessor verifies and applies a signed payment event.
type WebhookProcessor interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

type WebhookHandler struct {
	Processor WebhookProcessor
}

func NewWebhookHandler(p WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{Processor: p}
}

// Stripe handles POST /api/stripe/webhook. The body is read raw because the
// signature covers the exact bytes.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		getLogger(c).Warn("Webhook body unreadable", zap.Error(err))
		utils.RespondError(c, utils.NewValidationError("unreadable webhook body"))
		return
	}
	if err := h.Processor.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
