package notification

import (
	"context"

	"selftape/models"
)

// NotificationService renders and sends the transactional emails.
type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, bookingID string) error
	SendBookingReminder(ctx context.Context, bookingID string) error
	SendMagicLink(ctx context.Context, p models.MagicLinkPayload) error
}

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, email models.Email) error
}
