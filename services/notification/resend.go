package notification

import (
	"context"
	"fmt"

	"selftape/models"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendSender delivers email through the Resend API. Without an API key it
// only logs what would have been sent.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

func NewResendSender(apiKey, from string, logger *zap.Logger) *ResendSender {
	s := &ResendSender{from: from, logger: logger}
	if apiKey != "" {
		s.client = resend.NewClient(apiKey)
	}
	return s
}

func (s *ResendSender) Send(ctx context.Context, email models.Email) error {
	if s.client == nil {
		s.logger.Info("Email delivery disabled, skipping",
			zap.Strings("to", email.To),
			zap.String("subject", email.Subject),
		)
		return nil
	}
	resp, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      email.To,
		Cc:      email.Cc,
		Subject: email.Subject,
		Html:    email.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	s.logger.Debug("Email sent", zap.String("id", resp.Id), zap.String("subject", email.Subject))
	return nil
}
