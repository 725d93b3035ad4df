package payment

import (
	"context"
	"errors"

	"selftape/database/repository"
	"selftape/models"
	"selftape/utils"

	"go.uber.org/zap"
)

// AccountGateway is the slice of Stripe used for reader payouts and subscriptions.
type AccountGateway interface {
	CreateConnectAccount(ctx context.Context, reader models.Reader) (string, error)
	CreateOnboardingLink(ctx context.Context, readerID, accountID string) (string, error)
	CreateSubscriptionCheckout(ctx context.Context, reader models.Reader) (*models.CheckoutSession, error)
}

// PayoutService links readers to connected accounts and sells reader subscriptions.
type PayoutService struct {
	Readers repository.ReaderRepository
	Gateway AccountGateway
	Logger  *zap.Logger
}

var errReaderNotFound = utils.NewNotFoundError("reader not found")

func (s *PayoutService) loadReader(ctx context.Context, id string) (*models.Reader, error) {
	reader, err := s.Readers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errReaderNotFound
		}
		return nil, utils.NewInternalError("failed to load reader", err)
	}
	return reader, nil
}

// Onboard returns a Stripe onboarding URL, creating the connected account on first use.
func (s *PayoutService) Onboard(ctx context.Context, readerID string) (string, error) {
	reader, err := s.loadReader(ctx, readerID)
	if err != nil {
		return "", err
	}

	accountID := reader.StripeAccountID
	if accountID == "" {
		accountID, err = s.Gateway.CreateConnectAccount(ctx, *reader)
		if err != nil {
			return "", utils.NewUpstreamError("failed to create payout account", err)
		}
		if err := s.Readers.SetStripeAccount(ctx, reader.ID, accountID); err != nil {
			return "", utils.NewInternalError("failed to store payout account", err)
		}
		s.Logger.Info("Connected account created", zap.String("readerID", reader.ID), zap.String("accountID", accountID))
	}

	link, err := s.Gateway.CreateOnboardingLink(ctx, reader.ID, accountID)
	if err != nil {
		return "", utils.NewUpstreamError("failed to create onboarding link", err)
	}
	return link, nil
}

// Subscribe opens a subscription checkout for the reader.
func (s *PayoutService) Subscribe(ctx context.Context, readerID string) (string, error) {
	reader, err := s.loadReader(ctx, readerID)
	if err != nil {
		return "", err
	}
	if reader.SubscriptionStatus == "active" || reader.SubscriptionStatus == "trialing" {
		return "", utils.NewConflictError("reader already has an active subscription")
	}
	session, err := s.Gateway.CreateSubscriptionCheckout(ctx, *reader)
	if err != nil {
		return "", utils.NewUpstreamError("failed to start subscription checkout", err)
	}
	return session.URL, nil
}
