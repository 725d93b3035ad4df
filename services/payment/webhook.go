package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"selftape/database/repository"
	"selftape/models"
	"selftape/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	eventCheckoutCompleted      = "checkout.session.completed"
	eventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	eventCheckoutAsyncFailed    = "checkout.session.async_payment_failed"
	eventCheckoutExpired        = "checkout.session.expired"
	eventSubscriptionUpdated    = "customer.subscription.updated"
	eventSubscriptionDeleted    = "customer.subscription.deleted"

	outcomeProcessed = "processed"
	outcomeIgnored   = "ignored"
)

var (
	tracer = otel.Tracer("selftape/services/payment")

	ErrInvalidSignature = utils.NewValidationError("invalid webhook signature")
	ErrWebhookDisabled  = utils.NewInternalError("webhook secret is not configured", nil)
)

// BookingUpdater applies payment outcomes to bookings.
type BookingUpdater interface {
	MarkPaid(ctx context.Context, id string) (bool, error)
	Cancel(ctx context.Context, id string) (bool, error)
}

// WebhookService verifies Stripe events and applies them exactly once.
type WebhookService struct {
	Secret   string
	Journal  repository.EventJournal
	Bookings BookingUpdater
	Readers  repository.ReaderRepository
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *WebhookService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Handle verifies the signature of payload and dispatches the event. A nil
// error means the provider should not redeliver.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) error {
	if s.Secret == "" {
		return ErrWebhookDisabled
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.Logger.Warn("Rejected webhook", zap.Error(err))
		return ErrInvalidSignature
	}

	ctx, span := tracer.Start(ctx, "payment.Webhook")
	defer span.End()
	span.SetAttributes(attribute.String("stripe.event_id", event.ID), attribute.String("stripe.event_type", string(event.Type)))

	first, err := s.Journal.Record(ctx, models.WebhookEvent{ID: event.ID, Type: string(event.Type), ReceivedAt: s.now().UTC()})
	if err != nil {
		// The status transitions are conditional, so handling without the journal is still safe.
		s.Logger.Warn("webhook journal unavailable", zap.String("eventID", event.ID), zap.Error(err))
		first = true
	}
	if !first {
		s.Logger.Info("Duplicate webhook ignored", zap.String("eventID", event.ID), zap.String("type", string(event.Type)))
		return nil
	}

	outcome, err := s.dispatch(ctx, event)
	if err != nil {
		span.RecordError(err)
		if ferr := s.Journal.Forget(ctx, event.ID); ferr != nil {
			s.Logger.Warn("failed to forget webhook event", zap.String("eventID", event.ID), zap.Error(ferr))
		}
		return err
	}
	if err := s.Journal.MarkOutcome(ctx, event.ID, outcome); err != nil {
		s.Logger.Debug("failed to mark webhook outcome", zap.String("eventID", event.ID), zap.Error(err))
	}
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, event stripe.Event) (string, error) {
	switch string(event.Type) {
	case eventCheckoutCompleted, eventCheckoutAsyncSucceeded:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return "", utils.NewValidationError("malformed checkout session")
		}
		if cs.Metadata[metaType] == typeReaderSubscription {
			return s.subscriptionStarted(ctx, cs)
		}
		if cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			s.Logger.Info("Checkout completed without payment yet", zap.String("sessionID", cs.ID))
			return outcomeIgnored, nil
		}
		return s.applyBooking(ctx, cs, s.Bookings.MarkPaid)

	case eventCheckoutExpired, eventCheckoutAsyncFailed:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return "", utils.NewValidationError("malformed checkout session")
		}
		if cs.Metadata[metaType] == typeReaderSubscription {
			return outcomeIgnored, nil
		}
		return s.applyBooking(ctx, cs, s.Bookings.Cancel)

	case eventSubscriptionUpdated, eventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", utils.NewValidationError("malformed subscription")
		}
		return s.subscriptionChanged(ctx, sub)
	}

	s.Logger.Debug("Unhandled webhook event type", zap.String("type", string(event.Type)))
	return outcomeIgnored, nil
}

func (s *WebhookService) applyBooking(ctx context.Context, cs stripe.CheckoutSession, apply func(context.Context, string) (bool, error)) (string, error) {
	bookingID := cs.Metadata[metaBookingID]
	if bookingID == "" {
		bookingID = cs.ClientReferenceID
	}
	if bookingID == "" {
		s.Logger.Warn("Checkout session without booking id", zap.String("sessionID", cs.ID))
		return outcomeIgnored, nil
	}
	changed, err := apply(ctx, bookingID)
	if err != nil {
		if utils.KindOf(err) == utils.KindNotFound {
			s.Logger.Warn("Webhook for unknown booking", zap.String("bookingID", bookingID))
			return outcomeIgnored, nil
		}
		return "", err
	}
	if !changed {
		return outcomeIgnored, nil
	}
	return outcomeProcessed, nil
}

func (s *WebhookService) subscriptionStarted(ctx context.Context, cs stripe.CheckoutSession) (string, error) {
	readerID := cs.Metadata[metaReaderID]
	if readerID == "" {
		readerID = cs.ClientReferenceID
	}
	update := models.SubscriptionUpdate{Status: "active"}
	if cs.Customer != nil {
		update.CustomerID = cs.Customer.ID
	}
	if cs.Subscription != nil {
		update.SubscriptionID = cs.Subscription.ID
	}
	if err := s.Readers.UpdateSubscription(ctx, readerID, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.Logger.Warn("Subscription checkout for unknown reader", zap.String("readerID", readerID))
			return outcomeIgnored, nil
		}
		return "", fmt.Errorf("activate subscription: %w", err)
	}
	s.Logger.Info("Reader subscription activated", zap.String("readerID", readerID))
	return outcomeProcessed, nil
}

func (s *WebhookService) subscriptionChanged(ctx context.Context, sub stripe.Subscription) (string, error) {
	reader, err := s.Readers.GetBySubscriptionID(ctx, sub.ID)
	if errors.Is(err, repository.ErrNotFound) {
		readerID := sub.Metadata[metaReaderID]
		if readerID == "" {
			s.Logger.Warn("Subscription event for unknown reader", zap.String("subscriptionID", sub.ID))
			return outcomeIgnored, nil
		}
		reader, err = s.Readers.GetByID(ctx, readerID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return outcomeIgnored, nil
		}
		return "", fmt.Errorf("load subscriber: %w", err)
	}

	update := models.SubscriptionUpdate{SubscriptionID: sub.ID, Status: string(sub.Status)}
	if sub.Customer != nil {
		update.CustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		update.PeriodEnd = &end
	}
	if err := s.Readers.UpdateSubscription(ctx, reader.ID, update); err != nil {
		return "", fmt.Errorf("update subscription: %w", err)
	}
	s.Logger.Info("Reader subscription updated", zap.String("readerID", reader.ID), zap.String("status", update.Status))
	return outcomeProcessed, nil
}
