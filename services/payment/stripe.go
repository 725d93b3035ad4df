package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"selftape/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	metaBookingID = "bookingId"
	metaReaderID  = "readerId"
	metaType      = "type"

	typeReaderSubscription = "reader_subscription"
)

// ErrNotConfigured is returned when a Stripe call is made without credentials.
var ErrNotConfigured = errors.New("stripe is not configured")

// StripeGateway talks to Stripe through an injected API client.
type StripeGateway struct {
	API           *client.API
	Currency      string
	BaseURL       string
	CheckoutTTL   time.Duration
	ReaderPriceID string
	Now           func() time.Time
}

// NewStripeGateway builds a gateway. An empty key yields a gateway whose calls fail.
func NewStripeGateway(secretKey, currency, baseURL, readerPriceID string, checkoutTTL time.Duration) *StripeGateway {
	g := &StripeGateway{
		Currency:      strings.ToLower(currency),
		BaseURL:       strings.TrimRight(baseURL, "/"),
		CheckoutTTL:   checkoutTTL,
		ReaderPriceID: readerPriceID,
		Now:           time.Now,
	}
	if secretKey != "" {
		g.API = client.New(secretKey, nil)
	}
	return g
}

func (g *StripeGateway) ready() error {
	if g.API == nil {
		return ErrNotConfigured
	}
	return nil
}

// CreateBookingCheckout opens a destination-charge Checkout Session for a booking.
// The booking id travels in the session metadata for webhook correlation.
func (g *StripeGateway) CreateBookingCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if req.ReaderAccountID == "" {
		return nil, errors.New("reader has no connected account")
	}

	successURL := fmt.Sprintf("%s/booking/success?bookingId=%s&session_id={CHECKOUT_SESSION_ID}", g.BaseURL, url.QueryEscape(req.BookingID))
	cancelURL := fmt.Sprintf("%s/reader/%s?canceled=1", g.BaseURL, url.PathEscape(req.ReaderID))

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.BookingID),
		CustomerEmail:     stripe.String(req.ActorEmail),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ExpiresAt:         stripe.Int64(g.Now().Add(g.CheckoutTTL).Unix()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.Currency),
				UnitAmount: stripe.Int64(req.PriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%d-minute self-tape session with %s", req.DurationMin, req.ReaderName)),
					Description: stripe.String(fmt.Sprintf("Session starts %s UTC",
						req.StartTime.UTC().Format("Mon Jan 2 2006 15:04"))),
				},
			},
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(req.PlatformFeeCents),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.ReaderAccountID),
			},
			Metadata: map[string]string{
				metaBookingID: req.BookingID,
				metaReaderID:  req.ReaderID,
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(metaBookingID, req.BookingID)
	params.AddMetadata(metaReaderID, req.ReaderID)
	params.SetIdempotencyKey("booking-checkout-" + req.BookingID)

	s, err := g.API.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &models.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CreateConnectAccount creates an Express account for a reader's payouts.
func (g *StripeGateway) CreateConnectAccount(ctx context.Context, reader models.Reader) (string, error) {
	if err := g.ready(); err != nil {
		return "", err
	}
	params := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Email:        stripe.String(reader.Email),
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	params.AddMetadata(metaReaderID, reader.ID)
	params.SetIdempotencyKey("reader-account-" + reader.ID)

	acct, err := g.API.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("create connect account: %w", err)
	}
	return acct.ID, nil
}

// CreateOnboardingLink returns a hosted onboarding URL for a connected account.
func (g *StripeGateway) CreateOnboardingLink(ctx context.Context, readerID, accountID string) (string, error) {
	if err := g.ready(); err != nil {
		return "", err
	}
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(fmt.Sprintf("%s/reader/%s/payouts?refresh=1", g.BaseURL, url.PathEscape(readerID))),
		ReturnURL:  stripe.String(fmt.Sprintf("%s/reader/%s/payouts?done=1", g.BaseURL, url.PathEscape(readerID))),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := g.API.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("create account link: %w", err)
	}
	return link.URL, nil
}

// CreateSubscriptionCheckout opens a subscription Checkout Session for a reader.
func (g *StripeGateway) CreateSubscriptionCheckout(ctx context.Context, reader models.Reader) (*models.CheckoutSession, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if g.ReaderPriceID == "" {
		return nil, errors.New("reader subscription price is not configured")
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(reader.ID),
		SuccessURL:        stripe.String(fmt.Sprintf("%s/reader/%s?subscribed=1", g.BaseURL, url.PathEscape(reader.ID))),
		CancelURL:         stripe.String(fmt.Sprintf("%s/reader/%s", g.BaseURL, url.PathEscape(reader.ID))),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(g.ReaderPriceID),
			Quantity: stripe.Int64(1),
		}},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metaReaderID: reader.ID},
		},
	}
	if reader.StripeCustomerID != "" {
		params.Customer = stripe.String(reader.StripeCustomerID)
	} else {
		params.CustomerEmail = stripe.String(reader.Email)
	}
	params.Context = ctx
	params.AddMetadata(metaType, typeReaderSubscription)
	params.AddMetadata(metaReaderID, reader.ID)

	s, err := g.API.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create subscription checkout: %w", err)
	}
	return &models.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}
