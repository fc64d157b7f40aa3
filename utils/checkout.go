package utils

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

type CheckoutRequest struct {
	Currency    string
	UnitAmount  int64
	ProductName string
	// Metadata is copied onto the session and echoed back by the webhook
	Metadata          map[string]string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
}

type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// CheckoutInitiator opens a hosted payment session for a single item.
type CheckoutInitiator interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
}

type StripeCheckout struct {
	client session.Client
}

// NewStripeCheckout binds the secret key to this client only, stripe.Key is
// never touched.
func NewStripeCheckout(secretKey string) *StripeCheckout {
	return &StripeCheckout{
		client: session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
	}
}

func (s *StripeCheckout) CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	if req.UnitAmount <= 0 {
		return CheckoutSession{}, &ValidationFailed{Field: "cost", Rule: "amount must be positive to start a checkout"}
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s2, err := s.client.New(params)
	if err != nil {
		return CheckoutSession{}, &PaymentGatewayError{Err: fmt.Errorf("create checkout session: %w", err)}
	}
	return CheckoutSession{ID: s2.ID, URL: s2.URL}, nil
}
