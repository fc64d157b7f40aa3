package stripe

import (
	"time"

	"courses-backend/utils"
)

type Config struct {
	Currency      string
	SuccessURL    string
	CancelURL     string
	WebhookSecret string
}

type Handler struct {
	checkout utils.CheckoutInitiator
	cfg      Config
	now      func() time.Time
}

// New accepts a nil initiator when Stripe is not configured, checkout then answers 503.
func New(checkout utils.CheckoutInitiator, cfg Config) *Handler {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Handler{checkout: checkout, cfg: cfg, now: time.Now}
}
