package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"food-ordering-api/apperrors"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

//go:generate mockgen -destination=mocks/mock_card.go -package=mocks food-ordering-api/payment CardProcessor

var (
	ErrInvalidCardAmount = apperrors.BadRequest("INVALID_AMOUNT", "amount must be a positive number of minor currency units")
	ErrMissingSource     = apperrors.BadRequest("MISSING_SOURCE", "a card token (source) is required")
	ErrCardDisabled      = apperrors.New(http.StatusServiceUnavailable, "CARD_NOT_CONFIGURED", "Card payments are not configured")
)

// ChargeRequest is forwarded to the card processor unchanged.
type ChargeRequest struct {
	Amount      int64
	Currency    string
	Source      string
	Description string
}

// Validate checks the request before anything is sent to the processor.
func (r *ChargeRequest) Validate() error {
	if r.Amount <= 0 {
		return ErrInvalidCardAmount
	}
	if strings.TrimSpace(r.Source) == "" {
		return ErrMissingSource
	}
	if r.Currency == "" {
		r.Currency = string(stripe.CurrencyUSD)
	}
	r.Currency = strings.ToLower(r.Currency)
	return nil
}

// CardProcessor charges a tokenised card and returns the processor's charge object.
type CardProcessor interface {
	Charge(ctx context.Context, req ChargeRequest) (*stripe.Charge, error)
}

type StripeCharger struct {
	api *client.API
}

var _ CardProcessor = (*StripeCharger)(nil)

// NewStripe returns nil when no key is configured.
func NewStripe(key string, backends *stripe.Backends) *StripeCharger {
	if key == "" {
		return nil
	}
	api := &client.API{}
	api.Init(key, backends)
	return &StripeCharger{api: api}
}

func (s *StripeCharger) Charge(ctx context.Context, req ChargeRequest) (*stripe.Charge, error) {
	if s == nil {
		return nil, ErrCardDisabled
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	if err := params.SetSource(req.Source); err != nil {
		return nil, ErrMissingSource.Wrap(err)
	}

	ch, err := s.api.Charges.New(params)
	if err != nil {
		return nil, stripeError(err)
	}
	return ch, nil
}

func stripeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return apperrors.New(http.StatusBadGateway, "CARD_FAILED", "Card processor unavailable").Wrap(err)
	}
	status := http.StatusBadGateway
	if se.Type == stripe.ErrorTypeCard {
		status = http.StatusPaymentRequired
	}
	code := "CARD_FAILED"
	if se.Code != "" {
		code = "CARD_" + strings.ToUpper(string(se.Code))
	}
	return apperrors.New(status, code, se.Msg).Wrap(err)
}
