// Package stripe adapts the Stripe SDK to the small surface the payment
// module needs: creating and retrieving payment intents and verifying
// webhook deliveries.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNotConfigured    = errors.New("payment processor is not configured")
)

// Event types the payment module reacts to.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded  = "charge.refunded"
)

// Intent statuses reported by the processor.
const (
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusProcessing            = "processing"
)

type Intent struct {
	ID             string
	ClientSecret   string
	Status         string
	Amount         int64
	Currency       string
	Metadata       map[string]string
	FailureMessage string
}

type IntentParams struct {
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// Event is a verified webhook delivery. Intent is set for payment_intent.*
// events; RefundedIntentID for charge.refunded.
// Event is a verified webhook event. For charge.refunded, RefundedIntentID
// names the charge's intent and FullyRefunded is false while only part of
// the amount has been returned.
type Event struct {
	ID               string
	Type             string
	Intent           *Intent
	RefundedIntentID string
	FullyRefunded    bool
	AmountRefunded   int64
}

type Client struct {
	intents       *paymentintent.Client
	webhookSecret string
}

func New(secretKey, webhookSecret string) *Client {
	c := &Client{webhookSecret: webhookSecret}
	if secretKey != "" {
		c.intents = &paymentintent.Client{B: stripelib.GetBackend(stripelib.APIBackend), Key: secretKey}
	}
	return c
}

func (c *Client) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	if c.intents == nil {
		return nil, ErrNotConfigured
	}

	params := &stripelib.PaymentIntentParams{
		Amount:   stripelib.Int64(p.Amount),
		Currency: stripelib.String(p.Currency),
		AutomaticPaymentMethods: &stripelib.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripelib.Bool(true),
		},
	}
	if p.Description != "" {
		params.Description = stripelib.String(p.Description)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := c.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return fromSDK(pi), nil
}

func (c *Client) GetIntent(ctx context.Context, id string) (*Intent, error) {
	if c.intents == nil {
		return nil, ErrNotConfigured
	}

	params := &stripelib.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.intents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", id, err)
	}
	return fromSDK(pi), nil
}

// ParseWebhook verifies the Stripe-Signature header against the raw body and
// decodes the event payload.
func (c *Client) ParseWebhook(payload []byte, signatureHeader string) (*Event, error) {
	if c.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventIntentSucceeded, EventIntentFailed:
		var pi stripelib.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Intent = fromSDK(&pi)
	case EventChargeRefunded:
		var ch stripelib.Charge
		if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.RefundedIntentID = ch.PaymentIntent.ID
		}
		out.AmountRefunded = ch.AmountRefunded
		out.FullyRefunded = ch.Refunded || (ch.Amount > 0 && ch.AmountRefunded >= ch.Amount)
	}
	return out, nil
}

func fromSDK(pi *stripelib.PaymentIntent) *Intent {
	in := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		in.FailureMessage = pi.LastPaymentError.Msg
	}
	return in
}
