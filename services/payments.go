package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/abenezerk/predict-backend/models"
	"github.com/abenezerk/predict-backend/utils/logger"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/charge"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/transfer"
	"github.com/stripe/stripe-go/v76/webhook"
)

type ChargeRequest struct {
	UserID   string
	Amount   float64
	Currency string
	Metadata map[string]string
}

// Purchase is the handle the voter completes out of band. The vote is only
// recorded once the provider confirms payment.
type Purchase struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

type PayoutRequest struct {
	RecipientID    string
	Amount         float64
	Currency       string
	IdempotencyKey string
	Notes          string
}

// PaymentConfirmation is the provider's asynchronous payment-success event,
// normalized. NetAmount is a pointer so a missing value fails validation
// instead of silently reading as zero.
type PaymentConfirmation struct {
	ReceiptID string
	UserID    string
	Currency  string
	Amount    float64
	NetAmount *float64
	AnswerID  string
	GameID    string
}

// PaymentProvider is the external payment system. Charges are asynchronous
// (confirmed via webhook); payouts carry idempotency keys so at-least-once
// delivery never double-pays.
type PaymentProvider interface {
	ChargeUser(ctx context.Context, req ChargeRequest) (*Purchase, error)
	PayUser(ctx context.Context, req PayoutRequest) error
	TransferFeePercent(ctx context.Context) (float64, error)
}

// StripeProvider implements PaymentProvider on top of Stripe Checkout and
// Transfers.
type StripeProvider struct {
	webhookSecret string
	feePercent    float64
	successURL    string
	cancelURL     string
	getCharge     func(id string, params *stripe.ChargeParams) (*stripe.Charge, error)
}

func NewStripeProvider(secretKey, webhookSecret string, feePercent float64, frontendOrigin string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{
		webhookSecret: webhookSecret,
		feePercent:    feePercent,
		successURL:    frontendOrigin + "/vote/success",
		cancelURL:     frontendOrigin + "/vote/cancel",
		getCharge:     charge.Get,
	}
}

// ChargeUser creates a checkout session for the per-vote cost. The metadata
// is attached to the payment intent so the success webhook can be correlated
// back to the (answer, game, user) it pays for.
func (p *StripeProvider) ChargeUser(ctx context.Context, req ChargeRequest) (*Purchase, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(int64(math.Round(req.Amount * 100))),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Prediction vote"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := session.New(params)
	if err != nil {
		logger.Errorf("stripe session.New: %v", err)
		return nil, fmt.Errorf("charge failed: %w", models.ErrUpstream)
	}

	return &Purchase{ID: s.ID, CheckoutURL: s.URL}, nil
}

// PayUser issues an outbound transfer. The idempotency key makes retried
// settlement calls safe on the provider side.
func (p *StripeProvider) PayUser(ctx context.Context, req PayoutRequest) error {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(math.Round(req.Amount * 100))),
		Currency:    stripe.String(req.Currency),
		Destination: stripe.String(req.RecipientID),
		Description: stripe.String(req.Notes),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	if _, err := transfer.New(params); err != nil {
		return fmt.Errorf("transfer to %s failed: %v: %w", req.RecipientID, err, models.ErrUpstream)
	}
	return nil
}

// TransferFeePercent reports the platform's outbound transfer fee. Stripe
// does not expose this per account, so it is configured.
func (p *StripeProvider) TransferFeePercent(ctx context.Context) (float64, error) {
	return p.feePercent, nil
}

// ParseConfirmation verifies the webhook signature and normalizes a
// payment_intent.succeeded event. Other event types return (nil, nil).
func (p *StripeProvider) ParseConfirmation(payload []byte, sigHeader string) (*PaymentConfirmation, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	if event.Type != "payment_intent.succeeded" {
		return nil, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent: %w", err)
	}

	conf := &PaymentConfirmation{
		ReceiptID: intent.ID,
		UserID:    intent.Metadata["userId"],
		Currency:  string(intent.Currency),
		Amount:    float64(intent.Amount) / 100,
		AnswerID:  intent.Metadata["answerId"],
		GameID:    intent.Metadata["gameId"],
	}

	net, err := p.netReceived(intent.LatestCharge)
	if err != nil {
		return nil, err
	}
	conf.NetAmount = net

	return conf, nil
}

// netReceived resolves the net-of-fee amount for a charge. Webhook payloads
// deliver latest_charge as a bare id, so the balance transaction usually has
// to be fetched; a lookup failure is upstream, not malformed, so the caller
// can have the event redelivered.
func (p *StripeProvider) netReceived(ch *stripe.Charge) (*float64, error) {
	if ch == nil {
		return nil, nil
	}

	bt := ch.BalanceTransaction
	if bt == nil || bt.Net == 0 {
		params := &stripe.ChargeParams{}
		params.AddExpand("balance_transaction")
		full, err := p.getCharge(ch.ID, params)
		if err != nil {
			return nil, fmt.Errorf("fetching charge %s: %v: %w", ch.ID, err, models.ErrUpstream)
		}
		bt = full.BalanceTransaction
	}

	if bt == nil || bt.Net <= 0 {
		return nil, nil
	}
	net := float64(bt.Net) / 100
	return &net, nil
}
