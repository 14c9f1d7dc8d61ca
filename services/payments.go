package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"tripplanner/cache"
	"tripplanner/config"
	"tripplanner/database"
	"tripplanner/metrics"
)

var (
	// ErrInvalidSignature means the webhook payload could not be verified.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrBookingNotPayable means the booking is not pending.
	ErrBookingNotPayable = errors.New("booking is not awaiting payment")
)

const processedEventTTL = 24 * time.Hour

// PaymentStore is the persistence the payment flow needs.
type PaymentStore interface {
	GetBooking(ctx context.Context, userID, id string) (*database.Booking, error)
	SetBookingSession(ctx context.Context, id, sessionID string) error
	UpdateBookingStatus(ctx context.Context, id, status string) error
	CreatePaymentTransaction(ctx context.Context, p *database.PaymentTransaction) error
	UpdatePaymentBySession(ctx context.Context, sessionID, status, paymentIntent string) (*database.PaymentTransaction, error)
	UpdatePaymentByIntent(ctx context.Context, paymentIntent, status string) (*database.PaymentTransaction, error)
	UpdatePaymentByBooking(ctx context.Context, bookingID, status, paymentIntent string) (*database.PaymentTransaction, error)
}

// SessionCreator creates Stripe Checkout Sessions.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeSessions struct{}

func (stripeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Handled   bool   `json:"handled"`
}

// Payments creates checkout sessions for bookings and applies webhook events.
type Payments struct {
	cfg      config.StripeConfig
	store    PaymentStore
	sessions SessionCreator
	events   cache.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewPayments(cfg config.StripeConfig, store PaymentStore, events cache.Store, m *metrics.Metrics, logger *zap.Logger) *Payments {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &Payments{
		cfg:      cfg,
		store:    store,
		sessions: stripeSessions{},
		events:   events,
		metrics:  m,
		logger:   logger,
	}
}

// WithSessionCreator swaps the Stripe client, used by tests.
func (p *Payments) WithSessionCreator(sc SessionCreator) *Payments {
	p.sessions = sc
	return p
}

// CreateCheckout starts a Stripe Checkout Session for a pending booking owned by userID.
func (p *Payments) CreateCheckout(ctx context.Context, userID, email, bookingID string) (*CheckoutResult, error) {
	booking, err := p.store.GetBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != database.BookingPending {
		return nil, ErrBookingNotPayable
	}
	if p.cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	name := booking.Description
	if name == "" {
		name = fmt.Sprintf("%s booking", TitleCase(booking.Kind))
	}
	currency := strings.ToLower(booking.Currency)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.cfg.SuccessURL),
		CancelURL:         stripe.String(p.cfg.CancelURL),
		ClientReferenceID: stripe.String(booking.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(minorUnits(booking.Amount, currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"booking_id": booking.ID,
				"user_id":    userID,
			},
		},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.Context = ctx
	params.AddMetadata("booking_id", booking.ID)
	params.AddMetadata("user_id", userID)

	sess, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if err := p.store.CreatePaymentTransaction(ctx, &database.PaymentTransaction{
		BookingID:       booking.ID,
		UserID:          userID,
		StripeSessionID: sess.ID,
		Amount:          booking.Amount,
		Currency:        booking.Currency,
		Status:          database.PaymentPending,
	}); err != nil {
		return nil, err
	}
	if err := p.store.SetBookingSession(ctx, booking.ID, sess.ID); err != nil {
		return nil, err
	}

	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies and applies one Stripe event. Signature failures return
// ErrInvalidSignature before anything is written. Events already seen in the last
// 24h are acknowledged without reprocessing.
func (p *Payments) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if p.cfg.WebhookSecret == "" {
		p.recordEvent("unknown", "invalid_signature")
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		p.recordEvent("unknown", "invalid_signature")
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	eventType := string(event.Type)
	result := &WebhookResult{EventID: event.ID, EventType: eventType}
	log := p.logger.With(zap.String("event_id", event.ID), zap.String("event_type", eventType))

	dedupeKey := "stripe_event:" + event.ID
	fresh, err := p.events.SetNX(ctx, dedupeKey, processedEventTTL)
	if err != nil {
		log.Warn("webhook dedupe unavailable", zap.Error(err))
		fresh = true
	}
	if !fresh {
		result.Duplicate = true
		p.recordEvent(eventType, "duplicate")
		log.Info("duplicate webhook event ignored")
		return result, nil
	}

	result.Handled = true
	switch eventType {
	case "checkout.session.completed":
		err = p.checkoutCompleted(ctx, event)
	case "checkout.session.async_payment_succeeded":
		err = p.checkoutPaid(ctx, event)
	case "checkout.session.async_payment_failed":
		err = p.checkoutFailed(ctx, event, database.BookingPaymentFailed)
	case "checkout.session.expired":
		err = p.checkoutFailed(ctx, event, database.BookingCancelled)
	case "payment_intent.succeeded":
		err = p.paymentIntentUpdated(ctx, event, database.PaymentSucceeded, database.BookingConfirmed)
	case "payment_intent.payment_failed":
		err = p.paymentIntentUpdated(ctx, event, database.PaymentFailed, database.BookingPaymentFailed)
	case "charge.refunded":
		err = p.chargeRefunded(ctx, event)
	default:
		result.Handled = false
	}

	if err != nil {
		// let Stripe's retry reprocess the event
		if delErr := p.events.Delete(ctx, dedupeKey); delErr != nil {
			log.Warn("release webhook dedupe key", zap.Error(delErr))
		}
		p.recordEvent(eventType, "failed")
		log.Error("webhook processing failed", zap.Error(err))
		return result, err
	}

	if result.Handled {
		p.recordEvent(eventType, "processed")
		log.Info("webhook processed")
	} else {
		p.recordEvent(eventType, "ignored")
		log.Debug("webhook event type not handled")
	}
	return result, nil
}

func (p *Payments) checkoutCompleted(ctx context.Context, event stripe.Event) error {
	sess, err := unmarshalSession(event)
	if err != nil {
		return err
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusUnpaid {
		return p.sessionPaid(ctx, sess)
	}

	// Delayed payment methods settle later through async_payment_* or payment_intent.* events.
	// Link the intent now so those events find the transaction.
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return nil
	}
	_, err = p.store.UpdatePaymentBySession(ctx, sess.ID, database.PaymentPending, sess.PaymentIntent.ID)
	return p.acknowledge(err, "payment transaction", sess.ID)
}

func (p *Payments) checkoutPaid(ctx context.Context, event stripe.Event) error {
	sess, err := unmarshalSession(event)
	if err != nil {
		return err
	}
	return p.sessionPaid(ctx, sess)
}

func (p *Payments) sessionPaid(ctx context.Context, sess *stripe.CheckoutSession) error {
	intent := ""
	if sess.PaymentIntent != nil {
		intent = sess.PaymentIntent.ID
	}
	bookingID := sessionBookingID(sess)

	tx, err := p.store.UpdatePaymentBySession(ctx, sess.ID, database.PaymentSucceeded, intent)
	if errors.Is(err, database.ErrNotFound) && bookingID != "" {
		tx, err = p.store.UpdatePaymentByBooking(ctx, bookingID, database.PaymentSucceeded, intent)
	}
	if err != nil {
		return p.acknowledge(err, "payment transaction", sess.ID)
	}
	return p.setBookingStatus(ctx, tx.BookingID, database.BookingConfirmed)
}

// checkoutFailed handles sessions that expired or whose delayed payment failed.
func (p *Payments) checkoutFailed(ctx context.Context, event stripe.Event, bookingStatus string) error {
	sess, err := unmarshalSession(event)
	if err != nil {
		return err
	}

	tx, err := p.store.UpdatePaymentBySession(ctx, sess.ID, database.PaymentFailed, "")
	if err != nil {
		return p.acknowledge(err, "payment transaction", sess.ID)
	}
	return p.setBookingStatus(ctx, tx.BookingID, bookingStatus)
}

func unmarshalSession(event stripe.Event) (*stripe.CheckoutSession, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal checkout session: %w", err)
	}
	return &sess, nil
}

// paymentIntentUpdated moves the intent's transaction to status and its booking to bookingStatus.
func (p *Payments) paymentIntentUpdated(ctx context.Context, event stripe.Event, status, bookingStatus string) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("unmarshal payment intent: %w", err)
	}

	tx, err := p.store.UpdatePaymentByIntent(ctx, pi.ID, status)
	if errors.Is(err, database.ErrNotFound) && pi.Metadata["booking_id"] != "" {
		tx, err = p.store.UpdatePaymentByBooking(ctx, pi.Metadata["booking_id"], status, pi.ID)
	}
	if err != nil {
		return p.acknowledge(err, "payment transaction", pi.ID)
	}
	return p.setBookingStatus(ctx, tx.BookingID, bookingStatus)
}

func (p *Payments) chargeRefunded(ctx context.Context, event stripe.Event) error {
	var ch stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
		return fmt.Errorf("unmarshal charge: %w", err)
	}
	if !ch.Refunded {
		p.logger.Info("partial refund left booking unchanged", zap.String("charge_id", ch.ID))
		return nil
	}
	if ch.PaymentIntent == nil || ch.PaymentIntent.ID == "" {
		p.logger.Warn("refunded charge has no payment intent", zap.String("charge_id", ch.ID))
		return nil
	}

	tx, err := p.store.UpdatePaymentByIntent(ctx, ch.PaymentIntent.ID, database.PaymentRefunded)
	if err != nil {
		return p.acknowledge(err, "payment transaction", ch.PaymentIntent.ID)
	}
	return p.setBookingStatus(ctx, tx.BookingID, database.BookingRefunded)
}

func (p *Payments) setBookingStatus(ctx context.Context, bookingID, status string) error {
	err := p.store.UpdateBookingStatus(ctx, bookingID, status)
	return p.acknowledge(err, "booking", bookingID)
}

// acknowledge turns errors that a retry cannot fix into a handled event: rows we do not
// have, and out-of-order events that would move a status backwards.
func (p *Payments) acknowledge(err error, what, ref string) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		p.logger.Warn("webhook references unknown "+what, zap.String("ref", ref))
		return nil
	case errors.Is(err, database.ErrStaleTransition):
		p.logger.Info("out-of-order webhook left "+what+" unchanged", zap.String("ref", ref), zap.Error(err))
		return nil
	}
	return err
}

func (p *Payments) recordEvent(eventType, outcome string) {
	if p.metrics == nil {
		return
	}
	p.metrics.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func sessionBookingID(sess *stripe.CheckoutSession) string {
	if id := sess.Metadata["booking_id"]; id != "" {
		return id
	}
	return sess.ClientReferenceID
}

var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true, "krw": true,
	"mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true, "vuv": true, "xaf": true,
	"xof": true, "xpf": true,
}

// minorUnits converts an amount to the smallest currency unit Stripe expects.
func minorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
