package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const paymentColumns = `id, booking_id, user_id, stripe_session_id, stripe_payment_intent, amount, currency, status, created_at, updated_at`

func (s *Store) CreatePaymentTransaction(ctx context.Context, p *PaymentTransaction) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO payment_transactions (id, booking_id, user_id, stripe_session_id, stripe_payment_intent, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.BookingID, p.UserID, p.StripeSessionID, p.StripePaymentIntent, p.Amount, p.Currency, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment transaction: %w", err)
	}
	return nil
}

func (s *Store) ListPaymentTransactions(ctx context.Context, userID string) ([]PaymentTransaction, error) {
	items := []PaymentTransaction{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+paymentColumns+` FROM payment_transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payment transactions: %w", err)
	}
	return items, nil
}

// paymentTransitions lists the statuses a transaction may move from, per target status.
// Pending to pending only links a payment intent.
var paymentTransitions = map[string][]string{
	PaymentPending:   {PaymentPending},
	PaymentSucceeded: {PaymentPending, PaymentFailed},
	PaymentFailed:    {PaymentPending},
	PaymentRefunded:  {PaymentSucceeded},
}

// UpdatePaymentBySession sets the status of the transaction created for a checkout session.
// An empty paymentIntent leaves the stored intent untouched.
func (s *Store) UpdatePaymentBySession(ctx context.Context, sessionID, status, paymentIntent string) (*PaymentTransaction, error) {
	return s.updatePayment(ctx, `stripe_session_id = $1`, sessionID, status, paymentIntent)
}

// UpdatePaymentByIntent sets the status of the transaction linked to a payment intent.
func (s *Store) UpdatePaymentByIntent(ctx context.Context, paymentIntent, status string) (*PaymentTransaction, error) {
	return s.updatePayment(ctx, `stripe_payment_intent = $1`, paymentIntent, status, "")
}

// UpdatePaymentByBooking updates the newest transaction of a booking and links the intent.
// Used when an intent event arrives before the session completion recorded the intent id.
func (s *Store) UpdatePaymentByBooking(ctx context.Context, bookingID, status, paymentIntent string) (*PaymentTransaction, error) {
	return s.updatePayment(ctx,
		`id = (SELECT id FROM payment_transactions WHERE booking_id = $1 ORDER BY created_at DESC LIMIT 1)`,
		bookingID, status, paymentIntent)
}

// updatePayment applies a guarded status change to the transaction selected by where,
// which must reference its key as $1. A transaction already in status is returned
// unchanged; one that cannot reach status yields ErrStaleTransition.
func (s *Store) updatePayment(ctx context.Context, where, key, status, paymentIntent string) (*PaymentTransaction, error) {
	from, ok := paymentTransitions[status]
	if !ok {
		return nil, fmt.Errorf("no transition into payment status %q", status)
	}

	var p PaymentTransaction
	err := s.db.GetContext(ctx, &p, `
		UPDATE payment_transactions SET
			status = $2,
			stripe_payment_intent = CASE WHEN $3 = '' THEN stripe_payment_intent ELSE $3 END,
			updated_at = NOW()
		WHERE `+where+` AND status = ANY($4)
		RETURNING `+paymentColumns,
		key, status, paymentIntent, pq.Array(from))
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update payment transaction: %w", err)
	}

	if err := s.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payment_transactions WHERE `+where, key); err != nil {
		return nil, notFound(err)
	}
	if p.Status == status {
		return &p, nil
	}
	return &p, fmt.Errorf("%w: payment %s is %s", ErrStaleTransition, p.ID, p.Status)
}
