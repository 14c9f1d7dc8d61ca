package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const bookingColumns = `id, user_id, trip_id, kind, provider_ref, description, amount, currency, status, stripe_session_id, created_at, updated_at`

func (s *Store) ListBookings(ctx context.Context, userID string) ([]Booking, error) {
	items := []Booking{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return items, nil
}

func (s *Store) CreateBooking(ctx context.Context, b *Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO bookings (id, user_id, trip_id, kind, provider_ref, description, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		b.ID, b.UserID, b.TripID, b.Kind, b.ProviderRef, b.Description, b.Amount, b.Currency, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetBooking returns a booking owned by userID.
func (s *Store) GetBooking(ctx context.Context, userID, id string) (*Booking, error) {
	var b Booking
	err := s.db.GetContext(ctx, &b,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// SetBookingSession records the checkout session created for a booking.
func (s *Store) SetBookingSession(ctx context.Context, id, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET stripe_session_id = $1, updated_at = NOW() WHERE id = $2`, sessionID, id)
	if err != nil {
		return fmt.Errorf("set booking session: %w", err)
	}
	return requireRow(res)
}

// bookingTransitions lists the statuses a booking may move from, per target status.
var bookingTransitions = map[string][]string{
	BookingConfirmed:     {BookingPending, BookingPaymentFailed},
	BookingPaymentFailed: {BookingPending},
	BookingCancelled:     {BookingPending, BookingPaymentFailed},
	BookingRefunded:      {BookingConfirmed},
}

// UpdateBookingStatus moves a booking forward. Repeating the current status is a no-op;
// any other move outside bookingTransitions returns ErrStaleTransition.
func (s *Store) UpdateBookingStatus(ctx context.Context, id, status string) error {
	from, ok := bookingTransitions[status]
	if !ok {
		return fmt.Errorf("no transition into booking status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = ANY($3)`,
		status, id, pq.Array(from))
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}

	var current string
	if err := s.db.GetContext(ctx, &current, `SELECT status FROM bookings WHERE id = $1`, id); err != nil {
		return notFound(err)
	}
	if current == status {
		return nil
	}
	return fmt.Errorf("%w: booking %s is %s", ErrStaleTransition, id, current)
}
