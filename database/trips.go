package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const tripColumns = `id, user_id, title, destination, start_date, end_date, budget, currency, travelers, notes, status, created_at, updated_at`

func (s *Store) ListTrips(ctx context.Context, userID string) ([]Trip, error) {
	trips := []Trip{}
	err := s.db.SelectContext(ctx, &trips,
		`SELECT `+tripColumns+` FROM trips WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

func (s *Store) CountTrips(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM trips WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count trips: %w", err)
	}
	return n, nil
}

// CreateTrip inserts a trip. When limit > 0 the insert only happens while the
// user owns fewer than limit trips; otherwise ErrLimitReached is returned.
// The per-user advisory lock serialises concurrent creates for the same user.
func (s *Store) CreateTrip(ctx context.Context, t *Trip, limit int) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TripPlanning
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if limit > 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, t.UserID); err != nil {
			return fmt.Errorf("lock user trips: %w", err)
		}
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM trips WHERE user_id = $1`, t.UserID); err != nil {
			return fmt.Errorf("count trips: %w", err)
		}
		if n >= limit {
			return ErrLimitReached
		}
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO trips (id, user_id, title, destination, start_date, end_date, budget, currency, travelers, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		t.ID, t.UserID, t.Title, t.Destination, t.StartDate, t.EndDate,
		t.Budget, t.Currency, t.Travelers, t.Notes, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}

	return tx.Commit()
}

// GetTrip returns a trip owned by userID.
func (s *Store) GetTrip(ctx context.Context, userID, id string) (*Trip, error) {
	var t Trip
	err := s.db.GetContext(ctx, &t,
		`SELECT `+tripColumns+` FROM trips WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Store) UpdateTrip(ctx context.Context, t *Trip) error {
	err := s.db.QueryRowxContext(ctx, `
		UPDATE trips SET
			title = $1, destination = $2, start_date = $3, end_date = $4, budget = $5,
			currency = $6, travelers = $7, notes = $8, status = $9, updated_at = NOW()
		WHERE id = $10 AND user_id = $11
		RETURNING `+tripColumns,
		t.Title, t.Destination, t.StartDate, t.EndDate, t.Budget,
		t.Currency, t.Travelers, t.Notes, t.Status, t.ID, t.UserID,
	).StructScan(t)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func (s *Store) DeleteTrip(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trips WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	return requireRow(res)
}
