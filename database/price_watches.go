package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const priceWatchColumns = `id, user_id, origin, destination, departure_date, return_date, target_price, currency, last_price, triggered_at, last_checked_at, active, created_at`

func (s *Store) CreatePriceWatch(ctx context.Context, w *PriceWatch) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.Active = true
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO price_watches (id, user_id, origin, destination, departure_date, return_date, target_price, currency, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		w.ID, w.UserID, w.Origin, w.Destination, w.DepartureDate, w.ReturnDate, w.TargetPrice, w.Currency, w.Active,
	).Scan(&w.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert price watch: %w", err)
	}
	return nil
}

func (s *Store) ListPriceWatches(ctx context.Context, userID string) ([]PriceWatch, error) {
	items := []PriceWatch{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+priceWatchColumns+` FROM price_watches WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list price watches: %w", err)
	}
	return items, nil
}

func (s *Store) GetPriceWatch(ctx context.Context, userID, id string) (*PriceWatch, error) {
	var w PriceWatch
	err := s.db.GetContext(ctx, &w,
		`SELECT `+priceWatchColumns+` FROM price_watches WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &w, nil
}

func (s *Store) DeletePriceWatch(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_watches WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete price watch: %w", err)
	}
	return requireRow(res)
}

// ListActivePriceWatches returns up to limit active watches, least recently checked first,
// so successive batches rotate through every watch.
func (s *Store) ListActivePriceWatches(ctx context.Context, limit int) ([]PriceWatch, error) {
	items := []PriceWatch{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT `+priceWatchColumns+` FROM price_watches
		WHERE active
		ORDER BY last_checked_at NULLS FIRST, created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list active price watches: %w", err)
	}
	return items, nil
}

// RecordPriceCheck stores the latest observed price. A triggered watch is deactivated.
func (s *Store) RecordPriceCheck(ctx context.Context, id string, price decimal.Decimal, triggered bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE price_watches SET
			last_price = $1,
			last_checked_at = NOW(),
			triggered_at = CASE WHEN $2 THEN NOW() ELSE triggered_at END,
			active = active AND NOT $2
		WHERE id = $3`,
		price, triggered, id)
	if err != nil {
		return fmt.Errorf("record price check: %w", err)
	}
	return requireRow(res)
}

// TouchPriceWatch marks a watch as checked without a usable price, keeping last_price.
func (s *Store) TouchPriceWatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE price_watches SET last_checked_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch price watch: %w", err)
	}
	return requireRow(res)
}

// ExpirePriceWatches deactivates active watches departing before today (YYYY-MM-DD).
func (s *Store) ExpirePriceWatches(ctx context.Context, today string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE price_watches SET active = FALSE WHERE active AND departure_date < $1`, today)
	if err != nil {
		return 0, fmt.Errorf("expire price watches: %w", err)
	}
	return res.RowsAffected()
}
