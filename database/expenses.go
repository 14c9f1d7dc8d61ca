package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const expenseColumns = `id, trip_id, user_id, category, description, amount, currency, spent_on, created_at`

func (s *Store) ListExpenses(ctx context.Context, userID, tripID string) ([]Expense, error) {
	items := []Expense{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE trip_id = $1 AND user_id = $2
		ORDER BY spent_on, created_at`, tripID, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return items, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO expenses (id, trip_id, user_id, category, description, amount, currency, spent_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		e.ID, e.TripID, e.UserID, e.Category, e.Description, e.Amount, e.Currency, e.SpentOn,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, userID, id string) (*Expense, error) {
	var e Expense
	err := s.db.GetContext(ctx, &e,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *Expense) error {
	err := s.db.QueryRowxContext(ctx, `
		UPDATE expenses SET category = $1, description = $2, amount = $3, currency = $4, spent_on = $5
		WHERE id = $6 AND user_id = $7
		RETURNING `+expenseColumns,
		e.Category, e.Description, e.Amount, e.Currency, e.SpentOn, e.ID, e.UserID,
	).StructScan(e)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}
