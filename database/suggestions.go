package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const suggestionColumns = `id, user_id, destination, country, summary, estimated_cost, best_time, highlights, match_score, created_at`

// SaveSuggestions stores a batch of suggestions in one transaction.
func (s *Store) SaveSuggestions(ctx context.Context, userID string, items []TripSuggestion) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.UserID = userID
		if item.Highlights == nil {
			item.Highlights = []string{}
		}
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO trip_suggestions (id, user_id, destination, country, summary, estimated_cost, best_time, highlights, match_score)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at`,
			item.ID, item.UserID, item.Destination, item.Country, item.Summary,
			item.EstimatedCost, item.BestTime, item.Highlights, item.MatchScore,
		).Scan(&item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert suggestion: %w", err)
		}
	}

	return tx.Commit()
}

// ListSuggestions returns the newest saved suggestions first.
func (s *Store) ListSuggestions(ctx context.Context, userID string, limit int) ([]TripSuggestion, error) {
	if limit <= 0 {
		limit = 50
	}
	items := []TripSuggestion{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+suggestionColumns+` FROM trip_suggestions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	return items, nil
}
