package database

import (
	"context"
	"fmt"
)

const preferenceColumns = `user_id, travel_style, budget_level, interests, dietary, preferred_airlines, home_airport, updated_at`

func (s *Store) GetPreferences(ctx context.Context, userID string) (*UserPreferences, error) {
	var p UserPreferences
	err := s.db.GetContext(ctx, &p, `SELECT `+preferenceColumns+` FROM user_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// UpsertPreferences inserts or replaces the caller's preferences.
func (s *Store) UpsertPreferences(ctx context.Context, p *UserPreferences) error {
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if p.Dietary == nil {
		p.Dietary = []string{}
	}
	if p.PreferredAirlines == nil {
		p.PreferredAirlines = []string{}
	}

	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO user_preferences (user_id, travel_style, budget_level, interests, dietary, preferred_airlines, home_airport)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			travel_style = EXCLUDED.travel_style,
			budget_level = EXCLUDED.budget_level,
			interests = EXCLUDED.interests,
			dietary = EXCLUDED.dietary,
			preferred_airlines = EXCLUDED.preferred_airlines,
			home_airport = EXCLUDED.home_airport,
			updated_at = NOW()
		RETURNING `+preferenceColumns,
		p.UserID, p.TravelStyle, p.BudgetLevel, p.Interests, p.Dietary, p.PreferredAirlines, p.HomeAirport,
	).StructScan(p)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}
