package database

import (
	"context"
	"fmt"
	"strings"
)

const profileColumns = `id, email, full_name, avatar_url, plan, home_currency, created_at, updated_at`

// GetProfile returns the profile for an auth user.
func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := s.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// EnsureProfile returns the user's profile, creating a free one on first access.
// An existing row keeps its data; only an empty email is backfilled.
func (s *Store) EnsureProfile(ctx context.Context, userID, email string) (*Profile, error) {
	var p Profile
	err := s.db.GetContext(ctx, &p, `
		INSERT INTO profiles (id, email, plan)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
			SET email = CASE WHEN profiles.email = '' THEN EXCLUDED.email ELSE profiles.email END
		RETURNING `+profileColumns,
		userID, email, PlanFree)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile saves the user-editable fields. Plan changes go through billing, not here.
func (s *Store) UpdateProfile(ctx context.Context, p *Profile) error {
	p.HomeCurrency = strings.ToUpper(p.HomeCurrency)
	err := s.db.QueryRowxContext(ctx, `
		UPDATE profiles
		SET full_name = $1, avatar_url = $2, home_currency = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING `+profileColumns,
		p.FullName, p.AvatarURL, p.HomeCurrency, p.ID).StructScan(p)
	if err != nil {
		return notFound(err)
	}
	return nil
}
