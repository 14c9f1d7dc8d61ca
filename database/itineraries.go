package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const itineraryColumns = `id, trip_id, user_id, destination, content, created_at`

func (s *Store) SaveItinerary(ctx context.Context, it *Itinerary) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO itineraries (id, trip_id, user_id, destination, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		it.ID, it.TripID, it.UserID, it.Destination, it.Content,
	).Scan(&it.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert itinerary: %w", err)
	}
	return nil
}

// LatestItinerary returns the most recently stored plan for a trip.
func (s *Store) LatestItinerary(ctx context.Context, userID, tripID string) (*Itinerary, error) {
	var it Itinerary
	err := s.db.GetContext(ctx, &it, `
		SELECT `+itineraryColumns+` FROM itineraries
		WHERE trip_id = $1 AND user_id = $2
		ORDER BY created_at DESC LIMIT 1`, tripID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}
