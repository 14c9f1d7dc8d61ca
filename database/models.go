package database

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Plans
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Trip statuses
const (
	TripPlanning  = "planning"
	TripBooked    = "booked"
	TripCompleted = "completed"
)

// Booking statuses
const (
	BookingPending       = "pending"
	BookingConfirmed     = "confirmed"
	BookingPaymentFailed = "payment_failed"
	BookingCancelled     = "cancelled"
	BookingRefunded      = "refunded"
)

// Payment transaction statuses
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Profile mirrors the Supabase profiles table. ID is the auth user id.
type Profile struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	AvatarURL    string    `db:"avatar_url" json:"avatar_url"`
	Plan         string    `db:"plan" json:"plan"`
	HomeCurrency string    `db:"home_currency" json:"home_currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type UserPreferences struct {
	UserID            string         `db:"user_id" json:"user_id"`
	TravelStyle       string         `db:"travel_style" json:"travel_style"`
	BudgetLevel       string         `db:"budget_level" json:"budget_level"`
	Interests         pq.StringArray `db:"interests" json:"interests"`
	Dietary           pq.StringArray `db:"dietary" json:"dietary"`
	PreferredAirlines pq.StringArray `db:"preferred_airlines" json:"preferred_airlines"`
	HomeAirport       string         `db:"home_airport" json:"home_airport"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Trip dates are stored as YYYY-MM-DD text, empty when not yet decided.
type Trip struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	Title       string          `db:"title" json:"title"`
	Destination string          `db:"destination" json:"destination"`
	StartDate   string          `db:"start_date" json:"start_date"`
	EndDate     string          `db:"end_date" json:"end_date"`
	Budget      decimal.Decimal `db:"budget" json:"budget"`
	Currency    string          `db:"currency" json:"currency"`
	Travelers   int             `db:"travelers" json:"travelers"`
	Notes       string          `db:"notes" json:"notes"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

type TripSuggestion struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	Destination   string          `db:"destination" json:"destination"`
	Country       string          `db:"country" json:"country"`
	Summary       string          `db:"summary" json:"summary"`
	EstimatedCost decimal.Decimal `db:"estimated_cost" json:"estimated_cost"`
	BestTime      string          `db:"best_time" json:"best_time"`
	Highlights    pq.StringArray  `db:"highlights" json:"highlights"`
	MatchScore    int             `db:"match_score" json:"match_score"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Itinerary stores a generated plan as jsonb.
type Itinerary struct {
	ID          string         `db:"id" json:"id"`
	TripID      string         `db:"trip_id" json:"trip_id"`
	UserID      string         `db:"user_id" json:"user_id"`
	Destination string         `db:"destination" json:"destination"`
	Content     types.JSONText `db:"content" json:"content"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

type Expense struct {
	ID          string          `db:"id" json:"id"`
	TripID      string          `db:"trip_id" json:"trip_id"`
	UserID      string          `db:"user_id" json:"user_id"`
	Category    string          `db:"category" json:"category"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Currency    string          `db:"currency" json:"currency"`
	SpentOn     string          `db:"spent_on" json:"spent_on"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type Booking struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	TripID          string          `db:"trip_id" json:"trip_id"`
	Kind            string          `db:"kind" json:"kind"`
	ProviderRef     string          `db:"provider_ref" json:"provider_ref"`
	Description     string          `db:"description" json:"description"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	Status          string          `db:"status" json:"status"`
	StripeSessionID string          `db:"stripe_session_id" json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

type PaymentTransaction struct {
	ID                  string          `db:"id" json:"id"`
	BookingID           string          `db:"booking_id" json:"booking_id"`
	UserID              string          `db:"user_id" json:"user_id"`
	StripeSessionID     string          `db:"stripe_session_id" json:"stripe_session_id"`
	StripePaymentIntent string          `db:"stripe_payment_intent" json:"stripe_payment_intent,omitempty"`
	Amount              decimal.Decimal `db:"amount" json:"amount"`
	Currency            string          `db:"currency" json:"currency"`
	Status              string          `db:"status" json:"status"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// PriceWatch tracks a route until its cheapest fare drops to TargetPrice.
type PriceWatch struct {
	ID            string              `db:"id" json:"id"`
	UserID        string              `db:"user_id" json:"user_id"`
	Origin        string              `db:"origin" json:"origin"`
	Destination   string              `db:"destination" json:"destination"`
	DepartureDate string              `db:"departure_date" json:"departure_date"`
	ReturnDate    string              `db:"return_date" json:"return_date,omitempty"`
	TargetPrice   decimal.Decimal     `db:"target_price" json:"target_price"`
	Currency      string              `db:"currency" json:"currency"`
	LastPrice     decimal.NullDecimal `db:"last_price" json:"last_price"`
	TriggeredAt   *time.Time          `db:"triggered_at" json:"triggered_at"`
	LastCheckedAt *time.Time          `db:"last_checked_at" json:"last_checked_at"`
	Active        bool                `db:"active" json:"active"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
}
