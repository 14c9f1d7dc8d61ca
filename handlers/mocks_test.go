package handlers

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"tripplanner/database"
	"tripplanner/services"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) EnsureProfile(ctx context.Context, userID, email string) (*database.Profile, error) {
	args := m.Called(ctx, userID, email)
	p, _ := args.Get(0).(*database.Profile)
	return p, args.Error(1)
}

func (m *mockStore) UpdateProfile(ctx context.Context, p *database.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) GetPreferences(ctx context.Context, userID string) (*database.UserPreferences, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*database.UserPreferences)
	return p, args.Error(1)
}

func (m *mockStore) UpsertPreferences(ctx context.Context, p *database.UserPreferences) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) ListTrips(ctx context.Context, userID string) ([]database.Trip, error) {
	args := m.Called(ctx, userID)
	trips, _ := args.Get(0).([]database.Trip)
	return trips, args.Error(1)
}

func (m *mockStore) CountTrips(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CreateTrip(ctx context.Context, t *database.Trip, limit int) error {
	return m.Called(ctx, t, limit).Error(0)
}

func (m *mockStore) GetTrip(ctx context.Context, userID, id string) (*database.Trip, error) {
	args := m.Called(ctx, userID, id)
	t, _ := args.Get(0).(*database.Trip)
	return t, args.Error(1)
}

func (m *mockStore) UpdateTrip(ctx context.Context, t *database.Trip) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockStore) DeleteTrip(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockStore) SaveItinerary(ctx context.Context, it *database.Itinerary) error {
	return m.Called(ctx, it).Error(0)
}

func (m *mockStore) LatestItinerary(ctx context.Context, userID, tripID string) (*database.Itinerary, error) {
	args := m.Called(ctx, userID, tripID)
	it, _ := args.Get(0).(*database.Itinerary)
	return it, args.Error(1)
}

func (m *mockStore) SaveSuggestions(ctx context.Context, userID string, items []database.TripSuggestion) error {
	return m.Called(ctx, userID, items).Error(0)
}

func (m *mockStore) ListSuggestions(ctx context.Context, userID string, limit int) ([]database.TripSuggestion, error) {
	args := m.Called(ctx, userID, limit)
	items, _ := args.Get(0).([]database.TripSuggestion)
	return items, args.Error(1)
}

func (m *mockStore) ListExpenses(ctx context.Context, userID, tripID string) ([]database.Expense, error) {
	args := m.Called(ctx, userID, tripID)
	items, _ := args.Get(0).([]database.Expense)
	return items, args.Error(1)
}

func (m *mockStore) CreateExpense(ctx context.Context, e *database.Expense) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockStore) GetExpense(ctx context.Context, userID, id string) (*database.Expense, error) {
	args := m.Called(ctx, userID, id)
	e, _ := args.Get(0).(*database.Expense)
	return e, args.Error(1)
}

func (m *mockStore) UpdateExpense(ctx context.Context, e *database.Expense) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockStore) DeleteExpense(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockStore) ListBookings(ctx context.Context, userID string) ([]database.Booking, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]database.Booking)
	return items, args.Error(1)
}

func (m *mockStore) CreateBooking(ctx context.Context, b *database.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockStore) GetBooking(ctx context.Context, userID, id string) (*database.Booking, error) {
	args := m.Called(ctx, userID, id)
	b, _ := args.Get(0).(*database.Booking)
	return b, args.Error(1)
}

func (m *mockStore) ListPaymentTransactions(ctx context.Context, userID string) ([]database.PaymentTransaction, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]database.PaymentTransaction)
	return items, args.Error(1)
}

func (m *mockStore) CreatePriceWatch(ctx context.Context, w *database.PriceWatch) error {
	return m.Called(ctx, w).Error(0)
}

func (m *mockStore) ListPriceWatches(ctx context.Context, userID string) ([]database.PriceWatch, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]database.PriceWatch)
	return items, args.Error(1)
}

func (m *mockStore) GetPriceWatch(ctx context.Context, userID, id string) (*database.PriceWatch, error) {
	args := m.Called(ctx, userID, id)
	w, _ := args.Get(0).(*database.PriceWatch)
	return w, args.Error(1)
}

func (m *mockStore) DeletePriceWatch(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

// Payment writes, so the real Payments service can run against the same mock.

func (m *mockStore) SetBookingSession(ctx context.Context, id, sessionID string) error {
	return m.Called(ctx, id, sessionID).Error(0)
}

func (m *mockStore) UpdateBookingStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockStore) CreatePaymentTransaction(ctx context.Context, p *database.PaymentTransaction) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) UpdatePaymentBySession(ctx context.Context, sessionID, status, paymentIntent string) (*database.PaymentTransaction, error) {
	args := m.Called(ctx, sessionID, status, paymentIntent)
	p, _ := args.Get(0).(*database.PaymentTransaction)
	return p, args.Error(1)
}

func (m *mockStore) UpdatePaymentByIntent(ctx context.Context, paymentIntent, status string) (*database.PaymentTransaction, error) {
	args := m.Called(ctx, paymentIntent, status)
	p, _ := args.Get(0).(*database.PaymentTransaction)
	return p, args.Error(1)
}

func (m *mockStore) UpdatePaymentByBooking(ctx context.Context, bookingID, status, paymentIntent string) (*database.PaymentTransaction, error) {
	args := m.Called(ctx, bookingID, status, paymentIntent)
	p, _ := args.Get(0).(*database.PaymentTransaction)
	return p, args.Error(1)
}

type staticVerifier map[string]*services.AuthUser

func (v staticVerifier) VerifyToken(_ context.Context, token string) (*services.AuthUser, error) {
	if u, ok := v[token]; ok {
		return u, nil
	}
	return nil, services.ErrUnauthorized
}

// fakeAI answers with canned results, or err for every call when set.
type fakeAI struct {
	err         error
	suggestions []services.TripSuggestion
	plan        *services.ItineraryPlan
	tour        *services.WalkingTour
}

func (f *fakeAI) SuggestTrips(context.Context, services.TripPreferences) ([]services.TripSuggestion, error) {
	return f.suggestions, f.err
}

func (f *fakeAI) GenerateItinerary(context.Context, services.ItineraryRequest) (*services.ItineraryPlan, error) {
	return f.plan, f.err
}

func (f *fakeAI) TranslatePhrases(context.Context, string, []string) ([]services.Phrase, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []services.Phrase{{Category: "greetings", English: "Hello", Translation: "Sawubona"}}, nil
}

func (f *fakeAI) WalkingTour(context.Context, services.WalkingTourRequest) (*services.WalkingTour, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tour, nil
}

type fakeTravel struct {
	flights []services.Flight
	source  string
	lastQ   services.FlightQuery
	calls   int
}

func (f *fakeTravel) Flights(_ context.Context, q services.FlightQuery) ([]services.Flight, string) {
	f.calls++
	f.lastQ = q
	return f.flights, f.source
}

func (f *fakeTravel) Hotels(context.Context, services.HotelQuery) ([]services.Hotel, string) {
	f.calls++
	return []services.Hotel{}, f.source
}

func (f *fakeTravel) Locations(context.Context, string) ([]services.Location, string) {
	f.calls++
	return []services.Location{}, f.source
}

type fakeAmadeusRaw struct {
	err error
}

func (f fakeAmadeusRaw) Raw(context.Context, string, url.Values) (json.RawMessage, error) {
	return json.RawMessage(`{"data":[]}`), f.err
}

type fakeCurrency struct{}

func (fakeCurrency) Convert(_ context.Context, from, to string, amount decimal.Decimal) (*services.Conversion, string, error) {
	if to == "XXX" {
		return nil, "", services.ErrUnknownCurrency
	}
	rate := decimal.RequireFromString("0.9")
	return &services.Conversion{From: from, To: to, Amount: amount, Rate: rate, Result: amount.Mul(rate).Round(2)}, services.SourceLive, nil
}
