package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewStore(sqlx.NewDb(mockDB, "postgres")), mock
}

func tripRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "title", "destination", "start_date", "end_date", "budget",
		"currency", "travelers", "notes", "status", "created_at", "updated_at",
	}).AddRow("trip-1", "user-1", "Lisbon weekend", "Lisbon", "2026-05-01", "2026-05-04", "1200.00",
		"EUR", 2, "", TripPlanning, now, now)
}

func TestStore_CreateTrip_LimitReached(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM trips WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	trip := &Trip{UserID: "user-1", Title: "Fourth", Destination: "Rome"}
	err := store.CreateTrip(context.Background(), trip, 3)

	assert.ErrorIs(t, err, ErrLimitReached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateTrip_UnderLimit(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM trips`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(sqlmock.AnyArg(), "user-1", "Third", "Rome", "", "", sqlmock.AnyArg(), "EUR", 1, "", TripPlanning).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	trip := &Trip{UserID: "user-1", Title: "Third", Destination: "Rome", Currency: "EUR", Travelers: 1}
	require.NoError(t, store.CreateTrip(context.Background(), trip, 3))

	assert.NotEmpty(t, trip.ID)
	assert.Equal(t, TripPlanning, trip.Status)
	assert.Equal(t, now, trip.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateTrip_Unlimited(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO trips`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	trip := &Trip{UserID: "user-1", Title: "Tenth", Destination: "Oslo"}
	require.NoError(t, store.CreateTrip(context.Background(), trip, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetTrip(t *testing.T) {
	t.Run("scoped by owner", func(t *testing.T) {
		store, mock := newMockStore(t)
		now := time.Now()

		mock.ExpectQuery(`SELECT .+ FROM trips WHERE id = \$1 AND user_id = \$2`).
			WithArgs("trip-1", "user-1").
			WillReturnRows(tripRow(now))

		trip, err := store.GetTrip(context.Background(), "user-1", "trip-1")
		require.NoError(t, err)
		assert.Equal(t, "Lisbon", trip.Destination)
		assert.True(t, decimal.RequireFromString("1200").Equal(trip.Budget))
	})

	t.Run("foreign trip is not found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(`SELECT .+ FROM trips`).
			WithArgs("trip-1", "user-2").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.GetTrip(context.Background(), "user-2", "trip-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_DeleteTrip_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM trips WHERE id = $1 AND user_id = $2`)).
		WithArgs("trip-9", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteTrip(context.Background(), "user-1", "trip-9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EnsureProfile(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO profiles .+ ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("user-1", "ana@example.com", PlanFree).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "full_name", "avatar_url", "plan", "home_currency", "created_at", "updated_at",
		}).AddRow("user-1", "ana@example.com", "", "", PlanFree, "USD", now, now))

	p, err := store.EnsureProfile(context.Background(), "user-1", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, PlanFree, p.Plan)
	assert.Equal(t, "USD", p.HomeCurrency)
}

func TestStore_UpsertPreferences(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO user_preferences .+ ON CONFLICT \(user_id\) DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "travel_style", "budget_level", "interests", "dietary", "preferred_airlines", "home_airport", "updated_at",
		}).AddRow("user-1", "slow", "budget", "{food,hiking}", "{}", "{}", "LIS", now))

	prefs := &UserPreferences{UserID: "user-1", TravelStyle: "slow", BudgetLevel: "budget", Interests: []string{"food", "hiking"}}
	require.NoError(t, store.UpsertPreferences(context.Background(), prefs))
	assert.Equal(t, []string{"food", "hiking"}, []string(prefs.Interests))
	assert.Equal(t, "LIS", prefs.HomeAirport)
	assert.NotNil(t, prefs.Dietary)
}

func TestStore_SaveSuggestions(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO trip_suggestions`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery(`INSERT INTO trip_suggestions`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectCommit()

	items := []TripSuggestion{{Destination: "Porto"}, {Destination: "Seville"}}
	require.NoError(t, store.SaveSuggestions(context.Background(), "user-1", items))

	for _, item := range items {
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "user-1", item.UserID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveSuggestions_Empty(t *testing.T) {
	store, mock := newMockStore(t)
	require.NoError(t, store.SaveSuggestions(context.Background(), "user-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var paymentRowColumns = []string{
	"id", "booking_id", "user_id", "stripe_session_id", "stripe_payment_intent",
	"amount", "currency", "status", "created_at", "updated_at",
}

func TestStore_UpdatePaymentBySession(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE payment_transactions SET .+ WHERE stripe_session_id = \$1 AND status = ANY\(\$4\)`).
		WithArgs("cs_test_1", PaymentSucceeded, "pi_123", pq.Array([]string{PaymentPending, PaymentFailed})).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns).
			AddRow("tx-1", "booking-1", "user-1", "cs_test_1", "pi_123", "450.00", "USD", PaymentSucceeded, now, now))

	tx, err := store.UpdatePaymentBySession(context.Background(), "cs_test_1", PaymentSucceeded, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "booking-1", tx.BookingID)
	assert.Equal(t, PaymentSucceeded, tx.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdatePaymentByIntent_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE payment_transactions`).
		WithArgs("pi_missing", PaymentRefunded, "", pq.Array([]string{PaymentSucceeded})).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns))
	mock.ExpectQuery(`SELECT .+ FROM payment_transactions WHERE stripe_payment_intent = \$1`).
		WithArgs("pi_missing").
		WillReturnRows(sqlmock.NewRows(paymentRowColumns))

	_, err := store.UpdatePaymentByIntent(context.Background(), "pi_missing", PaymentRefunded)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdatePaymentByIntent_LateFailureKeepsSuccess(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE payment_transactions`).
		WithArgs("pi_123", PaymentFailed, "", pq.Array([]string{PaymentPending})).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns))
	mock.ExpectQuery(`SELECT .+ FROM payment_transactions WHERE stripe_payment_intent = \$1`).
		WithArgs("pi_123").
		WillReturnRows(sqlmock.NewRows(paymentRowColumns).
			AddRow("tx-1", "booking-1", "user-1", "cs_test_1", "pi_123", "450.00", "USD", PaymentSucceeded, now, now))

	tx, err := store.UpdatePaymentByIntent(context.Background(), "pi_123", PaymentFailed)
	assert.ErrorIs(t, err, ErrStaleTransition)
	require.NotNil(t, tx)
	assert.Equal(t, PaymentSucceeded, tx.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdatePaymentByIntent_Redelivered(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE payment_transactions`).
		WithArgs("pi_123", PaymentSucceeded, "", pq.Array([]string{PaymentPending, PaymentFailed})).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns))
	mock.ExpectQuery(`SELECT .+ FROM payment_transactions`).
		WithArgs("pi_123").
		WillReturnRows(sqlmock.NewRows(paymentRowColumns).
			AddRow("tx-1", "booking-1", "user-1", "cs_test_1", "pi_123", "450.00", "USD", PaymentSucceeded, now, now))

	tx, err := store.UpdatePaymentByIntent(context.Background(), "pi_123", PaymentSucceeded)
	require.NoError(t, err)
	assert.Equal(t, "booking-1", tx.BookingID)
}

func TestStore_ListActivePriceWatches(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	checked := now.Add(-time.Hour)

	mock.ExpectQuery(`SELECT .+ FROM price_watches\s+WHERE active\s+ORDER BY last_checked_at NULLS FIRST, created_at\s+LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "origin", "destination", "departure_date", "return_date",
			"target_price", "currency", "last_price", "triggered_at", "last_checked_at", "active", "created_at",
		}).
			AddRow("watch-1", "user-1", "JFK", "LIS", "2026-06-01", "", "400.00", "USD", nil, nil, nil, true, now).
			AddRow("watch-2", "user-1", "JFK", "OPO", "2026-06-01", "", "300.00", "USD", "350.00", nil, checked, true, now))

	watches, err := store.ListActivePriceWatches(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, watches, 2)
	assert.False(t, watches[0].LastPrice.Valid)
	assert.Nil(t, watches[0].TriggeredAt)
	assert.Nil(t, watches[0].LastCheckedAt)
	assert.True(t, watches[0].Active)
	require.NotNil(t, watches[1].LastCheckedAt)
	assert.True(t, checked.Equal(*watches[1].LastCheckedAt))
}

func TestStore_RecordPriceCheck(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE price_watches SET\s+last_price = \$1,\s+last_checked_at = NOW\(\)`).
		WithArgs(sqlmock.AnyArg(), true, "watch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.RecordPriceCheck(context.Background(), "watch-1", decimal.NewFromInt(380), true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TouchPriceWatch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE price_watches SET last_checked_at = NOW\(\) WHERE id = \$1`).
		WithArgs("watch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE price_watches SET last_checked_at`).
		WithArgs("watch-gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.TouchPriceWatch(context.Background(), "watch-1"))
	assert.ErrorIs(t, store.TouchPriceWatch(context.Background(), "watch-gone"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ExpirePriceWatches(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE price_watches SET active = FALSE WHERE active AND departure_date < \$1`).
		WithArgs("2026-10-14").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.ExpirePriceWatches(context.Background(), "2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateBookingStatus_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE bookings SET status = \$1, updated_at = NOW\(\) WHERE id = \$2 AND status = ANY\(\$3\)`).
		WithArgs(BookingConfirmed, "booking-x", pq.Array([]string{BookingPending, BookingPaymentFailed})).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM bookings WHERE id = \$1`).
		WithArgs("booking-x").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := store.UpdateBookingStatus(context.Background(), "booking-x", BookingConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		current string
		wantErr error
	}{
		{name: "late failure after confirm", status: BookingPaymentFailed, current: BookingConfirmed, wantErr: ErrStaleTransition},
		{name: "late expiry after confirm", status: BookingCancelled, current: BookingConfirmed, wantErr: ErrStaleTransition},
		{name: "refund of a pending booking", status: BookingRefunded, current: BookingPending, wantErr: ErrStaleTransition},
		{name: "redelivered confirm", status: BookingConfirmed, current: BookingConfirmed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)

			mock.ExpectExec(`UPDATE bookings SET status`).
				WithArgs(tt.status, "booking-1", pq.Array(bookingTransitions[tt.status])).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`SELECT status FROM bookings`).
				WithArgs("booking-1").
				WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(tt.current))

			err := store.UpdateBookingStatus(context.Background(), "booking-1", tt.status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_UpdateBookingStatus_Applied(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(BookingRefunded, "booking-1", pq.Array([]string{BookingConfirmed})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateBookingStatus(context.Background(), "booking-1", BookingRefunded))
	require.NoError(t, mock.ExpectationsWereMet())
}
