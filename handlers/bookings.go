package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tripplanner/database"
)

type BookingRequest struct {
	TripID      string          `json:"trip_id" binding:"required"`
	Kind        string          `json:"kind" binding:"required,oneof=flight hotel package"`
	ProviderRef string          `json:"provider_ref" binding:"max=200"`
	Description string          `json:"description" binding:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" binding:"omitempty,currency"`
}

func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.Store.ListBookings(c.Request.Context(), user(c).ID)
	if err != nil {
		storeError(c, err, "bookings")
		return
	}
	OK(c, bookings)
}

// CreateBooking records a pending booking against one of the caller's trips.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}
	if !req.Amount.IsPositive() {
		invalidField(c, "amount", "Must be greater than 0")
		return
	}

	ctx := c.Request.Context()
	u := user(c)
	trip, err := h.Store.GetTrip(ctx, u.ID, req.TripID)
	if err != nil {
		storeError(c, err, "trip")
		return
	}

	b := &database.Booking{
		UserID:      u.ID,
		TripID:      trip.ID,
		Kind:        req.Kind,
		ProviderRef: strings.TrimSpace(req.ProviderRef),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount.Round(2),
		Currency:    strings.ToUpper(orDefault(req.Currency, trip.Currency)),
		Status:      database.BookingPending,
	}
	if err := h.Store.CreateBooking(ctx, b); err != nil {
		storeError(c, err, "booking")
		return
	}
	Created(c, b)
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.Store.GetBooking(c.Request.Context(), user(c).ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "booking")
		return
	}
	OK(c, b)
}
