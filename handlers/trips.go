package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripplanner/database"
	"tripplanner/logger"
)

type TripRequest struct {
	Title       string          `json:"title" binding:"required,max=200"`
	Destination string          `json:"destination" binding:"required,max=100"`
	StartDate   string          `json:"start_date" binding:"omitempty,isodate"`
	EndDate     string          `json:"end_date" binding:"omitempty,isodate"`
	Budget      decimal.Decimal `json:"budget"`
	Currency    string          `json:"currency" binding:"omitempty,currency"`
	Travelers   int             `json:"travelers" binding:"omitempty,min=1,max=20"`
	Notes       string          `json:"notes" binding:"max=2000"`
	Status      string          `json:"status" binding:"omitempty,oneof=planning booked completed"`
}

// bind reads and checks a trip body, answering 400 itself when it returns false.
func (r *TripRequest) bind(c *gin.Context) bool {
	if err := c.ShouldBindJSON(r); err != nil {
		ValidationFailed(c, err)
		return false
	}
	if r.Budget.IsNegative() {
		invalidField(c, "budget", "Must be greater than or equal to 0")
		return false
	}
	if r.StartDate != "" && r.EndDate != "" && !validDates(c, r.StartDate, r.EndDate, "end_date") {
		return false
	}
	return true
}

func (r *TripRequest) apply(t *database.Trip) {
	t.Title = strings.TrimSpace(r.Title)
	t.Destination = strings.TrimSpace(r.Destination)
	t.StartDate = r.StartDate
	t.EndDate = r.EndDate
	t.Budget = r.Budget.Round(2)
	t.Currency = strings.ToUpper(orDefault(r.Currency, "USD"))
	t.Travelers = max(1, r.Travelers)
	t.Notes = r.Notes
	if r.Status != "" {
		t.Status = r.Status
	}
}

func (h *Handler) ListTrips(c *gin.Context) {
	trips, err := h.Store.ListTrips(c.Request.Context(), user(c).ID)
	if err != nil {
		storeError(c, err, "trips")
		return
	}
	OK(c, trips)
}

// CreateTrip saves a trip. Free-plan users are capped at FreeTripLimit trips.
func (h *Handler) CreateTrip(c *gin.Context) {
	var req TripRequest
	if !req.bind(c) {
		return
	}

	ctx := c.Request.Context()
	u := user(c)
	profile, err := h.Store.EnsureProfile(ctx, u.ID, u.Email)
	if err != nil {
		storeError(c, err, "profile")
		return
	}

	limit := 0
	if profile.Plan != database.PlanPremium {
		limit = h.FreeTripLimit
	}
	if limit > 0 {
		n, err := h.Store.CountTrips(ctx, u.ID)
		if err != nil {
			storeError(c, err, "trips")
			return
		}
		if n >= limit {
			h.tripLimitReached(c, limit)
			return
		}
	}

	trip := &database.Trip{UserID: u.ID}
	req.apply(trip)
	if err := h.Store.CreateTrip(ctx, trip, limit); err != nil {
		if errors.Is(err, database.ErrLimitReached) {
			h.tripLimitReached(c, limit)
			return
		}
		storeError(c, err, "trip")
		return
	}
	Created(c, trip)
}

func (h *Handler) tripLimitReached(c *gin.Context, limit int) {
	logger.FromContext(c).Info("trip limit reached", zap.Int("limit", limit))
	Fail(c, http.StatusTooManyRequests, "free plan trip limit reached, upgrade to premium to save more trips")
}

func (h *Handler) GetTrip(c *gin.Context) {
	trip, err := h.Store.GetTrip(c.Request.Context(), user(c).ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "trip")
		return
	}
	OK(c, trip)
}

func (h *Handler) UpdateTrip(c *gin.Context) {
	var req TripRequest
	if !req.bind(c) {
		return
	}

	ctx := c.Request.Context()
	trip, err := h.Store.GetTrip(ctx, user(c).ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "trip")
		return
	}
	req.apply(trip)
	if err := h.Store.UpdateTrip(ctx, trip); err != nil {
		storeError(c, err, "trip")
		return
	}
	OK(c, trip)
}

func (h *Handler) DeleteTrip(c *gin.Context) {
	if err := h.Store.DeleteTrip(c.Request.Context(), user(c).ID, c.Param("id")); err != nil {
		storeError(c, err, "trip")
		return
	}
	OK(c, gin.H{"deleted": true})
}
