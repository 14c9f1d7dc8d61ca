package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx/types"

	"tripplanner/database"
	"tripplanner/services"
)

// TripItineraryRequest optionally carries a plan the client already generated.
// Without one the plan is generated from the trip.
type TripItineraryRequest struct {
	Plan        *services.ItineraryPlan `json:"plan"`
	Interests   []string                `json:"interests" binding:"max=10,dive,max=50"`
	BudgetLevel string                  `json:"budget_level" binding:"omitempty,oneof=budget moderate luxury"`
}

type tripItineraryResponse struct {
	Itinerary *database.Itinerary     `json:"itinerary"`
	Plan      *services.ItineraryPlan `json:"plan"`
}

func (h *Handler) SaveTripItinerary(c *gin.Context) {
	var req TripItineraryRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			ValidationFailed(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	u := user(c)
	trip, err := h.Store.GetTrip(ctx, u.ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "trip")
		return
	}

	plan, source, warning := req.Plan, services.SourceLive, ""
	if plan == nil {
		plan, source, warning = h.planItinerary(c, services.ItineraryRequest{
			Destination: trip.Destination,
			Days:        tripDays(trip.StartDate, trip.EndDate),
			StartDate:   trip.StartDate,
			Interests:   req.Interests,
			BudgetLevel: orDefault(req.BudgetLevel, "moderate"),
			Travelers:   max(1, trip.Travelers),
		})
	}

	content, err := json.Marshal(plan)
	if err != nil {
		Fail(c, http.StatusInternalServerError, "failed to encode itinerary")
		return
	}
	it := &database.Itinerary{
		TripID:      trip.ID,
		UserID:      u.ID,
		Destination: trip.Destination,
		Content:     types.JSONText(content),
	}
	if err := h.Store.SaveItinerary(ctx, it); err != nil {
		storeError(c, err, "itinerary")
		return
	}

	c.JSON(http.StatusCreated, Response{
		OK:      true,
		Data:    tripItineraryResponse{Itinerary: it, Plan: plan},
		Source:  source,
		Warning: warning,
	})
}

func (h *Handler) GetTripItinerary(c *gin.Context) {
	it, err := h.Store.LatestItinerary(c.Request.Context(), user(c).ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "itinerary")
		return
	}
	OK(c, it)
}

// tripDays counts calendar days from start to end inclusive, clamped to 1..14.
// Unknown dates default to a three day plan.
func tripDays(start, end string) int {
	s, err1 := time.Parse(time.DateOnly, start)
	e, err2 := time.Parse(time.DateOnly, end)
	if err1 != nil || err2 != nil || e.Before(s) {
		return 3
	}
	return min(14, int(e.Sub(s).Hours()/24)+1)
}
