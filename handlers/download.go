package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripplanner/database"
	"tripplanner/logger"
	"tripplanner/services"
)

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// DownloadItineraryPDF renders the trip's latest itinerary as a PDF attachment.
func (h *Handler) DownloadItineraryPDF(c *gin.Context) {
	ctx := c.Request.Context()
	u := user(c)

	trip, err := h.Store.GetTrip(ctx, u.ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "trip")
		return
	}
	it, err := h.Store.LatestItinerary(ctx, u.ID, trip.ID)
	if errors.Is(err, database.ErrNotFound) {
		Fail(c, http.StatusNotFound, "no itinerary has been generated for this trip")
		return
	}
	if err != nil {
		storeError(c, err, "itinerary")
		return
	}

	var plan services.ItineraryPlan
	if err := json.Unmarshal(it.Content, &plan); err != nil {
		logger.FromContext(c).Error("stored itinerary is not a plan", zap.String("itinerary_id", it.ID), zap.Error(err))
		Fail(c, http.StatusInternalServerError, "failed to read itinerary")
		return
	}

	traveler := u.Email
	if profile, err := h.Store.EnsureProfile(ctx, u.ID, u.Email); err == nil && profile.FullName != "" {
		traveler = profile.FullName
	}

	budget := ""
	if trip.Budget.IsPositive() {
		budget = trip.Budget.StringFixed(2) + " " + trip.Currency
	}

	doc, err := services.RenderItineraryPDF(services.ItineraryPDF{
		TravelerName: traveler,
		TripTitle:    trip.Title,
		Destination:  trip.Destination,
		StartDate:    trip.StartDate,
		EndDate:      trip.EndDate,
		Budget:       budget,
		Plan:         plan,
		GeneratedAt:  time.Now(),
	})
	if err != nil {
		logger.FromContext(c).Error("pdf generation failed", zap.String("trip_id", trip.ID), zap.Error(err))
		Fail(c, http.StatusInternalServerError, "failed to generate PDF")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-itinerary.pdf", slug(trip.Destination)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", doc)
}

func slug(s string) string {
	s = strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if s == "" {
		return "trip"
	}
	return s
}

func (h *Handler) Health(c *gin.Context) {
	dbStatus := "ok"
	if h.Store == nil {
		dbStatus = "not initialized"
	} else if err := h.Store.Ping(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}

	OK(c, gin.H{
		"status":   "ok",
		"service":  "tripplanner",
		"database": dbStatus,
	})
}
