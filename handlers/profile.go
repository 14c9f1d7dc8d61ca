package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"tripplanner/database"
)

// GetProfile returns the caller's profile, creating a free one on first access.
func (h *Handler) GetProfile(c *gin.Context) {
	u := user(c)
	p, err := h.Store.EnsureProfile(c.Request.Context(), u.ID, u.Email)
	if err != nil {
		storeError(c, err, "profile")
		return
	}
	OK(c, p)
}

type ProfileRequest struct {
	FullName     string `json:"full_name" binding:"max=200"`
	AvatarURL    string `json:"avatar_url" binding:"omitempty,url,max=500"`
	HomeCurrency string `json:"home_currency" binding:"omitempty,currency"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	ctx := c.Request.Context()
	u := user(c)
	p, err := h.Store.EnsureProfile(ctx, u.ID, u.Email)
	if err != nil {
		storeError(c, err, "profile")
		return
	}
	p.FullName = strings.TrimSpace(req.FullName)
	p.AvatarURL = req.AvatarURL
	if req.HomeCurrency != "" {
		p.HomeCurrency = req.HomeCurrency
	}
	if err := h.Store.UpdateProfile(ctx, p); err != nil {
		storeError(c, err, "profile")
		return
	}
	OK(c, p)
}

// GetPreferences answers with empty defaults until the caller saves some.
func (h *Handler) GetPreferences(c *gin.Context) {
	u := user(c)
	p, err := h.Store.GetPreferences(c.Request.Context(), u.ID)
	if errors.Is(err, database.ErrNotFound) {
		OK(c, &database.UserPreferences{
			UserID:            u.ID,
			BudgetLevel:       "moderate",
			Interests:         []string{},
			Dietary:           []string{},
			PreferredAirlines: []string{},
		})
		return
	}
	if err != nil {
		storeError(c, err, "preferences")
		return
	}
	OK(c, p)
}

type PreferencesRequest struct {
	TravelStyle       string   `json:"travel_style" binding:"max=50"`
	BudgetLevel       string   `json:"budget_level" binding:"omitempty,oneof=budget moderate luxury"`
	Interests         []string `json:"interests" binding:"max=20,dive,max=50"`
	Dietary           []string `json:"dietary" binding:"max=10,dive,max=50"`
	PreferredAirlines []string `json:"preferred_airlines" binding:"max=10,dive,max=50"`
	HomeAirport       string   `json:"home_airport" binding:"omitempty,iata"`
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	p := &database.UserPreferences{
		UserID:            user(c).ID,
		TravelStyle:       req.TravelStyle,
		BudgetLevel:       orDefault(req.BudgetLevel, "moderate"),
		Interests:         req.Interests,
		Dietary:           req.Dietary,
		PreferredAirlines: req.PreferredAirlines,
		HomeAirport:       strings.ToUpper(req.HomeAirport),
	}
	if err := h.Store.UpsertPreferences(c.Request.Context(), p); err != nil {
		storeError(c, err, "preferences")
		return
	}
	OK(c, p)
}
