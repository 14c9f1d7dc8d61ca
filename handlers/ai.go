package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripplanner/database"
	"tripplanner/logger"
	"tripplanner/middleware"
	"tripplanner/services"
)

const aiProvider = "openai"

type SuggestionsRequest struct {
	Origin       string   `json:"origin" binding:"max=100"`
	Budget       float64  `json:"budget" binding:"required,gt=0"`
	Currency     string   `json:"currency" binding:"omitempty,currency"`
	DurationDays int      `json:"duration_days" binding:"required,min=1,max=60"`
	TravelStyle  string   `json:"travel_style" binding:"max=50"`
	Interests    []string `json:"interests" binding:"max=10,dive,max=50"`
	Month        string   `json:"month" binding:"max=20"`
	Travelers    int      `json:"travelers" binding:"omitempty,min=1,max=20"`
}

// Suggestions answers with AI destination suggestions, or ranked static ones when
// the AI fails. Signed-in callers get them saved.
func (h *Handler) Suggestions(c *gin.Context) {
	var req SuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	prefs := services.TripPreferences{
		Origin:       strings.TrimSpace(req.Origin),
		Budget:       req.Budget,
		Currency:     strings.ToUpper(orDefault(req.Currency, "USD")),
		DurationDays: req.DurationDays,
		TravelStyle:  req.TravelStyle,
		Interests:    req.Interests,
		Month:        req.Month,
		Travelers:    max(1, req.Travelers),
	}

	source, warning := services.SourceLive, ""
	suggestions, err := h.AI.SuggestTrips(c.Request.Context(), prefs)
	if err != nil {
		warning = h.fallback(c, aiProvider, err)
		suggestions = services.FallbackSuggestions(prefs)
		source = services.SourceFallback
	}

	if u, ok := middleware.CurrentUser(c); ok {
		rows := make([]database.TripSuggestion, 0, len(suggestions))
		for _, s := range suggestions {
			rows = append(rows, database.TripSuggestion{
				Destination:   s.Destination,
				Country:       s.Country,
				Summary:       s.Summary,
				EstimatedCost: decimal.NewFromFloat(s.EstimatedCost).Round(2),
				BestTime:      s.BestTime,
				Highlights:    s.Highlights,
				MatchScore:    s.MatchScore,
			})
		}
		if err := h.Store.SaveSuggestions(c.Request.Context(), u.ID, rows); err != nil {
			logger.FromContext(c).Error("failed to save suggestions", zap.Error(err))
		}
	}

	OKWithSource(c, suggestions, source, warning)
}

func (h *Handler) ListSuggestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items, err := h.Store.ListSuggestions(c.Request.Context(), user(c).ID, limit)
	if err != nil {
		storeError(c, err, "suggestions")
		return
	}
	OK(c, items)
}

type ItineraryRequest struct {
	Destination string   `json:"destination" binding:"required,max=100"`
	Days        int      `json:"days" binding:"required,min=1,max=14"`
	StartDate   string   `json:"start_date" binding:"omitempty,isodate"`
	Interests   []string `json:"interests" binding:"max=10,dive,max=50"`
	BudgetLevel string   `json:"budget_level" binding:"omitempty,oneof=budget moderate luxury"`
	Travelers   int      `json:"travelers" binding:"omitempty,min=1,max=20"`
}

func (r ItineraryRequest) toService() services.ItineraryRequest {
	return services.ItineraryRequest{
		Destination: strings.TrimSpace(r.Destination),
		Days:        r.Days,
		StartDate:   r.StartDate,
		Interests:   r.Interests,
		BudgetLevel: orDefault(r.BudgetLevel, "moderate"),
		Travelers:   max(1, r.Travelers),
	}
}

func (h *Handler) GenerateItinerary(c *gin.Context) {
	var req ItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}
	plan, source, warning := h.planItinerary(c, req.toService())
	OKWithSource(c, plan, source, warning)
}

// planItinerary asks the AI for a plan and falls back to the static planner.
func (h *Handler) planItinerary(c *gin.Context, req services.ItineraryRequest) (*services.ItineraryPlan, string, string) {
	plan, err := h.AI.GenerateItinerary(c.Request.Context(), req)
	if err != nil {
		return services.FallbackItinerary(req), services.SourceFallback, h.fallback(c, aiProvider, err)
	}
	return plan, services.SourceLive, ""
}

type PhrasesRequest struct {
	Language    string   `json:"language" binding:"required_without=Destination,max=50"`
	Destination string   `json:"destination" binding:"max=100"`
	Categories  []string `json:"categories" binding:"max=8,dive,max=30"`
}

// Phrases serves the static table for known languages and asks the AI otherwise.
func (h *Handler) Phrases(c *gin.Context) {
	var req PhrasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	lookup := req.Language
	if strings.TrimSpace(lookup) == "" {
		lookup = req.Destination
	}
	language, _ := services.LanguageFor(lookup)

	type phrasesResponse struct {
		Language string            `json:"language"`
		Phrases  []services.Phrase `json:"phrases"`
	}

	if phrases, ok := services.StaticPhrases(language, req.Categories); ok {
		OKWithSource(c, phrasesResponse{Language: language, Phrases: phrases}, services.SourceStatic, "")
		return
	}

	phrases, err := h.AI.TranslatePhrases(c.Request.Context(), language, req.Categories)
	if err != nil {
		warning := h.fallback(c, aiProvider, err)
		OKWithSource(c, phrasesResponse{Language: language, Phrases: services.FallbackPhrases(req.Categories)},
			services.SourceFallback, warning)
		return
	}
	OKWithSource(c, phrasesResponse{Language: language, Phrases: phrases}, services.SourceLive, "")
}

type WalkingTourRequest struct {
	City          string   `json:"city" binding:"required,max=100"`
	Theme         string   `json:"theme" binding:"max=50"`
	DurationHours int      `json:"duration_hours" binding:"omitempty,min=1,max=8"`
	Interests     []string `json:"interests" binding:"max=10,dive,max=50"`
}

func (h *Handler) WalkingTour(c *gin.Context) {
	var req WalkingTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	q := services.WalkingTourRequest{
		City:          strings.TrimSpace(req.City),
		Theme:         req.Theme,
		DurationHours: req.DurationHours,
		Interests:     req.Interests,
	}
	if q.DurationHours == 0 {
		q.DurationHours = 2
	}

	tour, err := h.AI.WalkingTour(c.Request.Context(), q)
	if err != nil {
		warning := h.fallback(c, aiProvider, err)
		OKWithSource(c, services.FallbackWalkingTour(q), services.SourceFallback, warning)
		return
	}
	OKWithSource(c, tour, services.SourceLive, "")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
