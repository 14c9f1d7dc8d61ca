package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"tripplanner/config"
)

// ─── Types ────────────────────────────────────────────────────────────────────

// TripPreferences is what a traveller tells us before we suggest destinations.
type TripPreferences struct {
	Origin       string   `json:"origin,omitempty"`
	Budget       float64  `json:"budget"`
	Currency     string   `json:"currency"`
	DurationDays int      `json:"duration_days"`
	TravelStyle  string   `json:"travel_style,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Month        string   `json:"month,omitempty"`
	Travelers    int      `json:"travelers"`
}

type TripSuggestion struct {
	Destination   string   `json:"destination"`
	Country       string   `json:"country"`
	Summary       string   `json:"summary"`
	EstimatedCost float64  `json:"estimated_cost"`
	BestTime      string   `json:"best_time"`
	Highlights    []string `json:"highlights"`
	MatchScore    int      `json:"match_score"`
}

type ItineraryRequest struct {
	Destination string   `json:"destination"`
	Days        int      `json:"days"`
	StartDate   string   `json:"start_date,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	BudgetLevel string   `json:"budget_level,omitempty"`
	Travelers   int      `json:"travelers"`
}

type Activity struct {
	Time          string  `json:"time"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Location      string  `json:"location"`
	Category      string  `json:"category"`
	EstimatedCost float64 `json:"estimated_cost"`
}

type ItineraryDay struct {
	Day        int        `json:"day"`
	Date       string     `json:"date,omitempty"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

// ItineraryPlan is the stored and rendered shape of a day-by-day plan.
type ItineraryPlan struct {
	Destination        string         `json:"destination"`
	Days               []ItineraryDay `json:"days"`
	Tips               []string       `json:"tips"`
	EstimatedDailyCost float64        `json:"estimated_daily_cost"`
	Currency           string         `json:"currency"`
}

type Phrase struct {
	Category      string `json:"category"`
	English       string `json:"english"`
	Translation   string `json:"translation"`
	Pronunciation string `json:"pronunciation,omitempty"`
}

type WalkingTourRequest struct {
	City          string   `json:"city"`
	Theme         string   `json:"theme,omitempty"`
	DurationHours int      `json:"duration_hours"`
	Interests     []string `json:"interests,omitempty"`
}

type TourStop struct {
	Order           int    `json:"order"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	Tip             string `json:"tip,omitempty"`
}

type WalkingTour struct {
	City            string     `json:"city"`
	Theme           string     `json:"theme"`
	DistanceKM      float64    `json:"distance_km"`
	DurationMinutes int        `json:"duration_minutes"`
	Stops           []TourStop `json:"stops"`
}

// ─── AI Service ───────────────────────────────────────────────────────────────

// AIService wraps OpenAI chat completions in JSON mode. Every method returns an
// error on any failure so callers can substitute the matching fallback.
type AIService struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

func NewAIService(cfg config.OpenAIConfig) *AIService {
	s := &AIService{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		s.client = openai.NewClientWithConfig(oc)
	}
	return s
}

func (s *AIService) Configured() bool {
	return s != nil && s.client != nil
}

var errEmptyCompletion = errors.New("empty completion")

// complete sends one system+user exchange and decodes the JSON object reply into out.
func (s *AIService) complete(ctx context.Context, system, prompt string, out any) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errEmptyCompletion
	}

	content := cleanJSON(resp.Choices[0].Message.Content)
	if content == "" {
		return errEmptyCompletion
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("parse completion: %w", err)
	}
	return nil
}

// cleanJSON strips markdown code fences some models wrap around JSON.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

const systemPrompt = "You are an expert travel planner. Reply with a single JSON object only, no prose."

func (s *AIService) SuggestTrips(ctx context.Context, prefs TripPreferences) ([]TripSuggestion, error) {
	prompt := fmt.Sprintf(`Suggest 3 travel destinations for this traveller.
Budget: %.0f %s total for %d traveller(s)
Trip length: %d days
Departing from: %s
Travel style: %s
Interests: %s
Preferred month: %s

Return {"suggestions":[{"destination":string,"country":string,"summary":string,"estimated_cost":number,"best_time":string,"highlights":[string],"match_score":integer 0-100}]}.
estimated_cost is the total trip cost in %s.`,
		prefs.Budget, prefs.Currency, prefs.Travelers,
		prefs.DurationDays,
		orAny(prefs.Origin),
		orAny(prefs.TravelStyle),
		orAny(strings.Join(prefs.Interests, ", ")),
		orAny(prefs.Month),
		prefs.Currency,
	)

	var out struct {
		Suggestions []TripSuggestion `json:"suggestions"`
	}
	if err := s.complete(ctx, systemPrompt, prompt, &out); err != nil {
		return nil, err
	}
	if len(out.Suggestions) == 0 {
		return nil, errEmptyCompletion
	}
	return out.Suggestions, nil
}

func (s *AIService) GenerateItinerary(ctx context.Context, req ItineraryRequest) (*ItineraryPlan, error) {
	prompt := fmt.Sprintf(`Create a %d-day itinerary for %s.
Start date: %s
Travellers: %d
Budget level: %s
Interests: %s

Return {"destination":string,"days":[{"day":integer,"date":"YYYY-MM-DD or empty","title":string,"activities":[{"time":"HH:MM","title":string,"description":string,"location":string,"category":string,"estimated_cost":number}]}],"tips":[string],"estimated_daily_cost":number,"currency":"USD"}.
Include 3 to 5 activities per day.`,
		req.Days, req.Destination,
		orAny(req.StartDate),
		req.Travelers,
		orAny(req.BudgetLevel),
		orAny(strings.Join(req.Interests, ", ")),
	)

	var plan ItineraryPlan
	if err := s.complete(ctx, systemPrompt, prompt, &plan); err != nil {
		return nil, err
	}
	if len(plan.Days) == 0 {
		return nil, errEmptyCompletion
	}
	if plan.Destination == "" {
		plan.Destination = req.Destination
	}
	if plan.Currency == "" {
		plan.Currency = "USD"
	}
	return &plan, nil
}

func (s *AIService) TranslatePhrases(ctx context.Context, language string, categories []string) ([]Phrase, error) {
	if len(categories) == 0 {
		categories = PhraseCategories
	}
	prompt := fmt.Sprintf(`Give 5 essential travel phrases in %s for each category: %s.
Return {"phrases":[{"category":string,"english":string,"translation":string,"pronunciation":string}]}.
Use the category names exactly as given.`,
		language, strings.Join(categories, ", "))

	var out struct {
		Phrases []Phrase `json:"phrases"`
	}
	if err := s.complete(ctx, systemPrompt, prompt, &out); err != nil {
		return nil, err
	}
	if len(out.Phrases) == 0 {
		return nil, errEmptyCompletion
	}
	return out.Phrases, nil
}

func (s *AIService) WalkingTour(ctx context.Context, req WalkingTourRequest) (*WalkingTour, error) {
	prompt := fmt.Sprintf(`Design a self-guided walking tour of %s lasting about %d hours.
Theme: %s
Interests: %s

Return {"city":string,"theme":string,"distance_km":number,"duration_minutes":integer,"stops":[{"order":integer,"name":string,"description":string,"duration_minutes":integer,"tip":string}]}.
Stops must be walkable in sequence.`,
		req.City, req.DurationHours,
		orAny(req.Theme),
		orAny(strings.Join(req.Interests, ", ")),
	)

	var tour WalkingTour
	if err := s.complete(ctx, systemPrompt, prompt, &tour); err != nil {
		return nil, err
	}
	if len(tour.Stops) == 0 {
		return nil, errEmptyCompletion
	}
	if tour.City == "" {
		tour.City = req.City
	}
	return &tour, nil
}

func orAny(s string) string {
	if strings.TrimSpace(s) == "" {
		return "any"
	}
	return s
}
