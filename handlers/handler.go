package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripplanner/database"
	"tripplanner/logger"
	"tripplanner/metrics"
	"tripplanner/middleware"
	"tripplanner/services"
)

// ProfileStore covers profiles and preferences.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, userID, email string) (*database.Profile, error)
	UpdateProfile(ctx context.Context, p *database.Profile) error
	GetPreferences(ctx context.Context, userID string) (*database.UserPreferences, error)
	UpsertPreferences(ctx context.Context, p *database.UserPreferences) error
}

type TripStore interface {
	ListTrips(ctx context.Context, userID string) ([]database.Trip, error)
	CountTrips(ctx context.Context, userID string) (int, error)
	CreateTrip(ctx context.Context, t *database.Trip, limit int) error
	GetTrip(ctx context.Context, userID, id string) (*database.Trip, error)
	UpdateTrip(ctx context.Context, t *database.Trip) error
	DeleteTrip(ctx context.Context, userID, id string) error
	SaveItinerary(ctx context.Context, it *database.Itinerary) error
	LatestItinerary(ctx context.Context, userID, tripID string) (*database.Itinerary, error)
	SaveSuggestions(ctx context.Context, userID string, items []database.TripSuggestion) error
	ListSuggestions(ctx context.Context, userID string, limit int) ([]database.TripSuggestion, error)
}

type ExpenseStore interface {
	ListExpenses(ctx context.Context, userID, tripID string) ([]database.Expense, error)
	CreateExpense(ctx context.Context, e *database.Expense) error
	GetExpense(ctx context.Context, userID, id string) (*database.Expense, error)
	UpdateExpense(ctx context.Context, e *database.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
}

type BookingStore interface {
	ListBookings(ctx context.Context, userID string) ([]database.Booking, error)
	CreateBooking(ctx context.Context, b *database.Booking) error
	GetBooking(ctx context.Context, userID, id string) (*database.Booking, error)
	ListPaymentTransactions(ctx context.Context, userID string) ([]database.PaymentTransaction, error)
}

type PriceWatchStore interface {
	CreatePriceWatch(ctx context.Context, w *database.PriceWatch) error
	ListPriceWatches(ctx context.Context, userID string) ([]database.PriceWatch, error)
	GetPriceWatch(ctx context.Context, userID, id string) (*database.PriceWatch, error)
	DeletePriceWatch(ctx context.Context, userID, id string) error
}

// Store is everything the routes persist. *database.Store satisfies it.
type Store interface {
	Ping(ctx context.Context) error
	ProfileStore
	TripStore
	ExpenseStore
	BookingStore
	PriceWatchStore
}

type AIPlanner interface {
	SuggestTrips(ctx context.Context, prefs services.TripPreferences) ([]services.TripSuggestion, error)
	GenerateItinerary(ctx context.Context, req services.ItineraryRequest) (*services.ItineraryPlan, error)
	TranslatePhrases(ctx context.Context, language string, categories []string) ([]services.Phrase, error)
	WalkingTour(ctx context.Context, req services.WalkingTourRequest) (*services.WalkingTour, error)
}

type TravelSearcher interface {
	Flights(ctx context.Context, q services.FlightQuery) ([]services.Flight, string)
	Hotels(ctx context.Context, q services.HotelQuery) ([]services.Hotel, string)
	Locations(ctx context.Context, keyword string) ([]services.Location, string)
}

// AmadeusRaw proxies Amadeus responses unchanged.
type AmadeusRaw interface {
	Raw(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

type PaymentProcessor interface {
	CreateCheckout(ctx context.Context, userID, email, bookingID string) (*services.CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*services.WebhookResult, error)
}

type WeatherProvider interface {
	Current(ctx context.Context, city string) (*services.Weather, string)
}

type CurrencyConverter interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*services.Conversion, string, error)
}

type PriceChecker interface {
	Check(ctx context.Context, w database.PriceWatch) (*services.PriceCheck, error)
}

// Deps wires the handlers to their collaborators.
type Deps struct {
	Store         Store
	Auth          middleware.TokenVerifier
	AI            AIPlanner
	Travel        TravelSearcher
	Amadeus       AmadeusRaw
	Payments      PaymentProcessor
	Weather       WeatherProvider
	Currency      CurrencyConverter
	Links         *services.AffiliateLinks
	Prices        PriceChecker
	Metrics       *metrics.Metrics
	FreeTripLimit int
	// AILimiter throttles the AI routes when set.
	AILimiter *middleware.RateLimiter
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	return &Handler{Deps: d}
}

// Routes registers every route on r.
func (h *Handler) Routes(r gin.IRouter) {
	r.GET("/health", h.Health)

	requireAuth := middleware.RequireAuth(h.Auth)
	optionalAuth := middleware.OptionalAuth(h.Auth)
	throttle := func(c *gin.Context) { c.Next() }
	if h.AILimiter != nil {
		throttle = h.AILimiter.Middleware()
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		// AI
		api.POST("/suggestions", throttle, optionalAuth, h.Suggestions)
		api.GET("/suggestions", requireAuth, h.ListSuggestions)
		api.POST("/itinerary", throttle, h.GenerateItinerary)
		api.POST("/phrases", throttle, h.Phrases)
		api.POST("/walking-tour", throttle, h.WalkingTour)

		// Travel search
		api.POST("/flights/search", h.SearchFlights)
		api.POST("/hotels/search", h.SearchHotels)
		api.GET("/locations", h.Locations)
		api.GET("/amadeus-direct/flights", h.AmadeusDirectFlights)
		api.GET("/amadeus-direct/hotels", h.AmadeusDirectHotels)

		// Tools
		api.GET("/weather", h.GetWeather)
		api.GET("/currency", h.ConvertCurrency)
		api.POST("/travel-hacks", h.TravelHacks)
		api.GET("/affiliate-links", h.AffiliateLinks)

		// Payments
		api.POST("/webhooks/stripe", h.StripeWebhook)
		api.POST("/checkout", requireAuth, h.Checkout)
		api.GET("/payments", requireAuth, h.ListPayments)

		authed := api.Group("", requireAuth)
		authed.GET("/profile", h.GetProfile)
		authed.PUT("/profile", h.UpdateProfile)
		authed.GET("/preferences", h.GetPreferences)
		authed.PUT("/preferences", h.UpdatePreferences)

		authed.GET("/trips", h.ListTrips)
		authed.POST("/trips", h.CreateTrip)
		authed.GET("/trips/:id", h.GetTrip)
		authed.PUT("/trips/:id", h.UpdateTrip)
		authed.DELETE("/trips/:id", h.DeleteTrip)
		authed.POST("/trips/:id/itinerary", h.SaveTripItinerary)
		authed.GET("/trips/:id/itinerary", h.GetTripItinerary)
		authed.GET("/trips/:id/itinerary/pdf", h.DownloadItineraryPDF)

		authed.GET("/trips/:id/expenses", h.ListExpenses)
		authed.POST("/trips/:id/expenses", h.CreateExpense)
		authed.GET("/trips/:id/expenses/summary", h.ExpenseSummary)
		authed.PUT("/expenses/:id", h.UpdateExpense)
		authed.DELETE("/expenses/:id", h.DeleteExpense)

		authed.GET("/bookings", h.ListBookings)
		authed.POST("/bookings", h.CreateBooking)
		authed.GET("/bookings/:id", h.GetBooking)

		authed.POST("/price-watch", h.CreatePriceWatch)
		authed.GET("/price-watch", h.ListPriceWatches)
		authed.DELETE("/price-watch/:id", h.DeletePriceWatch)
		authed.POST("/price-watch/:id/check", h.CheckPriceWatch)
	}
}

// user returns the caller set by RequireAuth. Routes behind RequireAuth always have one.
func user(c *gin.Context) *services.AuthUser {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return &services.AuthUser{}
	}
	return u
}

// storeError answers for a repository error: 404 for missing or foreign rows, 500 otherwise.
func storeError(c *gin.Context, err error, what string) {
	if errors.Is(err, database.ErrNotFound) {
		Fail(c, http.StatusNotFound, what+" not found")
		return
	}
	logger.FromContext(c).Error("database error", zap.String("entity", what), zap.Error(err))
	Fail(c, http.StatusInternalServerError, "internal server error")
}

// fallback logs a provider failure and counts it.
func (h *Handler) fallback(c *gin.Context, provider string, err error) string {
	h.Metrics.Fallback(provider)
	logger.FromContext(c).Warn("using fallback data", zap.String("provider", provider), zap.Error(err))
	return sourceWarning(services.SourceFallback, provider)
}
