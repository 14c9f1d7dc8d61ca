package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripplanner/cache"
	"tripplanner/config"
)

func TestTravelHacks(t *testing.T) {
	hacks := TravelHacks(TravelHacksRequest{Destination: "Paris", BudgetLevel: "budget", Month: "jul"})

	require.NotEmpty(t, hacks)
	assert.Equal(t, "First Sunday museum entry", hacks[0].Title)
	assert.Equal(t, hacks, TravelHacks(TravelHacksRequest{Destination: "paris", BudgetLevel: "BUDGET", Month: "July"}))

	var timing int
	for _, h := range hacks {
		if h.Category == "timing" {
			timing++
			assert.Equal(t, "Book early for peak season", h.Title)
		}
	}
	assert.Equal(t, 1, timing)

	plain := TravelHacks(TravelHacksRequest{BudgetLevel: "whatever"})
	assert.Equal(t, TravelHacks(TravelHacksRequest{BudgetLevel: "moderate"}), plain)
}

func TestSeason(t *testing.T) {
	assert.Equal(t, "peak", season("August"))
	assert.Equal(t, "shoulder", season("oct"))
	assert.Equal(t, "off", season("February"))
	assert.Equal(t, "", season("someday"))
}

func TestPhrases(t *testing.T) {
	lang, ok := LanguageFor("Mexico City")
	require.True(t, ok)
	assert.Equal(t, "spanish", lang)

	phrases, ok := StaticPhrases(lang, []string{"Greetings"})
	require.True(t, ok)
	require.NotEmpty(t, phrases)
	assert.Equal(t, "Hola", phrases[0].Translation)
	for _, p := range phrases {
		assert.Equal(t, "greetings", p.Category)
	}

	_, ok = LanguageFor("Klingon")
	assert.False(t, ok)
	_, ok = StaticPhrases("klingon", nil)
	assert.False(t, ok)

	for _, p := range FallbackPhrases(nil) {
		assert.Equal(t, p.English, p.Translation)
	}
}

func TestAffiliateLinks(t *testing.T) {
	links := NewAffiliateLinks(config.AffiliateConfig{
		FlightPartnerID:   "fp1",
		HotelPartnerID:    "hp1",
		ActivityPartnerID: "ap1",
		FlightTemplate:    "https://flights.example.com/{origin}/{destination}/{depart}/{return}?adults={adults}&marker={partner}",
		HotelTemplate:     "https://hotels.example.com/search?ss={city}&checkin={checkin}&checkout={checkout}&aid={partner}",
		ActivityTemplate:  "https://tours.example.com/{city}?partner={partner}",
	})

	assert.Equal(t, "https://flights.example.com/jfk/lis/260501/260508?adults=2&marker=fp1",
		links.FlightLink("JFK", "LIS", "2026-05-01", "2026-05-08", 2))
	assert.Equal(t, "https://flights.example.com/jfk/lis/260501/?adults=1&marker=fp1",
		links.FlightLink("JFK", "LIS", "2026-05-01", "", 0))
	assert.Equal(t, "https://hotels.example.com/search?ss=New+York&checkin=2026-05-01&checkout=2026-05-03&aid=hp1",
		links.HotelLink("New York", "2026-05-01", "2026-05-03", 2))
	assert.Equal(t, "https://tours.example.com/Rome?partner=ap1", links.ActivityLink("Rome"))

	flights := []Flight{{}, {BookingLink: "https://airline.example.com"}}
	links.AttachFlightLinks(flights, FlightQuery{Origin: "JFK", Destination: "LIS", DepartureDate: "2026-05-01"})
	assert.Contains(t, flights[0].BookingLink, "flights.example.com")
	assert.Equal(t, "https://airline.example.com", flights[1].BookingLink)
}

func TestWeatherService(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "owm-key", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`{"name":"Lisbon","sys":{"country":"PT"},"main":{"temp":21.46,"feels_like":20.9,"humidity":58},"weather":[{"main":"Clear","description":"clear sky","icon":"01d"}],"wind":{"speed":3.1}}`))
	}))
	defer srv.Close()

	svc := NewWeatherService(config.WeatherConfig{APIKey: "owm-key", BaseURL: srv.URL, CacheTTL: time.Minute},
		cache.NewMemoryStore(time.Minute), nil, zap.NewNop())

	w, source := svc.Current(context.Background(), "Lisbon")
	assert.Equal(t, SourceLive, source)
	assert.Equal(t, 21.5, w.TemperatureC)
	assert.Equal(t, "Clear", w.Condition)

	_, source = svc.Current(context.Background(), "lisbon ")
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWeatherService_Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewWeatherService(config.WeatherConfig{APIKey: "bad", BaseURL: srv.URL},
		cache.NewMemoryStore(time.Minute), nil, zap.NewNop())

	w, source := svc.Current(context.Background(), "tokyo")
	assert.Equal(t, SourceFallback, source)
	assert.Equal(t, "Tokyo", w.City)
	assert.Equal(t, "JP", w.Country)

	unconfigured := NewWeatherService(config.WeatherConfig{}, cache.NewMemoryStore(time.Minute), nil, zap.NewNop())
	_, source = unconfigured.Current(context.Background(), "Atlantis")
	assert.Equal(t, SourceFallback, source)
}

func TestCurrencyService(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v6/fx-key/latest/USD", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","conversion_rates":{"USD":1,"EUR":0.9134,"JPY":151.2}}`))
	}))
	defer srv.Close()

	svc := NewCurrencyService(config.CurrencyConfig{APIKey: "fx-key", BaseURL: srv.URL, CacheTTL: time.Hour},
		cache.NewMemoryStore(time.Minute), nil, zap.NewNop())
	ctx := context.Background()

	conv, source, err := svc.Convert(ctx, "usd", "eur", decimal.RequireFromString("100"))
	require.NoError(t, err)
	assert.Equal(t, SourceLive, source)
	assert.Equal(t, "EUR", conv.To)
	assert.Equal(t, "91.34", conv.Result.String())

	_, source, err = svc.Convert(ctx, "USD", "JPY", decimal.RequireFromString("10"))
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, int32(1), calls.Load())

	_, _, err = svc.Convert(ctx, "USD", "XXX", decimal.RequireFromString("1"))
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestCurrencyService_Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"error","error-type":"invalid-key"}`))
	}))
	defer srv.Close()

	svc := NewCurrencyService(config.CurrencyConfig{APIKey: "bad", BaseURL: srv.URL},
		cache.NewMemoryStore(time.Minute), nil, zap.NewNop())

	conv, source, err := svc.Convert(context.Background(), "EUR", "GBP", decimal.RequireFromString("50"))
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, source)
	assert.Equal(t, "0.858696", conv.Rate.String())
	assert.Equal(t, "42.93", conv.Result.String())

	_, _, err = svc.Convert(context.Background(), "EUR", "ZZZ", decimal.RequireFromString("1"))
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}
