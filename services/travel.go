package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tripplanner/metrics"
)

// Where a response body came from.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
	SourceStatic   = "static"
	SourceCache    = "cache"
)

// AmadeusAPI is the part of AmadeusClient the search layer needs.
type AmadeusAPI interface {
	SearchFlights(ctx context.Context, q FlightQuery) ([]Flight, error)
	SearchHotels(ctx context.Context, q HotelQuery) ([]Hotel, error)
	SearchLocations(ctx context.Context, keyword string) ([]Location, error)
}

// TravelSearch runs Amadeus searches and substitutes static data when they fail
// or come back empty. Every result carries an affiliate booking link.
type TravelSearch struct {
	amadeus AmadeusAPI
	links   *AffiliateLinks
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewTravelSearch(amadeus AmadeusAPI, links *AffiliateLinks, m *metrics.Metrics, logger *zap.Logger) *TravelSearch {
	return &TravelSearch{amadeus: amadeus, links: links, metrics: m, logger: logger}
}

var errNoResults = errors.New("no results")

func (t *TravelSearch) Flights(ctx context.Context, q FlightQuery) ([]Flight, string) {
	flights, err := t.amadeus.SearchFlights(ctx, q)
	if err == nil && len(flights) == 0 {
		err = errNoResults
	}
	source := SourceLive
	if err != nil {
		t.fallback(ctx, "amadeus_flights", err)
		flights = GenerateFlightsFallback(q)
		source = SourceFallback
	}
	t.links.AttachFlightLinks(flights, q)
	return flights, source
}

func (t *TravelSearch) Hotels(ctx context.Context, q HotelQuery) ([]Hotel, string) {
	hotels, err := t.amadeus.SearchHotels(ctx, q)
	if err == nil && len(hotels) == 0 {
		err = errNoResults
	}
	source := SourceLive
	if err != nil {
		t.fallback(ctx, "amadeus_hotels", err)
		hotels = GenerateHotelsFallback(q)
		source = SourceFallback
	}
	t.links.AttachHotelLinks(hotels, q)
	return hotels, source
}

func (t *TravelSearch) Locations(ctx context.Context, keyword string) ([]Location, string) {
	locations, err := t.amadeus.SearchLocations(ctx, keyword)
	if err == nil && len(locations) == 0 {
		err = errNoResults
	}
	if err != nil {
		t.fallback(ctx, "amadeus_locations", err)
		return FallbackLocations(keyword), SourceFallback
	}
	return locations, SourceLive
}

// CheapestFlight returns the lowest-priced offer for q.
func (t *TravelSearch) CheapestFlight(ctx context.Context, q FlightQuery) (Flight, string, bool) {
	flights, source := t.Flights(ctx, q)
	if len(flights) == 0 {
		return Flight{}, source, false
	}
	best := flights[0]
	for _, f := range flights[1:] {
		if f.Price < best.Price {
			best = f
		}
	}
	return best, source, true
}

func (t *TravelSearch) fallback(ctx context.Context, provider string, err error) {
	if ctx.Err() != nil {
		return
	}
	t.metrics.Fallback(provider)
	t.logger.Warn("using fallback data", zap.String("provider", provider), zap.Error(err))
}
