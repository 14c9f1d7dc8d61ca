package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripplanner/config"
)

const flightOffersJSON = `{"data":[
 {"price":{"grandTotal":"512.40","currency":"USD"},
  "validatingAirlineCodes":["TP"],
  "itineraries":[
   {"duration":"PT7H5M","segments":[
     {"departure":{"iataCode":"JFK","at":"2026-05-01T18:00:00"},"arrival":{"iataCode":"LIS","at":"2026-05-02T06:05:00"},"carrierCode":"TP","number":"204"}]},
   {"duration":"PT9H","segments":[
     {"departure":{"iataCode":"LIS","at":"2026-05-08T10:00:00"},"arrival":{"iataCode":"MAD","at":"2026-05-08T12:00:00"},"carrierCode":"TP","number":"1020"},
     {"departure":{"iataCode":"MAD","at":"2026-05-08T13:30:00"},"arrival":{"iataCode":"JFK","at":"2026-05-08T16:00:00"},"carrierCode":"IB","number":"6251"}]}]},
 {"price":{"grandTotal":"0","currency":"USD"},"itineraries":[{"duration":"PT1H","segments":[{"carrierCode":"XX","number":"1"}]}]}
]}`

type amadeusStub struct {
	server        *httptest.Server
	tokenRequests atomic.Int32
}

func newAmadeusStub(t *testing.T) *amadeusStub {
	t.Helper()
	stub := &amadeusStub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		stub.tokenRequests.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"amadeusOAuth2Token","access_token":"tok","token_type":"Bearer","expires_in":1799}`))
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "JFK", r.URL.Query().Get("originLocationCode"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(flightOffersJSON))
	})
	mux.HandleFunc("/v1/reference-data/locations/hotels/by-city", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PAR", r.URL.Query().Get("cityCode"))
		_, _ = w.Write([]byte(`{"data":[{"hotelId":"HLPAR001"},{"hotelId":"HLPAR002"}]}`))
	})
	mux.HandleFunc("/v3/shopping/hotel-offers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "HLPAR001,HLPAR002", r.URL.Query().Get("hotelIds"))
		_, _ = w.Write([]byte(`{"data":[
		 {"hotel":{"hotelId":"HLPAR001","name":"Hotel Lumiere","cityCode":"PAR","rating":"4"},"available":true,"offers":[{"price":{"total":"189.00","currency":"EUR"}}]},
		 {"hotel":{"hotelId":"HLPAR002","name":"Sold Out","cityCode":"PAR"},"available":false,"offers":[]}
		]}`))
	})
	mux.HandleFunc("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"subType":"AIRPORT","name":"HUMBERTO DELGADO","iataCode":"LIS","address":{"cityName":"LISBON","countryCode":"PT"}}]}`))
	})
	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

func newTestAmadeus(baseURL string) *AmadeusClient {
	return NewAmadeusClient(config.AmadeusConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
	}, nil, zap.NewNop())
}

func TestAmadeusToken_CachedWithinValidity(t *testing.T) {
	stub := newAmadeusStub(t)
	client := newTestAmadeus(stub.server.URL)
	ctx := context.Background()

	_, err := client.SearchFlights(ctx, FlightQuery{Origin: "JFK", Destination: "LIS", DepartureDate: "2026-05-01"})
	require.NoError(t, err)
	_, err = client.SearchFlights(ctx, FlightQuery{Origin: "JFK", Destination: "LIS", DepartureDate: "2026-05-01"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), stub.tokenRequests.Load())
}

func TestAmadeusToken_RefreshesOnceAfterExpiry(t *testing.T) {
	stub := newAmadeusStub(t)
	client := newTestAmadeus(stub.server.URL)
	now := time.Now()
	client.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := client.token(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), stub.tokenRequests.Load())

	// still inside expires_in minus the skew
	now = now.Add(29 * time.Minute)
	_, err = client.token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), stub.tokenRequests.Load())

	now = now.Add(2 * time.Minute)
	_, err = client.token(ctx)
	require.NoError(t, err)
	_, err = client.token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stub.tokenRequests.Load())
}

func TestAmadeusToken_ConcurrentCallersShareRequest(t *testing.T) {
	stub := newAmadeusStub(t)
	client := newTestAmadeus(stub.server.URL)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.token(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), stub.tokenRequests.Load())
}

func TestAmadeus_NotConfigured(t *testing.T) {
	client := NewAmadeusClient(config.AmadeusConfig{BaseURL: "http://127.0.0.1:1"}, nil, zap.NewNop())
	assert.False(t, client.Configured())

	_, err := client.SearchFlights(context.Background(), FlightQuery{Origin: "JFK", Destination: "LIS"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAmadeus_SearchFlights(t *testing.T) {
	stub := newAmadeusStub(t)
	client := newTestAmadeus(stub.server.URL)

	flights, err := client.SearchFlights(context.Background(), FlightQuery{
		Origin: "JFK", Destination: "LIS", DepartureDate: "2026-05-01", ReturnDate: "2026-05-08",
	})
	require.NoError(t, err)
	require.Len(t, flights, 1, "zero-priced offers are dropped")

	f := flights[0]
	assert.Equal(t, 512.40, f.Price)
	assert.Equal(t, "TAP Air Portugal", f.Airline)
	assert.Equal(t, "TP204", f.FlightNumber)
	assert.Equal(t, "7h 5m", f.Duration)
	assert.Equal(t, 0, f.Stops)
	assert.Equal(t, 1, f.ReturnStops)
	assert.Equal(t, "9h", f.ReturnDuration)
	assert.Equal(t, "2026-05-08T16:00:00", f.ReturnArrivalTime)
}

func TestAmadeus_SearchHotels(t *testing.T) {
	stub := newAmadeusStub(t)
	client := newTestAmadeus(stub.server.URL)

	hotels, err := client.SearchHotels(context.Background(), HotelQuery{
		CityCode: "CDG", CheckIn: "2026-05-01", CheckOut: "2026-05-04", Adults: 2,
	})
	require.NoError(t, err)
	require.Len(t, hotels, 1)
	assert.Equal(t, "Hotel Lumiere", hotels[0].Name)
	assert.Equal(t, 189.0, hotels[0].Price)
	assert.Equal(t, "EUR", hotels[0].Currency)
	assert.Equal(t, "PAR", hotels[0].Location)
}

func TestAmadeus_SearchLocations(t *testing.T) {
	stub := newAmadeusStub(t)
	client := newTestAmadeus(stub.server.URL)

	locations, err := client.SearchLocations(context.Background(), "lis")
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "LIS", locations[0].IATACode)
	assert.Equal(t, "PT", locations[0].CountryCode)
}

func TestAmadeus_RawRequiresJSON(t *testing.T) {
	stub := newAmadeusStub(t)
	client := newTestAmadeus(stub.server.URL)

	raw, err := client.Raw(context.Background(), "/v1/reference-data/locations", nil)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"iataCode":"LIS"`)
}

func TestParseDuration(t *testing.T) {
	cases := map[string]string{
		"PT5H30M": "5h 30m",
		"PT2H":    "2h",
		"PT45M":   "45m",
		"":        "",
		"P1DT2H":  "P1DT2H",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseDuration(in), in)
	}
}

func TestParseRating(t *testing.T) {
	assert.Equal(t, 4.0, parseRating(""))
	assert.Equal(t, 3.0, parseRating("3"))
	assert.Equal(t, 5.0, parseRating("7"))
}
