package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"tripplanner/config"
	"tripplanner/metrics"
)

// ─── Types ────────────────────────────────────────────────────────────────────

type Flight struct {
	Price               float64 `json:"price"`
	Currency            string  `json:"currency"`
	Airline             string  `json:"airline"`
	AirlineCode         string  `json:"airline_code,omitempty"`
	FlightNumber        string  `json:"flight_number,omitempty"`
	Origin              string  `json:"origin"`
	Destination         string  `json:"destination"`
	DepartureTime       string  `json:"departure_time"`
	ArrivalTime         string  `json:"arrival_time"`
	Duration            string  `json:"duration"`
	Stops               int     `json:"stops"`
	ReturnDepartureTime string  `json:"return_departure_time,omitempty"`
	ReturnArrivalTime   string  `json:"return_arrival_time,omitempty"`
	ReturnDuration      string  `json:"return_duration,omitempty"`
	ReturnStops         int     `json:"return_stops,omitempty"`
	BookingLink         string  `json:"booking_link,omitempty"`
}

type Hotel struct {
	Name        string  `json:"name"`
	HotelID     string  `json:"hotel_id,omitempty"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Rating      float64 `json:"rating"`
	Location    string  `json:"location"`
	BookingLink string  `json:"booking_link,omitempty"`
}

// Location is an airport or city from the Amadeus location search.
type Location struct {
	IATACode    string `json:"iata_code"`
	Name        string `json:"name"`
	CityName    string `json:"city_name"`
	CountryCode string `json:"country_code"`
	SubType     string `json:"sub_type"`
}

// FlightQuery describes a flight offers search. Dates are YYYY-MM-DD; ReturnDate is optional.
type FlightQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	Currency      string
	NonStop       bool
	Max           int
}

type HotelQuery struct {
	CityCode string
	CheckIn  string
	CheckOut string
	Adults   int
	Currency string
}

// ─── Amadeus Client ───────────────────────────────────────────────────────────

const (
	tokenSkew      = 30 * time.Second
	maxHotelIDs    = 20
	maxResponseLen = 4 << 20
)

// AmadeusClient talks to the Amadeus Self-Service API. The client-credentials
// token is cached until 30s before it expires; concurrent callers that find the
// cache empty wait on the same token request.
type AmadeusClient struct {
	baseURL    string
	httpClient *http.Client
	creds      *clientcredentials.Config
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewAmadeusClient(cfg config.AmadeusConfig, m *metrics.Metrics, logger *zap.Logger) *AmadeusClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	c := &AmadeusClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		c.creds = &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     baseURL + "/v1/security/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInParams,
		}
	}
	return c
}

// Configured reports whether client credentials are present.
func (c *AmadeusClient) Configured() bool {
	return c != nil && c.creds != nil
}

// ─── OAuth2 Token ─────────────────────────────────────────────────────────────

func (c *AmadeusClient) token(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	tok, err := c.creds.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		return "", fmt.Errorf("amadeus token: %w", err)
	}

	// oauth2 stamps Expiry with the wall clock; keep the remaining lifetime on our clock.
	ttl := time.Duration(0)
	if !tok.Expiry.IsZero() {
		ttl = time.Until(tok.Expiry)
	}
	c.accessToken = tok.AccessToken
	c.tokenExpiry = c.now().Add(ttl - tokenSkew)

	if c.metrics != nil {
		c.metrics.TokenRefreshes.Inc()
	}
	c.logger.Debug("amadeus token refreshed", zap.Duration("ttl", ttl))
	return c.accessToken, nil
}

func (c *AmadeusClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLen))
	if err != nil {
		return nil, fmt.Errorf("read amadeus response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("amadeus error (%d): %s", resp.StatusCode, truncate(string(body), 300))
	}
	return body, nil
}

// Raw proxies a GET to the Amadeus API and returns the JSON body untouched.
func (c *AmadeusClient) Raw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("amadeus returned invalid json")
	}
	return json.RawMessage(body), nil
}

// ─── Flight Search ────────────────────────────────────────────────────────────

// SearchFlights queries the Flight Offers Search API.
func (c *AmadeusClient) SearchFlights(ctx context.Context, q FlightQuery) ([]Flight, error) {
	query := url.Values{}
	query.Set("originLocationCode", q.Origin)
	query.Set("destinationLocationCode", q.Destination)
	query.Set("departureDate", q.DepartureDate)
	if q.ReturnDate != "" {
		query.Set("returnDate", q.ReturnDate)
	}
	query.Set("adults", strconv.Itoa(max(1, q.Adults)))
	query.Set("currencyCode", currencyOr(q.Currency))
	query.Set("max", strconv.Itoa(maxOr(q.Max, 6)))
	if q.NonStop {
		query.Set("nonStop", "true")
	}

	body, err := c.get(ctx, "/v2/shopping/flight-offers", query)
	if err != nil {
		return nil, fmt.Errorf("flight search failed: %w", err)
	}
	return parseFlightOffers(body)
}

type amadeusSegment struct {
	Departure struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"departure"`
	Arrival struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
}

type amadeusItinerary struct {
	Duration string           `json:"duration"`
	Segments []amadeusSegment `json:"segments"`
}

type amadeusFlightOffer struct {
	Price struct {
		GrandTotal string `json:"grandTotal"`
		Currency   string `json:"currency"`
	} `json:"price"`
	Itineraries            []amadeusItinerary `json:"itineraries"`
	ValidatingAirlineCodes []string           `json:"validatingAirlineCodes"`
}

func parseFlightOffers(data []byte) ([]Flight, error) {
	var resp struct {
		Data []amadeusFlightOffer `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse flight offers: %w", err)
	}

	flights := make([]Flight, 0, len(resp.Data))
	for _, offer := range resp.Data {
		if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
			continue
		}
		price := parsePrice(offer.Price.GrandTotal)
		if price <= 0 {
			continue
		}

		outbound := offer.Itineraries[0]
		first, last := outbound.Segments[0], outbound.Segments[len(outbound.Segments)-1]

		airlineCode := first.CarrierCode
		if airlineCode == "" && len(offer.ValidatingAirlineCodes) > 0 {
			airlineCode = offer.ValidatingAirlineCodes[0]
		}

		f := Flight{
			Price:         price,
			Currency:      offer.Price.Currency,
			Airline:       airlineName(airlineCode),
			AirlineCode:   airlineCode,
			FlightNumber:  airlineCode + first.Number,
			Origin:        first.Departure.IataCode,
			Destination:   last.Arrival.IataCode,
			DepartureTime: first.Departure.At,
			ArrivalTime:   last.Arrival.At,
			Duration:      parseDuration(outbound.Duration),
			Stops:         len(outbound.Segments) - 1,
		}

		if len(offer.Itineraries) >= 2 {
			ret := offer.Itineraries[1]
			f.ReturnDuration = parseDuration(ret.Duration)
			if n := len(ret.Segments); n > 0 {
				f.ReturnStops = n - 1
				f.ReturnDepartureTime = ret.Segments[0].Departure.At
				f.ReturnArrivalTime = ret.Segments[n-1].Arrival.At
			}
		}

		flights = append(flights, f)
	}
	return flights, nil
}

// ─── Hotel Search ─────────────────────────────────────────────────────────────

// SearchHotels resolves hotel ids for the city and then fetches their offers.
func (c *AmadeusClient) SearchHotels(ctx context.Context, q HotelQuery) ([]Hotel, error) {
	ids, err := c.hotelIDsByCity(ctx, airportToCity(q.CityCode))
	if err != nil {
		return nil, fmt.Errorf("hotel list failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxHotelIDs {
		ids = ids[:maxHotelIDs]
	}
	return c.hotelOffers(ctx, ids, q)
}

func (c *AmadeusClient) hotelIDsByCity(ctx context.Context, cityCode string) ([]string, error) {
	query := url.Values{}
	query.Set("cityCode", cityCode)
	query.Set("radius", "5")
	query.Set("radiusUnit", "KM")
	query.Set("hotelSource", "ALL")

	body, err := c.get(ctx, "/v1/reference-data/locations/hotels/by-city", query)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			HotelID string `json:"hotelId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hotel list: %w", err)
	}

	ids := make([]string, 0, len(resp.Data))
	for _, h := range resp.Data {
		if h.HotelID != "" {
			ids = append(ids, h.HotelID)
		}
	}
	return ids, nil
}

type amadeusHotelOffers struct {
	Data []struct {
		Hotel struct {
			HotelID  string `json:"hotelId"`
			Name     string `json:"name"`
			CityCode string `json:"cityCode"`
			Address  struct {
				CityName string `json:"cityName"`
			} `json:"address"`
			Rating string `json:"rating"`
		} `json:"hotel"`
		Available bool `json:"available"`
		Offers    []struct {
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
		} `json:"offers"`
	} `json:"data"`
}

func (c *AmadeusClient) hotelOffers(ctx context.Context, ids []string, q HotelQuery) ([]Hotel, error) {
	query := url.Values{}
	query.Set("hotelIds", strings.Join(ids, ","))
	query.Set("checkInDate", q.CheckIn)
	query.Set("checkOutDate", q.CheckOut)
	query.Set("adults", strconv.Itoa(max(1, q.Adults)))
	query.Set("roomQuantity", "1")
	query.Set("currency", currencyOr(q.Currency))
	query.Set("bestRateOnly", "true")

	body, err := c.get(ctx, "/v3/shopping/hotel-offers", query)
	if err != nil {
		return nil, fmt.Errorf("hotel offers failed: %w", err)
	}

	var resp amadeusHotelOffers
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hotel offers: %w", err)
	}

	hotels := make([]Hotel, 0, len(resp.Data))
	for _, item := range resp.Data {
		if !item.Available || len(item.Offers) == 0 {
			continue
		}
		price := parsePrice(item.Offers[0].Price.Total)
		if price <= 0 {
			continue
		}
		location := item.Hotel.Address.CityName
		if location == "" {
			location = item.Hotel.CityCode
		}
		hotels = append(hotels, Hotel{
			Name:     item.Hotel.Name,
			HotelID:  item.Hotel.HotelID,
			Price:    price,
			Currency: item.Offers[0].Price.Currency,
			Rating:   parseRating(item.Hotel.Rating),
			Location: location,
		})
	}
	return hotels, nil
}

// ─── Locations ────────────────────────────────────────────────────────────────

func (c *AmadeusClient) SearchLocations(ctx context.Context, keyword string) ([]Location, error) {
	query := url.Values{}
	query.Set("subType", "CITY,AIRPORT")
	query.Set("keyword", keyword)
	query.Set("page[limit]", "10")
	query.Set("view", "LIGHT")

	body, err := c.get(ctx, "/v1/reference-data/locations", query)
	if err != nil {
		return nil, fmt.Errorf("location search failed: %w", err)
	}

	var resp struct {
		Data []struct {
			SubType  string `json:"subType"`
			Name     string `json:"name"`
			IATACode string `json:"iataCode"`
			Address  struct {
				CityName    string `json:"cityName"`
				CountryCode string `json:"countryCode"`
			} `json:"address"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse locations: %w", err)
	}

	locations := make([]Location, 0, len(resp.Data))
	for _, l := range resp.Data {
		locations = append(locations, Location{
			IATACode:    l.IATACode,
			Name:        l.Name,
			CityName:    l.Address.CityName,
			CountryCode: l.Address.CountryCode,
			SubType:     l.SubType,
		})
	}
	return locations, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// parseDuration converts ISO 8601 duration (PT5H30M) to human readable (5h 30m)
func parseDuration(iso string) string {
	if iso == "" {
		return ""
	}
	d, err := time.ParseDuration(strings.ToLower(strings.TrimPrefix(iso, "PT")))
	if err != nil {
		return iso
	}
	return formatDurationMin(int(d.Minutes()))
}

func formatDurationMin(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

func parsePrice(s string) float64 {
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return price
}

// parseRating clamps Amadeus star ratings to 1-5, defaulting to 4.
func parseRating(s string) float64 {
	r, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || r <= 0 {
		return 4.0
	}
	return min(r, 5)
}

func currencyOr(c string) string {
	if c == "" {
		return "USD"
	}
	return strings.ToUpper(c)
}

func maxOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// airportToCity maps airport IATA codes to city codes for hotel search
func airportToCity(airport string) string {
	if city, ok := airportCities[airport]; ok {
		return city
	}
	return airport
}

var airportCities = map[string]string{
	"LHR": "LON", "LGW": "LON", "STN": "LON", "LTN": "LON",
	"CDG": "PAR", "ORY": "PAR",
	"JFK": "NYC", "LGA": "NYC", "EWR": "NYC",
	"BER": "BER", "SXF": "BER",
	"FCO": "ROM", "CIA": "ROM",
	"NRT": "TYO", "HND": "TYO",
	"MXP": "MIL", "LIN": "MIL",
	"GIG": "RIO", "SDU": "RIO",
	"ICN": "SEL", "GMP": "SEL",
}

// airlineName returns full airline name from IATA code
func airlineName(code string) string {
	if name, ok := airlineNames[code]; ok {
		return name
	}
	if code != "" {
		return code + " Airlines"
	}
	return "Unknown Airline"
}

var airlineNames = map[string]string{
	"TK": "Turkish Airlines", "LH": "Lufthansa", "AF": "Air France",
	"BA": "British Airways", "EK": "Emirates", "QR": "Qatar Airways",
	"FR": "Ryanair", "U2": "easyJet", "W6": "Wizz Air", "FZ": "flydubai",
	"UA": "United Airlines", "AA": "American Airlines", "DL": "Delta Air Lines",
	"KL": "KLM", "IB": "Iberia", "TP": "TAP Air Portugal", "AZ": "ITA Airways",
	"LX": "Swiss", "SQ": "Singapore Airlines", "CX": "Cathay Pacific",
	"NH": "ANA", "JL": "Japan Airlines", "EY": "Etihad Airways",
	"B6": "JetBlue", "AC": "Air Canada", "QF": "Qantas", "VS": "Virgin Atlantic",
}
