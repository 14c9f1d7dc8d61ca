package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripplanner/logger"
	"tripplanner/services"
)

type FlightSearchRequest struct {
	Origin        string `json:"origin" binding:"required,iata"`
	Destination   string `json:"destination" binding:"required,iata"`
	DepartureDate string `json:"departure_date" binding:"required,isodate"`
	ReturnDate    string `json:"return_date" binding:"omitempty,isodate"`
	Adults        int    `json:"adults" binding:"omitempty,min=1,max=9"`
	Currency      string `json:"currency" binding:"omitempty,currency"`
	NonStop       bool   `json:"non_stop"`
	Max           int    `json:"max" binding:"omitempty,min=1,max=50"`
}

// SearchFlights returns live Amadeus offers, or estimated ones when Amadeus
// fails or has nothing for the route.
func (h *Handler) SearchFlights(c *gin.Context) {
	var req FlightSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	q := services.FlightQuery{
		Origin:        strings.ToUpper(req.Origin),
		Destination:   strings.ToUpper(req.Destination),
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Adults:        max(1, req.Adults),
		Currency:      strings.ToUpper(req.Currency),
		NonStop:       req.NonStop,
		Max:           req.Max,
	}
	if q.Origin == q.Destination {
		invalidField(c, "destination", "Must differ from origin")
		return
	}
	if !validDates(c, q.DepartureDate, q.ReturnDate, "return_date") {
		return
	}

	flights, source := h.Travel.Flights(c.Request.Context(), q)
	OKWithSource(c, flights, source, sourceWarning(source, "amadeus"))
}

type HotelSearchRequest struct {
	CityCode string `json:"city_code" binding:"required,iata"`
	CheckIn  string `json:"check_in" binding:"required,isodate"`
	CheckOut string `json:"check_out" binding:"required,isodate"`
	Adults   int    `json:"adults" binding:"omitempty,min=1,max=9"`
	Currency string `json:"currency" binding:"omitempty,currency"`
}

func (h *Handler) SearchHotels(c *gin.Context) {
	var req HotelSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}
	if !validDates(c, req.CheckIn, req.CheckOut, "check_out") {
		return
	}

	hotels, source := h.Travel.Hotels(c.Request.Context(), services.HotelQuery{
		CityCode: strings.ToUpper(req.CityCode),
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Adults:   max(1, req.Adults),
		Currency: strings.ToUpper(req.Currency),
	})
	OKWithSource(c, hotels, source, sourceWarning(source, "amadeus"))
}

type LocationQuery struct {
	Keyword string `form:"keyword" binding:"required,min=2,max=50"`
}

func (h *Handler) Locations(c *gin.Context) {
	var q LocationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ValidationFailed(c, err)
		return
	}
	locations, source := h.Travel.Locations(c.Request.Context(), strings.TrimSpace(q.Keyword))
	OKWithSource(c, locations, source, sourceWarning(source, "amadeus"))
}

type DirectFlightQuery struct {
	Origin        string `form:"origin" binding:"required,iata"`
	Destination   string `form:"destination" binding:"required,iata"`
	DepartureDate string `form:"departure_date" binding:"required,isodate"`
	ReturnDate    string `form:"return_date" binding:"omitempty,isodate"`
	Adults        int    `form:"adults" binding:"omitempty,min=1,max=9"`
}

// AmadeusDirectFlights passes the Amadeus flight-offers response through unchanged.
func (h *Handler) AmadeusDirectFlights(c *gin.Context) {
	var q DirectFlightQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ValidationFailed(c, err)
		return
	}

	params := url.Values{}
	params.Set("originLocationCode", strings.ToUpper(q.Origin))
	params.Set("destinationLocationCode", strings.ToUpper(q.Destination))
	params.Set("departureDate", q.DepartureDate)
	if q.ReturnDate != "" {
		params.Set("returnDate", q.ReturnDate)
	}
	params.Set("adults", strconv.Itoa(max(1, q.Adults)))
	params.Set("max", "10")

	h.amadeusDirect(c, "/v2/shopping/flight-offers", params)
}

type DirectHotelQuery struct {
	CityCode string `form:"city_code" binding:"required,iata"`
}

func (h *Handler) AmadeusDirectHotels(c *gin.Context) {
	var q DirectHotelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ValidationFailed(c, err)
		return
	}

	params := url.Values{}
	params.Set("cityCode", strings.ToUpper(q.CityCode))
	h.amadeusDirect(c, "/v1/reference-data/locations/hotels/by-city", params)
}

func (h *Handler) amadeusDirect(c *gin.Context, path string, params url.Values) {
	raw, err := h.Amadeus.Raw(c.Request.Context(), path, params)
	if errors.Is(err, services.ErrNotConfigured) {
		Fail(c, http.StatusServiceUnavailable, "amadeus is not configured")
		return
	}
	if err != nil {
		logger.FromContext(c).Warn("amadeus direct request failed", zap.String("path", path), zap.Error(err))
		Fail(c, http.StatusBadGateway, "amadeus request failed")
		return
	}
	OKWithSource(c, raw, services.SourceLive, "")
}

// validDates checks that end, when set, falls after start.
func validDates(c *gin.Context, start, end, endField string) bool {
	if end == "" {
		return true
	}
	s, err1 := time.Parse(time.DateOnly, start)
	e, err2 := time.Parse(time.DateOnly, end)
	if err1 != nil || err2 != nil {
		invalidField(c, endField, "Must be a valid date")
		return false
	}
	if !e.After(s) {
		invalidField(c, endField, "Must be after the start date")
		return false
	}
	return true
}

func sourceWarning(source, provider string) string {
	if source != services.SourceFallback {
		return ""
	}
	return provider + " is unavailable, showing estimated results"
}
