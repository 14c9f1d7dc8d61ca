package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tripplanner/services"
)

type WeatherQuery struct {
	City string `form:"city" binding:"required,max=100"`
}

func (h *Handler) GetWeather(c *gin.Context) {
	var q WeatherQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ValidationFailed(c, err)
		return
	}
	weather, source := h.Weather.Current(c.Request.Context(), strings.TrimSpace(q.City))
	OKWithSource(c, weather, source, sourceWarning(source, "openweathermap"))
}

type CurrencyQuery struct {
	From   string `form:"from" binding:"required,currency"`
	To     string `form:"to" binding:"required,currency"`
	Amount string `form:"amount"`
}

// ConvertCurrency converts amount (default 1) between two currencies.
func (h *Handler) ConvertCurrency(c *gin.Context) {
	var q CurrencyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ValidationFailed(c, err)
		return
	}

	amount := decimal.NewFromInt(1)
	if q.Amount != "" {
		var err error
		amount, err = decimal.NewFromString(q.Amount)
		if err != nil || amount.IsNegative() {
			invalidField(c, "amount", "Must be a non-negative number")
			return
		}
	}

	conv, source, err := h.Currency.Convert(c.Request.Context(), strings.ToUpper(q.From), strings.ToUpper(q.To), amount)
	if errors.Is(err, services.ErrUnknownCurrency) {
		Fail(c, http.StatusBadRequest, "unsupported currency")
		return
	}
	if err != nil {
		Fail(c, http.StatusInternalServerError, "currency conversion failed")
		return
	}
	OKWithSource(c, conv, source, sourceWarning(source, "exchangerate"))
}

type TravelHacksRequest struct {
	Destination string `json:"destination" binding:"required,max=100"`
	BudgetLevel string `json:"budget_level" binding:"omitempty,oneof=budget moderate luxury"`
	Month       string `json:"month" binding:"max=20"`
}

func (h *Handler) TravelHacks(c *gin.Context) {
	var req TravelHacksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}
	hacks := services.TravelHacks(services.TravelHacksRequest{
		Destination: strings.TrimSpace(req.Destination),
		BudgetLevel: orDefault(req.BudgetLevel, "moderate"),
		Month:       req.Month,
	})
	OKWithSource(c, hacks, services.SourceStatic, "")
}

type AffiliateQuery struct {
	Type          string `form:"type" binding:"required,oneof=flight hotel activity"`
	Origin        string `form:"origin" binding:"required_if=Type flight,omitempty,iata"`
	Destination   string `form:"destination" binding:"required_if=Type flight,omitempty,iata"`
	DepartureDate string `form:"departure_date" binding:"required_if=Type flight,omitempty,isodate"`
	ReturnDate    string `form:"return_date" binding:"omitempty,isodate"`
	City          string `form:"city" binding:"required_unless=Type flight,max=100"`
	CheckIn       string `form:"check_in" binding:"omitempty,isodate"`
	CheckOut      string `form:"check_out" binding:"omitempty,isodate"`
	Adults        int    `form:"adults" binding:"omitempty,min=1,max=9"`
}

// AffiliateLinks builds a partner deep link for a flight, hotel or activity search.
func (h *Handler) AffiliateLinks(c *gin.Context) {
	var q AffiliateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ValidationFailed(c, err)
		return
	}

	var link string
	switch q.Type {
	case "flight":
		link = h.Links.FlightLink(strings.ToUpper(q.Origin), strings.ToUpper(q.Destination), q.DepartureDate, q.ReturnDate, q.Adults)
	case "hotel":
		link = h.Links.HotelLink(strings.TrimSpace(q.City), q.CheckIn, q.CheckOut, q.Adults)
	default:
		link = h.Links.ActivityLink(strings.TrimSpace(q.City))
	}
	OKWithSource(c, gin.H{"type": q.Type, "url": link}, services.SourceStatic, "")
}
