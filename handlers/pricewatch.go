package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripplanner/database"
	"tripplanner/logger"
)

type PriceWatchRequest struct {
	Origin        string          `json:"origin" binding:"required,iata"`
	Destination   string          `json:"destination" binding:"required,iata"`
	DepartureDate string          `json:"departure_date" binding:"required,isodate"`
	ReturnDate    string          `json:"return_date" binding:"omitempty,isodate"`
	TargetPrice   decimal.Decimal `json:"target_price"`
	Currency      string          `json:"currency" binding:"omitempty,currency"`
}

func (h *Handler) CreatePriceWatch(c *gin.Context) {
	var req PriceWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}
	if !req.TargetPrice.IsPositive() {
		invalidField(c, "target_price", "Must be greater than 0")
		return
	}
	if !validDates(c, req.DepartureDate, req.ReturnDate, "return_date") {
		return
	}

	w := &database.PriceWatch{
		UserID:        user(c).ID,
		Origin:        strings.ToUpper(req.Origin),
		Destination:   strings.ToUpper(req.Destination),
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		TargetPrice:   req.TargetPrice.Round(2),
		Currency:      strings.ToUpper(orDefault(req.Currency, "USD")),
	}
	if err := h.Store.CreatePriceWatch(c.Request.Context(), w); err != nil {
		storeError(c, err, "price watch")
		return
	}
	Created(c, w)
}

func (h *Handler) ListPriceWatches(c *gin.Context) {
	watches, err := h.Store.ListPriceWatches(c.Request.Context(), user(c).ID)
	if err != nil {
		storeError(c, err, "price watches")
		return
	}
	OK(c, watches)
}

func (h *Handler) DeletePriceWatch(c *gin.Context) {
	if err := h.Store.DeletePriceWatch(c.Request.Context(), user(c).ID, c.Param("id")); err != nil {
		storeError(c, err, "price watch")
		return
	}
	OK(c, gin.H{"deleted": true})
}

// CheckPriceWatch re-prices one watch now instead of waiting for the background loop.
func (h *Handler) CheckPriceWatch(c *gin.Context) {
	ctx := c.Request.Context()
	w, err := h.Store.GetPriceWatch(ctx, user(c).ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "price watch")
		return
	}
	if !w.Active {
		Fail(c, http.StatusConflict, "price watch has already triggered")
		return
	}

	res, err := h.Prices.Check(ctx, *w)
	if err != nil {
		logger.FromContext(c).Error("price check failed", zap.String("watch_id", w.ID), zap.Error(err))
		Fail(c, http.StatusBadGateway, "price check failed")
		return
	}
	OKWithSource(c, res, res.Source, sourceWarning(res.Source, "amadeus"))
}
