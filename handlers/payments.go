package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripplanner/database"
	"tripplanner/logger"
	"tripplanner/services"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 64 << 10

type CheckoutRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
}

func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	u := user(c)
	res, err := h.Payments.CreateCheckout(c.Request.Context(), u.ID, u.Email, req.BookingID)
	switch {
	case err == nil:
		OK(c, res)
	case errors.Is(err, database.ErrNotFound):
		Fail(c, http.StatusNotFound, "booking not found")
	case errors.Is(err, services.ErrBookingNotPayable):
		Fail(c, http.StatusConflict, "booking is not awaiting payment")
	case errors.Is(err, services.ErrNotConfigured):
		Fail(c, http.StatusServiceUnavailable, "payments are not configured")
	default:
		logger.FromContext(c).Error("checkout failed", zap.String("booking_id", req.BookingID), zap.Error(err))
		Fail(c, http.StatusBadGateway, "could not start checkout")
	}
}

// StripeWebhook verifies and applies a Stripe event. Processing errors answer 500
// so Stripe retries the delivery.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Fail(c, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		Fail(c, http.StatusBadRequest, "could not read payload")
		return
	}

	res, err := h.Payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, services.ErrInvalidSignature) {
		logger.FromContext(c).Warn("rejected stripe webhook", zap.Error(err))
		Fail(c, http.StatusBadRequest, "invalid signature")
		return
	}
	if err != nil {
		logger.FromContext(c).Error("stripe webhook processing failed", zap.Error(err))
		Fail(c, http.StatusInternalServerError, "webhook processing failed")
		return
	}
	OK(c, res)
}

func (h *Handler) ListPayments(c *gin.Context) {
	txns, err := h.Store.ListPaymentTransactions(c.Request.Context(), user(c).ID)
	if err != nil {
		storeError(c, err, "payments")
		return
	}
	OK(c, txns)
}
