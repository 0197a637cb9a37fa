package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/abenezerk/predict-backend/models"
	"github.com/abenezerk/predict-backend/utils/logger"

	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = int64(65536)

// PaymentWebhook receives the provider's signed payment events. Malformed
// events are logged and dropped with a 2xx so the provider stops retrying
// them; storage failures return 5xx so the delivery is retried.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	limited := http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := io.ReadAll(limited)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
		return
	}

	conf, err := h.Stripe.ParseConfirmation(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.Errorf("webhook rejected: %v", err)
		if errors.Is(err, models.ErrUpstream) {
			// Provider lookup hiccup; 5xx so the event is redelivered.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation lookup failed"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}
	if conf == nil {
		// Event type we don't care about.
		c.String(http.StatusOK, "OK")
		return
	}

	if err := h.Intake.RecordConfirmedPayment(c.Request.Context(), *conf); err != nil {
		if errors.Is(err, models.ErrValidation) {
			logger.Errorf("dropping payment confirmation: %v", err)
			c.String(http.StatusOK, "OK")
			return
		}
		logger.Errorf("failed to record payment confirmation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record vote"})
		return
	}

	c.String(http.StatusOK, "OK")
}
