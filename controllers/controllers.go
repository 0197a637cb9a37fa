package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abenezerk/predict-backend/models"
	"github.com/abenezerk/predict-backend/services"

	"github.com/gin-gonic/gin"
)

// Handler bundles the service dependencies for the HTTP surface.
type Handler struct {
	Lifecycle   *services.Lifecycle
	Intake      *services.Intake
	Hub         *services.Hub
	Entitlement *services.EntitlementClient
	Stripe      *services.StripeProvider
}

func NewHandler(lifecycle *services.Lifecycle, intake *services.Intake, hub *services.Hub, entitlement *services.EntitlementClient, stripe *services.StripeProvider) *Handler {
	return &Handler{
		Lifecycle:   lifecycle,
		Intake:      intake,
		Hub:         hub,
		Entitlement: entitlement,
		Stripe:      stripe,
	}
}

// authenticate resolves the bearer token to a user id. Tier checks happen in
// the services once the game's experience is known.
func (h *Handler) authenticate(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return "", false
	}

	userID, err := h.Entitlement.VerifyToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		} else {
			c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider unavailable"})
		}
		return "", false
	}
	return userID, true
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUpstream):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
