package controllers

import (
	"net/http"

	"github.com/abenezerk/predict-backend/models"
	"github.com/abenezerk/predict-backend/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict this in production to your domains
		return true
	},
}

// GameWebSocket joins a viewer to the experience's update stream. Tokens
// arrive as a query param since browsers can't set headers on websocket
// upgrades.
func (h *Handler) GameWebSocket(c *gin.Context) {
	experienceID := c.Param("experience_id")
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token query param"})
		return
	}

	userID, err := h.Entitlement.VerifyToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	level, err := h.Entitlement.AccessLevel(c.Request.Context(), userID, experienceID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider unavailable"})
		return
	}
	if level == models.LevelNone {
		c.JSON(http.StatusForbidden, gin.H{"error": "no access to experience"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("websocket upgrade failed: %v", err)
		return
	}

	h.Hub.Join(experienceID, userID, conn)
}
