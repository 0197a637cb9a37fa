package routes

import (
	"github.com/abenezerk/predict-backend/controllers"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *controllers.Handler) {
	api := r.Group("/api")

	// ----------------------
	// Game routes
	// ----------------------
	api.POST("/games", h.CreateGame)                              // Create game (admin)
	api.GET("/experiences/:experience_id/game", h.LoadGame)       // Current game with counts
	api.POST("/games/:id/close", h.CloseBidding)                  // Close bidding (admin)
	api.POST("/answers/:id/reveal", h.RevealAnswer)               // Reveal answer and settle (admin)

	// ----------------------
	// Vote routes
	// ----------------------
	api.POST("/answers/:id/vote", h.SubmitVote) // Pay to vote

	// ----------------------
	// Payment provider callbacks
	// ----------------------
	r.POST("/webhooks/payments", h.PaymentWebhook)
}
