package main

import (
	"log"
	"net/http"
	"time"

	"github.com/abenezerk/predict-backend/config"
	"github.com/abenezerk/predict-backend/controllers"
	"github.com/abenezerk/predict-backend/repository"
	"github.com/abenezerk/predict-backend/routes"
	"github.com/abenezerk/predict-backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupRouter initializes Gin routes and middleware
func setupRouter(cfg *config.Config, h *controllers.Handler) *gin.Engine {
	r := gin.Default()

	// Middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup REST routes
	routes.SetupRoutes(r, h)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket game updates endpoint
	r.GET("/ws/:experience_id", h.GameWebSocket)

	return r
}

func main() {
	// Load env variables
	cfg := config.LoadConfig()

	// Connect to database
	db := config.SetupDatabase(cfg.DatabaseURL)
	store := repository.New(db)

	// External collaborators
	entitlement := services.NewEntitlementClient(cfg.EntitlementAPIURL)
	provider := services.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.PlatformFeePercent, cfg.FrontendOrigin)

	// Core services
	hub := services.NewHub(store)
	settlement := services.NewSettlement(store, provider, cfg.CompanyAccountID)
	lifecycle := services.NewLifecycle(store, entitlement, settlement, hub)
	intake := services.NewIntake(store, entitlement, provider, hub)

	h := controllers.NewHandler(lifecycle, intake, hub, entitlement, provider)

	// Setup Gin router
	router := setupRouter(cfg, h)

	// Start server
	log.Printf("🚀 Prediction game backend starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("[FATAL] Failed to start server: %v", err)
	}
}
