package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings.
type Config struct {
	DatabaseURL         string
	Port                string
	FrontendOrigin      string
	StripeSecretKey     string
	StripeWebhookSecret string
	// Platform fee percentage deducted from the pool before distribution,
	// e.g. 3 for 3%. Reported by the payment provider implementation.
	PlatformFeePercent float64
	// Destination account for the house share of settled games.
	CompanyAccountID  string
	EntitlementAPIURL string
}

// LoadConfig reads .env (if present) and validates required vars.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Port:                getEnv("PORT", "4000"),
		FrontendOrigin:      getEnv("FRONTEND_ORIGIN", "http://localhost:3000"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CompanyAccountID:    os.Getenv("COMPANY_ACCOUNT_ID"),
		EntitlementAPIURL:   os.Getenv("ENTITLEMENT_API_URL"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("[FATAL] DATABASE_URL is required in .env or environment")
	}
	if cfg.EntitlementAPIURL == "" {
		log.Fatal("[FATAL] ENTITLEMENT_API_URL is required in .env or environment")
	}

	feeStr := getEnv("PLATFORM_FEE_PERCENT", "3")
	fee, err := strconv.ParseFloat(feeStr, 64)
	if err != nil {
		log.Fatalf("[FATAL] Invalid PLATFORM_FEE_PERCENT %q: %v", feeStr, err)
	}
	cfg.PlatformFeePercent = fee

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
