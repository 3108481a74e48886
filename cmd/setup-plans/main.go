package main

import (
	"context"
	"fmt"

	"reelgen/internal/config"
	"reelgen/internal/logger"
	"reelgen/internal/model"
	"reelgen/internal/paypal"
	"reelgen/internal/service"

	"github.com/joho/godotenv"
)

// Registers the product catalog and billing plans with PayPal. Run once per
// environment; the printed plan IDs go into the frontend checkout config.
func main() {
	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx := context.Background()

	paypalSecret := cfg.PayPalClientSecret
	if cfg.SecretsBackend == "gcp" {
		secrets, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
		if paypalSecret, err = secrets.GetCredential(ctx, cfg.PayPalSecretName); err != nil {
			logger.Fatal().Msgf("Failed to resolve PayPal client secret: %v", err)
		}
	}

	client := paypal.New(cfg.PayPalMode, cfg.PayPalClientID, paypalSecret, cfg.FrontendURL)

	productID, err := client.CreateProduct(ctx, "ReelGen", "AI generated marketing videos")
	if err != nil {
		logger.Fatal().Msgf("Failed to create product: %v", err)
	}
	logger.Info().Str("product_id", productID).Msg("Product created")

	for _, plan := range model.Plans {
		remoteID, err := client.CreatePlan(ctx, paypal.PlanParams{
			ProductID:   productID,
			Name:        plan.Name,
			Description: plan.Description,
			PriceValue:  fmt.Sprintf("%d.%02d", plan.PriceCents/100, plan.PriceCents%100),
			Interval:    "MONTH",
		})
		if err != nil {
			logger.Fatal().Msgf("Failed to create plan %s: %v", plan.ID, err)
		}
		logger.Info().Str("plan", plan.ID).Str("paypal_plan_id", remoteID).Msg("Plan created")
	}
}
