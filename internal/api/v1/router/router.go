package router

import (
	"context"
	"net/http"
	"strings"

	"reelgen/internal/ai"
	"reelgen/internal/api/v1/handler"
	"reelgen/internal/config"
	"reelgen/internal/middleware"
	"reelgen/internal/paypal"
	"reelgen/internal/pgmq"
	"reelgen/internal/repository"
	"reelgen/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// Open DB connection (connection pooling)
	dsn := cfg.DBConnectionString
	// In a development environment, we want to ensure that SSL is disabled for
	// local testing. In production, the connection string should be provided
	// with the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// Resolve external credentials, optionally from Secret Manager.
	paypalSecret := cfg.PayPalClientSecret
	aiKey := cfg.AIAPIKey
	if cfg.SecretsBackend == "gcp" {
		secrets, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Secret Manager client")
			return nil, nil, err
		}
		if paypalSecret, err = secrets.GetCredential(ctx, cfg.PayPalSecretName); err != nil {
			logger.Error().Err(err).Msg("Failed to resolve PayPal client secret")
			return nil, nil, err
		}
		if aiKey, err = secrets.GetCredential(ctx, cfg.AISecretName); err != nil {
			logger.Error().Err(err).Msg("Failed to resolve AI provider key")
			return nil, nil, err
		}
	}

	// Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Initialize external clients
	aiClient := ai.NewClient(cfg.AIBaseURL, aiKey)
	paypalClient := paypal.New(cfg.PayPalMode, cfg.PayPalClientID, paypalSecret, cfg.FrontendURL)
	queue := pgmq.New(pool)

	// Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(pool)
	videoRepo := repository.NewVideoRepo(pool, logger)
	subscriptionRepo := repository.NewSubscriptionRepo(pool)

	videoSvc := service.NewVideoService(userRepo, videoRepo, aiClient, queue, cfg.FulfillmentQueueName, logger)
	subscriptionSvc := service.NewSubscriptionService(userRepo, subscriptionRepo, paypalClient, cfg.SubscriptionStatusStrictRemote, logger)

	videoHandler := handler.NewVideoHandler(videoSvc, validate, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionSvc, validate, logger)

	// Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	// Create ServeMux router
	mux := http.NewServeMux()

	// Create a subrouter for API v1
	apiV1Mux := http.NewServeMux()
	videoHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	subscriptionHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect /api/* to /v1/* for backward compatibility
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		http.Redirect(w, r, "/v1/"+rest, http.StatusMovedPermanently)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}
