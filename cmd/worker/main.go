package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"reelgen/internal/ai"
	"reelgen/internal/config"
	"reelgen/internal/logger"
	"reelgen/internal/media"
	"reelgen/internal/paypal"
	"reelgen/internal/pgmq"
	"reelgen/internal/pubsub"
	"reelgen/internal/repository"
	"reelgen/internal/service"
	"reelgen/internal/worker/fulfillment"
	"reelgen/internal/worker/reconcile"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Worker mode: fulfillment|reconcile")
	flag.Parse()

	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize DB pool
	pool, err := pgxpool.New(ctx, cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	// Resolve external credentials, optionally from Secret Manager.
	paypalSecret := cfg.PayPalClientSecret
	aiKey := cfg.AIAPIKey
	if cfg.SecretsBackend == "gcp" {
		secrets, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
		if paypalSecret, err = secrets.GetCredential(ctx, cfg.PayPalSecretName); err != nil {
			logger.Fatal().Msgf("Failed to resolve PayPal client secret: %v", err)
		}
		if aiKey, err = secrets.GetCredential(ctx, cfg.AISecretName); err != nil {
			logger.Fatal().Msgf("Failed to resolve AI provider key: %v", err)
		}
	}

	// Dispatch to the selected worker
	var runErr error
	switch *mode {
	case "fulfillment":
		runErr = runFulfillment(ctx, logger, cfg, pool, aiKey)
	case "reconcile":
		subs := repository.NewSubscriptionRepo(pool)
		payments := paypal.New(cfg.PayPalMode, cfg.PayPalClientID, paypalSecret, cfg.FrontendURL)
		runErr = reconcile.Run(ctx, logger, cfg, subs, payments)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s worker failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s worker stopped gracefully", *mode)
}

func runFulfillment(ctx context.Context, logger zerolog.Logger, cfg *config.Config, pool *pgxpool.Pool, aiKey string) error {
	deps := fulfillment.Deps{
		Queue:  pgmq.New(pool),
		Videos: repository.NewVideoRepo(pool, logger),
		AI:     ai.NewClient(cfg.AIBaseURL, aiKey),
	}

	// S3 media archival is optional; without a bucket the provider URLs are
	// stored directly.
	if cfg.S3Bucket != "" {
		s3Config, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
			awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
		)
		if err != nil {
			logger.Fatal().Msgf("Failed to load S3 config: %v", err)
		}
		s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3URL)
			o.UsePathStyle = true
		})
		deps.Archiver = media.NewS3Archiver(s3Client, cfg.S3Bucket, cfg.MediaBaseURL, logger)
	}

	// Pub/Sub completion events are optional; without a project they are
	// skipped.
	if cfg.GCPProjectID != "" {
		publisher, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		deps.Publisher = publisher
	}

	return fulfillment.Run(ctx, logger, cfg, deps)
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
