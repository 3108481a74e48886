package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	FrontendURL        string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	// AI provider settings
	AIBaseURL string `envconfig:"AI_BASE_URL" default:"https://api.puter.com/v1"`
	AIAPIKey  string `envconfig:"AI_API_KEY"`

	// PayPal settings
	PayPalMode         string `envconfig:"PAYPAL_MODE" default:"sandbox"`
	PayPalClientID     string `envconfig:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `envconfig:"PAYPAL_CLIENT_SECRET"`

	// Secrets backend: "env" reads credentials from the variables above,
	// "gcp" resolves them from Secret Manager at startup.
	SecretsBackend   string `envconfig:"SECRETS_BACKEND" default:"env"`
	GCPProjectID     string `envconfig:"GCP_PROJECT_ID"`
	PayPalSecretName string `envconfig:"PAYPAL_SECRET_NAME" default:"paypal-client-secret"`
	AISecretName     string `envconfig:"AI_SECRET_NAME" default:"ai-provider-key"`

	// Fulfillment worker settings
	FulfillmentQueueName           string `envconfig:"FULFILLMENT_QUEUE_NAME" default:"video_fulfillment_queue"`
	FulfillmentDeadLetterQueueName string `envconfig:"FULFILLMENT_DEAD_LETTER_QUEUE_NAME" default:"video_fulfillment_queue_dlq"`
	FulfillmentPollTimeoutSec      int    `envconfig:"FULFILLMENT_POLL_TIMEOUT_SEC" default:"30"`
	FulfillmentPollMaxMsg          int    `envconfig:"FULFILLMENT_POLL_MAX_MSG" default:"1"`
	FulfillmentMaxRetries          int    `envconfig:"FULFILLMENT_MAX_RETRIES" default:"3"`
	FulfillmentBackoffInitialSec   int    `envconfig:"FULFILLMENT_BACKOFF_INITIAL_SEC" default:"2"`
	FulfillmentBackoffMaxSec       int    `envconfig:"FULFILLMENT_BACKOFF_MAX_SEC" default:"60"`

	// Reconcile worker settings
	ReconcileIntervalSec int `envconfig:"RECONCILE_INTERVAL_SEC" default:"300"`
	ReconcileBatchSize   int `envconfig:"RECONCILE_BATCH_SIZE" default:"50"`

	// Pub/Sub notification settings
	VideoEventsTopic string `envconfig:"VIDEO_EVENTS_TOPIC" default:"video-events"`

	// Media archive (S3-compatible storage) settings
	S3URL        string `envconfig:"S3_URL"`
	S3Bucket     string `envconfig:"S3_BUCKET"`
	S3Region     string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey  string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey  string `envconfig:"S3_SECRET_KEY"`
	MediaBaseURL string `envconfig:"MEDIA_BASE_URL"`

	// When true, a failed remote fetch fails GET /subscriptions/status
	// instead of degrading to local-only data.
	SubscriptionStatusStrictRemote bool `envconfig:"SUBSCRIPTION_STATUS_STRICT_REMOTE" default:"false"`

	// Quota applied to users on the free tier.
	FreeTierVideoLimit int `envconfig:"FREE_TIER_VIDEO_LIMIT" default:"3"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
