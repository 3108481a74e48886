package fulfillment

import (
	"context"
	"encoding/json"
	"time"

	"reelgen/internal/ai"
	"reelgen/internal/config"
	"reelgen/internal/media"
	"reelgen/internal/model"
	"reelgen/internal/pgmq"
	"reelgen/internal/pubsub"
	"reelgen/internal/repository"

	"github.com/rs/zerolog"
)

// Queue is the subset of pgmq operations the worker needs.
type Queue interface {
	Send(ctx context.Context, queue string, payload []byte) error
	ReadWithPoll(ctx context.Context, queue string, timeoutSec, maxMessages int) ([]*Message, error)
	Delete(ctx context.Context, queue string, msgIDs []int64) error
	Archive(ctx context.Context, queue string, msgIDs []int64) error
}

// Message aliases the queue message type so fakes can construct it in tests.
type Message = pgmq.Message

// Deps bundles everything the fulfillment worker needs.
type Deps struct {
	Queue     Queue
	Videos    repository.VideoRepository
	AI        ai.Client
	Archiver  media.Archiver
	Publisher pubsub.Publisher
}

type jobEvent struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Run starts the fulfillment worker. It polls the durable queue, drives each
// job through script and video generation, and acknowledges the message only
// after the job has reached a terminal state.
func Run(ctx context.Context, logger zerolog.Logger, cfg *config.Config, d Deps) error {
	queue := cfg.FulfillmentQueueName
	logger.Info().Str("queue", queue).Msg("Starting fulfillment worker")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down fulfillment worker")
			return nil
		default:
		}
		msgs, err := d.Queue.ReadWithPoll(ctx, queue, cfg.FulfillmentPollTimeoutSec, cfg.FulfillmentPollMaxMsg)
		if err != nil {
			logger.Error().Err(err).Msg("Error reading fulfillment queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		logger.Info().Int64("msg_id", msg.ID).Msg("Received fulfillment job")

		var payload model.VideoJobMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			logger.Error().Err(err).Msg("Failed to unmarshal fulfillment payload; deleting message")
			if err := d.Queue.Delete(ctx, queue, []int64{msg.ID}); err != nil {
				logger.Error().Err(err).Msg("Error deleting malformed fulfillment message")
			}
			continue
		}

		jobErr := processJob(ctx, logger, cfg, d, &payload)
		if jobErr != nil {
			if ctx.Err() != nil {
				// Shutdown mid-job: leave the message unacked so another
				// worker picks it up.
				logger.Info().Msg("Shutting down fulfillment worker")
				return nil
			}
			handleFailure(ctx, logger, cfg, d, msg.ID, &payload, jobErr)
			continue
		}

		if err := d.Queue.Delete(ctx, queue, []int64{msg.ID}); err != nil {
			logger.Error().Err(err).Msg("Error deleting fulfillment message")
		}
		publishEvent(ctx, logger, cfg, d, jobEvent{
			JobID:  payload.JobID,
			UserID: payload.UserID,
			Status: string(model.VideoStatusCompleted),
		})
	}
}

// processJob runs the generation chain with retry and exponential backoff,
// then persists the completed media descriptor.
func processJob(ctx context.Context, logger zerolog.Logger, cfg *config.Config, d Deps, payload *model.VideoJobMessage) error {
	backoff := time.Duration(cfg.FulfillmentBackoffInitialSec) * time.Second
	maxBackoff := time.Duration(cfg.FulfillmentBackoffMaxSec) * time.Second

	var result *ai.VideoResult
	var genErr error
	for attempt := 1; attempt <= cfg.FulfillmentMaxRetries; attempt++ {
		start := time.Now()
		result, genErr = generate(ctx, d, payload)
		if genErr == nil {
			logger.Info().
				Str("job_id", payload.JobID).
				Str("duration", time.Since(start).String()).
				Msg("Video generation succeeded")
			break
		}
		logger.Error().Err(genErr).Str("job_id", payload.JobID).Int("attempt", attempt).Msg("Video generation failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	if genErr != nil {
		return genErr
	}

	videoURL := result.VideoURL
	thumbnailURL := result.ThumbnailURL
	// Provider URLs are short-lived; copy the media into our bucket. When
	// that fails the provider URLs are stored as-is rather than failing
	// the whole job.
	if d.Archiver != nil {
		if archived, err := d.Archiver.Archive(ctx, payload.JobID, result.VideoURL, "video"); err != nil {
			logger.Warn().Err(err).Str("job_id", payload.JobID).Msg("Archiving video failed, keeping provider URL")
		} else {
			videoURL = archived
		}
		if result.ThumbnailURL != "" {
			if archived, err := d.Archiver.Archive(ctx, payload.JobID, result.ThumbnailURL, "thumbnail"); err != nil {
				logger.Warn().Err(err).Str("job_id", payload.JobID).Msg("Archiving thumbnail failed, keeping provider URL")
			} else {
				thumbnailURL = archived
			}
		}
	}

	if err := d.Videos.MarkCompleted(ctx, payload.JobID, model.VideoResult{
		VideoURL:        videoURL,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: result.Duration,
		Metadata: model.VideoMetadata{
			FileSizeBytes: result.FileSizeBytes,
			Format:        result.Format,
		},
	}); err != nil {
		return err
	}
	return nil
}

func generate(ctx context.Context, d Deps, payload *model.VideoJobMessage) (*ai.VideoResult, error) {
	script, err := d.AI.GenerateScript(ctx, payload.Prompt, string(payload.Type))
	if err != nil {
		return nil, err
	}
	return d.AI.GenerateVideo(ctx, script, string(payload.Type), ai.VideoSettings{
		Style:      payload.Settings.Style,
		Resolution: string(payload.Resolution),
	})
}

// handleFailure marks the job failed, forwards the payload to the dead-letter
// queue and archives the original message for auditing.
func handleFailure(ctx context.Context, logger zerolog.Logger, cfg *config.Config, d Deps, msgID int64, payload *model.VideoJobMessage, jobErr error) {
	if err := d.Videos.MarkFailed(ctx, payload.JobID); err != nil {
		logger.Error().Err(err).Str("job_id", payload.JobID).Msg("Failed to mark job as failed")
	}

	dlq := cfg.FulfillmentDeadLetterQueueName
	if msgBytes, err := json.Marshal(payload); err == nil {
		if err := d.Queue.Send(ctx, dlq, msgBytes); err != nil {
			logger.Error().Err(err).Str("dlq", dlq).Msg("Failed to send message to dead-letter queue")
		}
	} else {
		logger.Error().Err(err).Msg("Failed to marshal payload for dead-letter queue")
	}

	if err := d.Queue.Archive(ctx, cfg.FulfillmentQueueName, []int64{msgID}); err != nil {
		logger.Error().Err(err).Msg("Error archiving fulfillment message after failure")
	}

	logger.Warn().
		Int("attempts", cfg.FulfillmentMaxRetries).
		Str("job_id", payload.JobID).
		Err(jobErr).
		Msg("Exhausted all fulfillment retries; moving job to DLQ")

	publishEvent(ctx, logger, cfg, d, jobEvent{
		JobID:  payload.JobID,
		UserID: payload.UserID,
		Status: string(model.VideoStatusFailed),
		Error:  jobErr.Error(),
	})
}

func publishEvent(ctx context.Context, logger zerolog.Logger, cfg *config.Config, d Deps, ev jobEvent) {
	if d.Publisher == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal job event")
		return
	}
	if _, err := d.Publisher.Publish(ctx, cfg.VideoEventsTopic, data); err != nil {
		logger.Error().Err(err).Str("job_id", ev.JobID).Msg("Failed to publish job event")
	}
}
