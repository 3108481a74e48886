package service

import (
	"context"
	"encoding/json"
	"fmt"

	"reelgen/internal/ai"
	"reelgen/internal/model"
	"reelgen/internal/repository"

	"github.com/rs/zerolog"
)

// JobQueue is the durable queue the workflow enqueues fulfillment work into.
// Satisfied by pgmq.Client.
type JobQueue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

// SubmitParams carries a validated video generation request.
type SubmitParams struct {
	Title    string
	Prompt   string
	Type     model.VideoType
	Settings model.VideoSettings
}

// VideoService orchestrates video generation: quota, job creation and
// dispatch of the durable fulfillment work item.
type VideoService interface {
	Submit(ctx context.Context, userID string, p SubmitParams) (*model.VideoJob, error)
	// GetJob returns the job only when owned by userID; missing and
	// foreign-owned jobs both surface ErrJobNotFound.
	GetJob(ctx context.Context, userID, jobID string) (*model.VideoJob, error)
	// GenerateScript is a stateless passthrough: no quota check, nothing
	// persisted.
	GenerateScript(ctx context.Context, prompt string, videoType model.VideoType) (string, error)
	GenerateImage(ctx context.Context, prompt, style string) (string, error)
	GenerateVoiceover(ctx context.Context, text, voice string) ([]byte, error)
}

type videoService struct {
	users     repository.UserRepository
	videos    repository.VideoRepository
	aiClient  ai.Client
	queue     JobQueue
	queueName string
	logger    zerolog.Logger
}

// NewVideoService creates a VideoService with a scoped logger.
func NewVideoService(
	users repository.UserRepository,
	videos repository.VideoRepository,
	aiClient ai.Client,
	queue JobQueue,
	queueName string,
	logger zerolog.Logger,
) VideoService {
	return &videoService{
		users:     users,
		videos:    videos,
		aiClient:  aiClient,
		queue:     queue,
		queueName: queueName,
		logger:    logger.With().Str("service", "VideoService").Logger(),
	}
}

func (s *videoService) Submit(ctx context.Context, userID string, p SubmitParams) (*model.VideoJob, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for submission")
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, repository.ErrUserNotFound
	}

	// Conditional increment: the quota check and the counter update are one
	// statement, so concurrent submissions cannot overrun the limit.
	if err := s.users.ConsumeVideoCredit(ctx, userID); err != nil {
		return nil, err
	}

	job := &model.VideoJob{
		UserID:     userID,
		Title:      p.Title,
		Prompt:     p.Prompt,
		Type:       p.Type,
		Status:     model.VideoStatusProcessing,
		Resolution: model.ResolutionForTier(user.Subscription.Tier),
		Settings:   p.Settings,
	}
	job, err = s.videos.Create(ctx, job)
	if err != nil {
		// The consumed credit is not refunded; the counter only increases.
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create video job after consuming credit")
		return nil, fmt.Errorf("create video job: %w", err)
	}

	msg := model.VideoJobMessage{
		JobID:      job.ID,
		UserID:     userID,
		Prompt:     p.Prompt,
		Type:       p.Type,
		Settings:   p.Settings,
		Resolution: job.Resolution,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal fulfillment message: %w", err)
	}
	if err := s.queue.Send(ctx, s.queueName, payload); err != nil {
		// Without a queued work item the job would sit in processing
		// forever; fail it now so the caller sees a terminal state.
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to enqueue fulfillment work item")
		if markErr := s.videos.MarkFailed(ctx, job.ID); markErr != nil {
			s.logger.Error().Err(markErr).Str("job_id", job.ID).Msg("Failed to mark unqueued job failed")
		}
		return nil, fmt.Errorf("enqueue fulfillment: %w", err)
	}

	s.logger.Info().Str("job_id", job.ID).Str("user_id", userID).Str("type", string(p.Type)).Msg("Video generation job queued")
	return job, nil
}

func (s *videoService) GetJob(ctx context.Context, userID, jobID string) (*model.VideoJob, error) {
	job, err := s.videos.GetByIDAndUser(ctx, jobID, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to fetch video job")
		return nil, fmt.Errorf("fetch video job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (s *videoService) GenerateScript(ctx context.Context, prompt string, videoType model.VideoType) (string, error) {
	script, err := s.aiClient.GenerateScript(ctx, prompt, string(videoType))
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(videoType)).Msg("Script generation failed")
		return "", err
	}
	return script, nil
}

func (s *videoService) GenerateImage(ctx context.Context, prompt, style string) (string, error) {
	url, err := s.aiClient.GenerateImage(ctx, prompt, style)
	if err != nil {
		s.logger.Error().Err(err).Msg("Image generation failed")
		return "", err
	}
	return url, nil
}

func (s *videoService) GenerateVoiceover(ctx context.Context, text, voice string) ([]byte, error) {
	audio, err := s.aiClient.GenerateVoiceover(ctx, text, voice)
	if err != nil {
		s.logger.Error().Err(err).Msg("Voiceover generation failed")
		return nil, err
	}
	return audio, nil
}
