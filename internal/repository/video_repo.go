package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"reelgen/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// VideoRepository defines persistence for video generation jobs.
type VideoRepository interface {
	Create(ctx context.Context, job *model.VideoJob) (*model.VideoJob, error)
	// GetByIDAndUser returns nil, nil when the job does not exist or belongs
	// to a different user; callers cannot distinguish the two.
	GetByIDAndUser(ctx context.Context, jobID, userID string) (*model.VideoJob, error)
	// MarkCompleted transitions a processing job to completed with its media
	// descriptor. A job already in a terminal state is left untouched.
	MarkCompleted(ctx context.Context, jobID string, res model.VideoResult) error
	// MarkFailed transitions a processing job to failed. No partial result
	// fields are written.
	MarkFailed(ctx context.Context, jobID string) error
}

type videoRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVideoRepo creates a new VideoRepository.
func NewVideoRepo(pool *pgxpool.Pool, logger zerolog.Logger) VideoRepository {
	return &videoRepo{pool: pool, logger: logger.With().Str("repository", "VideoRepository").Logger()}
}

func (r *videoRepo) Create(ctx context.Context, job *model.VideoJob) (*model.VideoJob, error) {
	settings, err := json.Marshal(job.Settings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	const q = `
        INSERT INTO video_jobs (user_id, title, prompt, video_type, status, resolution, settings)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at
    `
	err = r.pool.QueryRow(ctx, q,
		job.UserID, job.Title, job.Prompt, job.Type, job.Status, job.Resolution, settings,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create video job for user %s: %w", job.UserID, err)
	}
	return job, nil
}

func (r *videoRepo) GetByIDAndUser(ctx context.Context, jobID, userID string) (*model.VideoJob, error) {
	const q = `
        SELECT id, user_id, title, prompt, video_type, status, resolution,
               video_url, thumbnail_url, duration_seconds, settings,
               file_size_bytes, file_format, codec, created_at, updated_at
        FROM video_jobs
        WHERE id = $1 AND user_id = $2
    `
	var (
		j        model.VideoJob
		settings []byte
		size     *int64
		format   *string
		codec    *string
	)
	err := r.pool.QueryRow(ctx, q, jobID, userID).Scan(
		&j.ID, &j.UserID, &j.Title, &j.Prompt, &j.Type, &j.Status, &j.Resolution,
		&j.VideoURL, &j.ThumbnailURL, &j.DurationSeconds, &settings,
		&size, &format, &codec, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch video job %s: %w", jobID, err)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &j.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal settings for job %s: %w", jobID, err)
		}
	}
	if size != nil {
		j.Metadata.FileSizeBytes = *size
	}
	if format != nil {
		j.Metadata.Format = *format
	}
	if codec != nil {
		j.Metadata.Codec = *codec
	}
	return &j, nil
}

// The status guard keeps terminal states final even if a message is somehow
// delivered twice.
func (r *videoRepo) MarkCompleted(ctx context.Context, jobID string, res model.VideoResult) error {
	const q = `
        UPDATE video_jobs
        SET status = $2,
            video_url = $3,
            thumbnail_url = $4,
            duration_seconds = $5,
            file_size_bytes = $6,
            file_format = $7,
            codec = NULLIF($8, ''),
            updated_at = NOW()
        WHERE id = $1 AND status = $9
    `
	tag, err := r.pool.Exec(ctx, q, jobID, model.VideoStatusCompleted,
		res.VideoURL, res.ThumbnailURL, res.DurationSeconds,
		res.Metadata.FileSizeBytes, res.Metadata.Format, res.Metadata.Codec,
		model.VideoStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark video job %s completed: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("job_id", jobID).Msg("Completion skipped: job not in processing state")
	}
	return nil
}

func (r *videoRepo) MarkFailed(ctx context.Context, jobID string) error {
	const q = `
        UPDATE video_jobs
        SET status = $2, updated_at = NOW()
        WHERE id = $1 AND status = $3
    `
	tag, err := r.pool.Exec(ctx, q, jobID, model.VideoStatusFailed, model.VideoStatusProcessing)
	if err != nil {
		return fmt.Errorf("mark video job %s failed: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("job_id", jobID).Msg("Failure skipped: job not in processing state")
	}
	return nil
}
