package model

import "time"

// VideoStatus is the lifecycle state of a generation job.
type VideoStatus string

const (
	// VideoStatusPending is reserved for a future pre-flight validation
	// step; jobs are currently created directly in processing.
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// IsTerminal returns true if the status is never revisited.
func (s VideoStatus) IsTerminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// VideoType is the kind of marketing video being generated.
type VideoType string

const (
	VideoTypeCommercial VideoType = "commercial"
	VideoTypeSocial     VideoType = "social"
	VideoTypeTour       VideoType = "tour"
	VideoTypeProduct    VideoType = "product"
)

// Valid reports whether t is one of the supported video types.
func (t VideoType) Valid() bool {
	switch t {
	case VideoTypeCommercial, VideoTypeSocial, VideoTypeTour, VideoTypeProduct:
		return true
	}
	return false
}

// Resolution of the rendered video, fixed at job creation from the plan tier.
type Resolution string

const (
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
	Resolution4K    Resolution = "4k"
)

// ResolutionForTier maps a plan tier to the rendering resolution. The policy
// is two-level: free renders at 720p, every paid tier at 1080p.
func ResolutionForTier(tier PlanTier) Resolution {
	if tier == TierFree {
		return Resolution720p
	}
	return Resolution1080p
}

// VideoSettings are caller-supplied rendering preferences.
type VideoSettings struct {
	Music     string `json:"music,omitempty"`
	Voiceover bool   `json:"voiceover,omitempty"`
	Style     string `json:"style,omitempty"`
	Format    string `json:"format,omitempty"`
}

// VideoMetadata describes the produced media file.
type VideoMetadata struct {
	FileSizeBytes int64  `json:"file_size_bytes,omitempty"`
	Format        string `json:"format,omitempty"`
	Codec         string `json:"codec,omitempty"`
}

// VideoResult is the media descriptor persisted when a job completes.
type VideoResult struct {
	VideoURL        string
	ThumbnailURL    string
	DurationSeconds int
	Metadata        VideoMetadata
}

// VideoJob is a persisted record of one generation request and its outcome.
type VideoJob struct {
	ID              string        `db:"id" json:"video_id"`
	UserID          string        `db:"user_id" json:"user_id"`
	Title           string        `db:"title" json:"title"`
	Prompt          string        `db:"prompt" json:"prompt"`
	Type            VideoType     `db:"video_type" json:"type"`
	Status          VideoStatus   `db:"status" json:"status"`
	Resolution      Resolution    `db:"resolution" json:"resolution"`
	VideoURL        *string       `db:"video_url" json:"video_url,omitempty"`
	ThumbnailURL    *string       `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	DurationSeconds *int          `db:"duration_seconds" json:"duration_seconds,omitempty"`
	Settings        VideoSettings `db:"settings" json:"settings"`
	Metadata        VideoMetadata `db:"metadata" json:"metadata"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// VideoJobMessage is the durable fulfillment work item enqueued on submit and
// consumed by the fulfillment worker.
type VideoJobMessage struct {
	JobID      string        `json:"job_id"`
	UserID     string        `json:"user_id"`
	Prompt     string        `json:"prompt"`
	Type       VideoType     `json:"type"`
	Settings   VideoSettings `json:"settings"`
	Resolution Resolution    `json:"resolution"`
}
