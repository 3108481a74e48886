package dto

import "time"

type VideoSettingsDTO struct {
	Music     string `json:"music,omitempty"`
	Voiceover bool   `json:"voiceover,omitempty"`
	Style     string `json:"style,omitempty"`
	Format    string `json:"format,omitempty"`
}

type VideoCreateDTO struct {
	Title    string            `json:"title" validate:"required,min=3,max=100"`
	Prompt   string            `json:"prompt" validate:"required,min=10,max=500"`
	Type     string            `json:"type" validate:"required,oneof=commercial social tour product"`
	Settings *VideoSettingsDTO `json:"settings,omitempty"`
}

type VideoCreateResponseDTO struct {
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}

type VideoStatusResponseDTO struct {
	VideoID         string    `json:"video_id"`
	Title           string    `json:"title"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	Resolution      string    `json:"resolution"`
	VideoURL        *string   `json:"video_url,omitempty"`
	ThumbnailURL    *string   `json:"thumbnail_url,omitempty"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ScriptCreateDTO struct {
	Prompt string `json:"prompt" validate:"required,min=10,max=500"`
	Type   string `json:"type" validate:"required,oneof=commercial social tour product"`
}

type ScriptResponseDTO struct {
	Script string `json:"script"`
}

type ImageCreateDTO struct {
	Prompt string `json:"prompt" validate:"required,min=3,max=500"`
	Style  string `json:"style,omitempty"`
}

type ImageResponseDTO struct {
	ImageURL string `json:"image_url"`
}

type VoiceoverCreateDTO struct {
	Text  string `json:"text" validate:"required,min=1,max=4096"`
	Voice string `json:"voice,omitempty"`
}
