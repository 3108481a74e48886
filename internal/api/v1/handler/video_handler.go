package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"reelgen/internal/api/v1/dto"
	"reelgen/internal/middleware"
	"reelgen/internal/model"
	"reelgen/internal/repository"
	"reelgen/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// VideoHandler handles video generation endpoints
type VideoHandler struct {
	videoService service.VideoService
	validate     *validator.Validate
	logger       zerolog.Logger
}

// NewVideoHandler creates a new VideoHandler
func NewVideoHandler(videoService service.VideoService, validate *validator.Validate, logger zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
		validate:     validate,
		logger:       logger,
	}
}

// RegisterRoutes mounts video routes
func (h *VideoHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/videos", authMw(http.HandlerFunc(h.createVideo)))
	mux.Handle("/videos/", authMw(http.HandlerFunc(h.getVideoStatus)))
	mux.Handle("/scripts", authMw(http.HandlerFunc(h.createScript)))
	mux.Handle("/images", authMw(http.HandlerFunc(h.createImage)))
	mux.Handle("/voiceovers", authMw(http.HandlerFunc(h.createVoiceover)))
}

// createVideo godoc
// @Summary Submit a video generation job
// @Description Consumes one video credit and enqueues an asynchronous generation job for the authenticated user.
// @Tags videos
// @Accept json
// @Produce json
// @Param video body dto.VideoCreateDTO true "Video generation request"
// @Success 200 {object} dto.VideoCreateResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 403 {string} string "Video limit reached"
// @Failure 500 {string} string "Failed to submit video"
// @Router /videos [post]
func (h *VideoHandler) createVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/videos" {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.VideoCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	settings := model.VideoSettings{}
	if req.Settings != nil {
		settings = model.VideoSettings{
			Music:     req.Settings.Music,
			Voiceover: req.Settings.Voiceover,
			Style:     req.Settings.Style,
			Format:    req.Settings.Format,
		}
	}
	job, err := h.videoService.Submit(r.Context(), userID, service.SubmitParams{
		Title:    req.Title,
		Prompt:   req.Prompt,
		Type:     model.VideoType(req.Type),
		Settings: settings,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVideoLimitExceeded):
			http.Error(w, "Video limit reached. Upgrade your plan to generate more videos.", http.StatusForbidden)
		case errors.Is(err, repository.ErrUserNotFound):
			http.Error(w, "User profile not found", http.StatusNotFound)
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to submit video job")
			http.Error(w, "Failed to submit video: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	resp := dto.VideoCreateResponseDTO{
		VideoID: job.ID,
		Status:  string(job.Status),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// getVideoStatus godoc
// @Summary Get video job status
// @Description Retrieves the status and, once complete, the media URLs of a video job owned by the authenticated user.
// @Tags videos
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} dto.VideoStatusResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Video not found"
// @Failure 500 {string} string "Failed to retrieve video"
// @Router /videos/{videoId}/status [get]
func (h *VideoHandler) getVideoStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/videos/")
	videoID, ok := strings.CutSuffix(rest, "/status")
	if !ok || videoID == "" || strings.Contains(videoID, "/") {
		http.NotFound(w, r)
		return
	}

	job, err := h.videoService.GetJob(r.Context(), userID, videoID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			http.Error(w, "Video not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("video_id", videoID).Msg("Failed to retrieve video job")
		http.Error(w, "Failed to retrieve video: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.VideoStatusResponseDTO{
		VideoID:         job.ID,
		Title:           job.Title,
		Type:            string(job.Type),
		Status:          string(job.Status),
		Resolution:      string(job.Resolution),
		VideoURL:        job.VideoURL,
		ThumbnailURL:    job.ThumbnailURL,
		DurationSeconds: job.DurationSeconds,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// createScript godoc
// @Summary Generate a marketing script
// @Description Generates a standalone marketing script without consuming a video credit.
// @Tags scripts
// @Accept json
// @Produce json
// @Param script body dto.ScriptCreateDTO true "Script generation request"
// @Success 200 {object} dto.ScriptResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 502 {string} string "Script generation failed"
// @Router /scripts [post]
func (h *VideoHandler) createScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.ScriptCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	script, err := h.videoService.GenerateScript(r.Context(), req.Prompt, model.VideoType(req.Type))
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to generate script")
		http.Error(w, "Script generation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dto.ScriptResponseDTO{Script: script}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// createImage godoc
// @Summary Generate a product image
// @Description Generates a single product showcase image.
// @Tags images
// @Accept json
// @Produce json
// @Param image body dto.ImageCreateDTO true "Image generation request"
// @Success 200 {object} dto.ImageResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 502 {string} string "Image generation failed"
// @Router /images [post]
func (h *VideoHandler) createImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.ImageCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	url, err := h.videoService.GenerateImage(r.Context(), req.Prompt, req.Style)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to generate image")
		http.Error(w, "Image generation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dto.ImageResponseDTO{ImageURL: url}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// createVoiceover godoc
// @Summary Generate voiceover audio
// @Description Generates MP3 speech audio for the provided text.
// @Tags voiceovers
// @Accept json
// @Produce audio/mpeg
// @Param voiceover body dto.VoiceoverCreateDTO true "Voiceover generation request"
// @Success 200 {file} binary "MP3 audio"
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 502 {string} string "Voiceover generation failed"
// @Router /voiceovers [post]
func (h *VideoHandler) createVoiceover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.VoiceoverCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	audio, err := h.videoService.GenerateVoiceover(r.Context(), req.Text, req.Voice)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to generate voiceover")
		http.Error(w, "Voiceover generation failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	if _, err := w.Write(audio); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write audio response")
	}
}
