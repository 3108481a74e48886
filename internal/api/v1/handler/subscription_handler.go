package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"reelgen/internal/api/v1/dto"
	"reelgen/internal/middleware"
	"reelgen/internal/paypal"
	"reelgen/internal/repository"
	"reelgen/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SubscriptionHandler handles subscription lifecycle endpoints
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	validate            *validator.Validate
	logger              zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService service.SubscriptionService, validate *validator.Validate, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		validate:            validate,
		logger:              logger,
	}
}

// RegisterRoutes mounts subscription routes
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/subscriptions", authMw(http.HandlerFunc(h.createSubscription)))
	mux.Handle("/subscriptions/approve", authMw(http.HandlerFunc(h.approveSubscription)))
	mux.Handle("/subscriptions/cancel", authMw(http.HandlerFunc(h.cancelSubscription)))
	mux.Handle("/subscriptions/status", authMw(http.HandlerFunc(h.getSubscriptionStatus)))
}

// createSubscription godoc
// @Summary Create a subscription
// @Description Creates a pending subscription with the payment provider and returns the approval link the payer must follow.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.SubscriptionCreateDTO true "Subscription request"
// @Success 200 {object} dto.SubscriptionCreateResponseDTO
// @Failure 400 {string} string "Invalid JSON payload, validation failed, or unknown plan"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 502 {string} string "Payment provider error"
// @Router /subscriptions [post]
func (h *SubscriptionHandler) createSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/subscriptions" {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.SubscriptionCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.subscriptionService.Subscribe(r.Context(), userID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlan):
			http.Error(w, "Unknown plan: "+req.PlanID, http.StatusBadRequest)
		case errors.Is(err, paypal.ErrProvider):
			http.Error(w, "Payment provider error: "+err.Error(), http.StatusBadGateway)
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create subscription")
			http.Error(w, "Failed to create subscription: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	resp := dto.SubscriptionCreateResponseDTO{
		SubscriptionID: res.SubscriptionID,
		ApprovalURL:    res.ApprovalURL,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// approveSubscription godoc
// @Summary Confirm an approved subscription
// @Description Verifies the subscription is active with the payment provider and activates the plan for the authenticated user.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param approval body dto.SubscriptionApproveDTO true "Approval confirmation"
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 400 {string} string "Invalid JSON payload, validation failed, or subscription not active"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 502 {string} string "Payment provider error"
// @Router /subscriptions/approve [post]
func (h *SubscriptionHandler) approveSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.SubscriptionApproveDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.subscriptionService.Approve(r.Context(), userID, req.SubscriptionID); err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionNotActive):
			http.Error(w, "Subscription is not active with the payment provider", http.StatusBadRequest)
		case errors.Is(err, paypal.ErrProvider):
			http.Error(w, "Payment provider error: "+err.Error(), http.StatusBadGateway)
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to approve subscription")
			http.Error(w, "Failed to approve subscription: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dto.MessageResponseDTO{Message: "Subscription activated"}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// cancelSubscription godoc
// @Summary Cancel the active subscription
// @Description Cancels the authenticated user's subscription with the payment provider and downgrades the local plan.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 400 {string} string "No active subscription"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 502 {string} string "Payment provider error"
// @Router /subscriptions/cancel [post]
func (h *SubscriptionHandler) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.subscriptionService.Cancel(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSubscription):
			http.Error(w, "No active subscription to cancel", http.StatusBadRequest)
		case errors.Is(err, repository.ErrUserNotFound):
			http.Error(w, "User profile not found", http.StatusNotFound)
		case errors.Is(err, paypal.ErrProvider):
			http.Error(w, "Payment provider error: "+err.Error(), http.StatusBadGateway)
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to cancel subscription")
			http.Error(w, "Failed to cancel subscription: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dto.MessageResponseDTO{Message: "Subscription cancelled"}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// getSubscriptionStatus godoc
// @Summary Get subscription status
// @Description Returns the local subscription state, augmented with the payment provider's view when reachable.
// @Tags subscriptions
// @Produce json
// @Success 200 {object} dto.SubscriptionStatusResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 502 {string} string "Payment provider error"
// @Router /subscriptions/status [get]
func (h *SubscriptionHandler) getSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	status, err := h.subscriptionService.Status(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			http.Error(w, "User profile not found", http.StatusNotFound)
		case errors.Is(err, paypal.ErrProvider):
			http.Error(w, "Payment provider error: "+err.Error(), http.StatusBadGateway)
		default:
			h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to retrieve subscription status")
			http.Error(w, "Failed to retrieve subscription status: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	resp := dto.SubscriptionStatusResponseDTO{
		Tier:             string(status.Local.Tier),
		Status:           string(status.Local.Status),
		VideosUsed:       status.Local.VideosUsed,
		VideoLimit:       status.Local.VideoLimit,
		CurrentPeriodEnd: status.Local.CurrentPeriodEnd,
		CancelledAt:      status.Local.CancelledAt,
	}
	if status.Remote != nil {
		resp.RemoteStatus = status.Remote.Status
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
