package handler

import (
	"log/slog"
	"net/http"

	"convertly/internal/config"
	"convertly/internal/domain/models"
	"convertly/internal/domain/services"
	"convertly/internal/httputil"
)

// UsageHandler reports the session user's quota state.
type UsageHandler struct {
	identity services.Identity
	logger   *slog.Logger
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(identity services.Identity, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{identity: identity, logger: logger}
}

// UsageResponse is the payload for GET /api/users/me/usage.
type UsageResponse struct {
	SubscriptionTier   models.SubscriptionTier `json:"subscription_tier"`
	ConversionsUsed    int                     `json:"conversions_used"`
	MaxFreeConversions int                     `json:"max_free_conversions"`
	Remaining          *int                    `json:"remaining,omitempty"` // omitted for premium (unbounded)
	MaxFileBytes       int64                   `json:"max_file_bytes"`
}

// GetUsage handles GET /api/users/me/usage
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.CurrentUser(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := UsageResponse{
		SubscriptionTier:   user.Tier,
		ConversionsUsed:    user.ConversionsUsed,
		MaxFreeConversions: config.MaxFreeConversions,
		MaxFileBytes:       config.PremiumTierMaxFileBytes,
	}
	if !user.IsPremium() {
		remaining := config.MaxFreeConversions - user.ConversionsUsed
		if remaining < 0 {
			remaining = 0
		}
		resp.Remaining = &remaining
		resp.MaxFileBytes = config.FreeTierMaxFileBytes
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}
