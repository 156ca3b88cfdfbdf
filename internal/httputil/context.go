package httputil

import (
	"context"
	"net/http"

	"convertly/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey contextKey = "userID"
	tierKey   contextKey = "subscriptionTier"
)

// WithUser adds the authenticated user's ID and tier to the context.
func WithUser(ctx context.Context, userID string, tier models.SubscriptionTier) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, tierKey, tier)
}

// UserIDFromContext retrieves the user ID, empty string if not present.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// TierFromContext retrieves the subscription tier, free if not present.
func TierFromContext(ctx context.Context) models.SubscriptionTier {
	if tier, ok := ctx.Value(tierKey).(models.SubscriptionTier); ok {
		return tier
	}
	return models.TierFree
}

// GetUserID retrieves the user ID from the request context.
func GetUserID(r *http.Request) string {
	return UserIDFromContext(r.Context())
}
