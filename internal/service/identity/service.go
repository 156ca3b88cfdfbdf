// Package identity implements the identity/quota collaborator consumed by
// the conversion orchestrator. The session user comes from the request
// context (set by the auth middleware); usage counters live in Postgres.
package identity

import (
	"context"
	"fmt"
	"log/slog"

	"convertly/internal/config"
	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/domain/repositories"
	"convertly/internal/domain/services"
	"convertly/internal/httputil"
)

type identityService struct {
	usage  repositories.UsageRepository
	logger *slog.Logger
}

// NewService creates the production identity collaborator.
func NewService(usage repositories.UsageRepository, logger *slog.Logger) services.Identity {
	return &identityService{usage: usage, logger: logger}
}

// CurrentUser resolves the session user from the request context and
// attaches their current usage counter.
func (s *identityService) CurrentUser(ctx context.Context) (*models.User, error) {
	userID := httputil.UserIDFromContext(ctx)
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	used, err := s.usage.GetUsage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load usage for user %s: %w", userID, err)
	}

	return &models.User{
		ID:              userID,
		Tier:            httputil.TierFromContext(ctx),
		ConversionsUsed: used,
	}, nil
}

// HasQuota reports whether the user may start another conversion. Premium
// is unbounded; free users are capped at MaxFreeConversions completed
// conversions.
func (s *identityService) HasQuota(user *models.User) bool {
	if user == nil {
		return false
	}
	if user.IsPremium() {
		return true
	}
	return user.ConversionsUsed < config.MaxFreeConversions
}

// IncrementUsage adds one completed conversion to the user's counter.
func (s *identityService) IncrementUsage(ctx context.Context, userID string) error {
	return s.usage.Increment(ctx, userID)
}

// RecordConversion appends an audit row for an attempt.
func (s *identityService) RecordConversion(ctx context.Context, rec *models.ConversionRecord) error {
	return s.usage.RecordConversion(ctx, rec)
}
