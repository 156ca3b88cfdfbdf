package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"convertly/internal/config"
	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/httputil"
)

type fakeUsageRepository struct {
	usage      map[string]int
	getErr     error
	increments []string
	records    []*models.ConversionRecord
}

func (f *fakeUsageRepository) GetUsage(ctx context.Context, userID string) (int, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.usage[userID], nil
}

func (f *fakeUsageRepository) Increment(ctx context.Context, userID string) error {
	f.increments = append(f.increments, userID)
	if f.usage == nil {
		f.usage = make(map[string]int)
	}
	f.usage[userID]++
	return nil
}

func (f *fakeUsageRepository) RecordConversion(ctx context.Context, rec *models.ConversionRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authedContext(userID string, tier models.SubscriptionTier) context.Context {
	return httputil.WithUser(context.Background(), userID, tier)
}

func TestCurrentUser_ResolvesFromContext(t *testing.T) {
	repo := &fakeUsageRepository{usage: map[string]int{"user-1": 4}}
	svc := NewService(repo, testLogger())

	user, err := svc.CurrentUser(authedContext("user-1", models.TierPremium))
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("id = %q", user.ID)
	}
	if user.Tier != models.TierPremium {
		t.Errorf("tier = %q, want premium", user.Tier)
	}
	if user.ConversionsUsed != 4 {
		t.Errorf("conversions used = %d, want 4", user.ConversionsUsed)
	}
}

func TestCurrentUser_Unauthenticated(t *testing.T) {
	svc := NewService(&fakeUsageRepository{}, testLogger())

	_, err := svc.CurrentUser(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestCurrentUser_RepositoryError(t *testing.T) {
	cause := errors.New("pool exhausted")
	svc := NewService(&fakeUsageRepository{getErr: cause}, testLogger())

	_, err := svc.CurrentUser(authedContext("user-1", models.TierFree))
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, want wrapped repository error", err)
	}
}

func TestHasQuota(t *testing.T) {
	svc := NewService(&fakeUsageRepository{}, testLogger())

	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{name: "nil user", user: nil, want: false},
		{name: "free under limit", user: &models.User{Tier: models.TierFree, ConversionsUsed: config.MaxFreeConversions - 1}, want: true},
		{name: "free at limit", user: &models.User{Tier: models.TierFree, ConversionsUsed: config.MaxFreeConversions}, want: false},
		{name: "free over limit", user: &models.User{Tier: models.TierFree, ConversionsUsed: config.MaxFreeConversions + 5}, want: false},
		{name: "premium at limit", user: &models.User{Tier: models.TierPremium, ConversionsUsed: config.MaxFreeConversions}, want: true},
		{name: "premium far past limit", user: &models.User{Tier: models.TierPremium, ConversionsUsed: 1000}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.HasQuota(tt.user); got != tt.want {
				t.Errorf("HasQuota = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIncrementUsage_DelegatesToRepository(t *testing.T) {
	repo := &fakeUsageRepository{}
	svc := NewService(repo, testLogger())

	if err := svc.IncrementUsage(context.Background(), "user-1"); err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}
	if len(repo.increments) != 1 || repo.increments[0] != "user-1" {
		t.Errorf("increments = %v", repo.increments)
	}
}

func TestRecordConversion_DelegatesToRepository(t *testing.T) {
	repo := &fakeUsageRepository{}
	svc := NewService(repo, testLogger())

	rec := &models.ConversionRecord{UserID: "user-1", SourceFormat: "png", TargetFormat: "jpg", Success: true}
	if err := svc.RecordConversion(context.Background(), rec); err != nil {
		t.Fatalf("RecordConversion failed: %v", err)
	}
	if len(repo.records) != 1 || repo.records[0] != rec {
		t.Errorf("records = %v", repo.records)
	}
}
