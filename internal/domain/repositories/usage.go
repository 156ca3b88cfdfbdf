package repositories

import (
	"context"

	"convertly/internal/domain/models"
)

// UsageRepository persists per-user conversion counters and the audit
// trail of conversion attempts.
type UsageRepository interface {
	// GetUsage returns the number of completed conversions for a user.
	// Users with no row yet report zero, not an error.
	GetUsage(ctx context.Context, userID string) (int, error)

	// Increment adds one completed conversion to the user's counter,
	// creating the row if it does not exist.
	Increment(ctx context.Context, userID string) error

	// RecordConversion appends an audit row for a conversion attempt,
	// successful or not.
	RecordConversion(ctx context.Context, rec *models.ConversionRecord) error
}
