package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"convertly/internal/domain/models"
	"convertly/internal/domain/repositories"
)

// PostgresUsageRepository implements the UsageRepository interface
type PostgresUsageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUsageRepository creates a new PostgresUsageRepository
func NewUsageRepository(config *RepositoryConfig) repositories.UsageRepository {
	return &PostgresUsageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetUsage returns the user's completed-conversion counter. Users without
// a row yet report zero.
func (r *PostgresUsageRepository) GetUsage(ctx context.Context, userID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT conversions_used
		FROM %s
		WHERE user_id = $1
	`, r.tables.Usage)

	var used int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get usage: %w", err)
	}

	return used, nil
}

// Increment adds one completed conversion to the user's counter, creating
// the row on first use.
func (r *PostgresUsageRepository) Increment(ctx context.Context, userID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, conversions_used, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET conversions_used = %s.conversions_used + 1, updated_at = NOW()
	`, r.tables.Usage, r.tables.Usage)

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}

	r.logger.Debug("usage incremented", "user_id", userID)
	return nil
}

// RecordConversion appends an audit row for a conversion attempt.
func (r *PostgresUsageRepository) RecordConversion(ctx context.Context, rec *models.ConversionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, source_format, target_format, output_bytes, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, r.tables.Conversions)

	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.SourceFormat,
		rec.TargetFormat,
		rec.OutputBytes,
		rec.Success,
	)
	if err != nil {
		return fmt.Errorf("record conversion: %w", err)
	}

	return nil
}
