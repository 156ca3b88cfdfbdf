package services

import (
	"context"

	"convertly/internal/domain/models"
)

// ConverterResult is the output of a single converter strategy. The
// dispatcher fills in the output filename; converters fill bytes, MIME
// type, and any advisories about what the conversion did (or did not) do.
type ConverterResult struct {
	File       models.OutputFile
	Advisories []string
	Is3D       bool
}

// Converter is one conversion strategy. Each format category has exactly
// one converter; the dispatcher owns the category-to-converter table.
type Converter interface {
	// Name returns the converter name for logging.
	Name() string

	// Convert re-encodes the request's source bytes for the target format.
	Convert(ctx context.Context, req *models.ConversionRequest, target *models.FormatDescriptor) (*ConverterResult, error)
}

// Dispatcher resolves a request's source and target formats, routes to the
// correct converter, and normalizes the output filename and MIME type.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *models.ConversionRequest) (*ConverterResult, error)
}

// Identity is the external identity/quota collaborator. The orchestrator
// calls IncrementUsage exactly once per successful conversion of an
// authenticated user; a failing increment is reported but never rolls back
// an already-delivered result.
type Identity interface {
	// CurrentUser resolves the session user from the context. Returns
	// domain.ErrUnauthorized when no authenticated user is present.
	CurrentUser(ctx context.Context) (*models.User, error)

	// HasQuota reports whether the user may start another conversion.
	HasQuota(user *models.User) bool

	// IncrementUsage adds one completed conversion to the user's counter.
	IncrementUsage(ctx context.Context, userID string) error

	// RecordConversion appends an audit row for an attempt; failures are
	// non-fatal to the conversion flow.
	RecordConversion(ctx context.Context, rec *models.ConversionRecord) error
}
