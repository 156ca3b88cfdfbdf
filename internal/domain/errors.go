package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling at the
// handler boundary without per-type switches.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrSourceRead           = errors.New("source read failed")
	ErrDecode               = errors.New("decode failed")
	ErrEncode               = errors.New("encode failed")
	ErrRender               = errors.New("render failed")
	ErrCrossCategory        = errors.New("cross-category conversion unsupported")
	ErrMissingInput         = errors.New("missing input")
	ErrQuotaExceeded        = errors.New("quota exceeded")
	ErrFileTooLarge         = errors.New("file too large")
	ErrConversionInFlight   = errors.New("conversion already in progress")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
)

// UnsupportedFormatError indicates the source extension or target format ID
// does not resolve to a registered format.
type UnsupportedFormatError struct {
	Format string // extension or format ID as provided by the caller
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %q", e.Format)
}
func (e *UnsupportedFormatError) StatusCode() int      { return http.StatusUnsupportedMediaType }
func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// SourceReadError indicates the source file could not be read into memory.
type SourceReadError struct {
	Cause error
}

func (e *SourceReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to read source file: %v", e.Cause)
	}
	return "failed to read source file"
}
func (e *SourceReadError) StatusCode() int      { return http.StatusBadRequest }
func (e *SourceReadError) Is(target error) bool { return target == ErrSourceRead }
func (e *SourceReadError) Unwrap() error        { return e.Cause }

// DecodeError indicates the source bytes could not be decoded (corrupt or
// mislabeled input). Non-retryable.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to decode source: %v", e.Cause)
	}
	return "failed to decode source"
}
func (e *DecodeError) StatusCode() int      { return http.StatusUnprocessableEntity }
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
func (e *DecodeError) Unwrap() error        { return e.Cause }

// EncodeError indicates the target encoder produced no output. Non-retryable.
type EncodeError struct {
	Format string
	Cause  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s output: %v", e.Format, e.Cause)
}
func (e *EncodeError) StatusCode() int      { return http.StatusUnprocessableEntity }
func (e *EncodeError) Is(target error) bool { return target == ErrEncode }
func (e *EncodeError) Unwrap() error        { return e.Cause }

// RenderError indicates the height-map rendering surface was unusable.
type RenderError struct {
	Cause error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to render height map: %v", e.Cause)
	}
	return "failed to render height map"
}
func (e *RenderError) StatusCode() int      { return http.StatusUnprocessableEntity }
func (e *RenderError) Is(target error) bool { return target == ErrRender }
func (e *RenderError) Unwrap() error        { return e.Cause }

// CrossCategoryError indicates a conversion between two different format
// categories, which this system rejects (the one exception, image to 3d,
// is routed before this check applies).
type CrossCategoryError struct {
	SourceCategory string
	TargetCategory string
}

func (e *CrossCategoryError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s: cross-category conversion is not supported",
		e.SourceCategory, e.TargetCategory)
}
func (e *CrossCategoryError) StatusCode() int      { return http.StatusUnsupportedMediaType }
func (e *CrossCategoryError) Is(target error) bool { return target == ErrCrossCategory }

// MissingInputError indicates the conversion was started without a source
// file or a target format.
type MissingInputError struct {
	Message string
}

func (e *MissingInputError) Error() string        { return e.Message }
func (e *MissingInputError) StatusCode() int      { return http.StatusBadRequest }
func (e *MissingInputError) Is(target error) bool { return target == ErrMissingInput }

// QuotaExceededError indicates a free-tier user has used up their
// conversion allowance.
type QuotaExceededError struct {
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("conversion quota exceeded: %d of %d used", e.Used, e.Limit)
}
func (e *QuotaExceededError) StatusCode() int      { return http.StatusTooManyRequests }
func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// FileTooLargeError indicates the source file exceeds the size limit for
// the user's subscription tier.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size %d exceeds the %d byte limit for this tier", e.Size, e.Limit)
}
func (e *FileTooLargeError) StatusCode() int      { return http.StatusRequestEntityTooLarge }
func (e *FileTooLargeError) Is(target error) bool { return target == ErrFileTooLarge }
