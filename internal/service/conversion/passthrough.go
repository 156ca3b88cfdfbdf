package conversion

import (
	"context"
	"fmt"
	"log/slog"

	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/domain/services"
)

// NoTranscodeAdvisory is attached to every passthrough result. Relabeling
// bytes under a new container is a deliberate simplification boundary of
// this tool, and callers must be able to surface it.
const NoTranscodeAdvisory = "no transcoding performed: the original byte stream was relabeled with the new format's type and extension"

// passthroughConverter handles the audio, video, and archive categories.
// It does not transcode codecs or container structure; the source byte
// stream is carried over unchanged under the target MIME type.
// Relabeling cannot fail once bytes are in memory.
type passthroughConverter struct {
	category models.Category
	logger   *slog.Logger
}

// NewPassthroughConverter creates the relabeling converter for one of the
// audio, video, or archive categories.
func NewPassthroughConverter(category models.Category, logger *slog.Logger) services.Converter {
	return &passthroughConverter{category: category, logger: logger}
}

func (c *passthroughConverter) Name() string {
	return fmt.Sprintf("%s-passthrough", c.category)
}

func (c *passthroughConverter) Convert(ctx context.Context, req *models.ConversionRequest, target *models.FormatDescriptor) (*services.ConverterResult, error) {
	if req.SourceBytes == nil {
		return nil, &domain.SourceReadError{}
	}

	// Copy so the result does not alias the request's buffer; the request
	// owner may reuse it after the call returns.
	out := make([]byte, len(req.SourceBytes))
	copy(out, req.SourceBytes)

	c.logger.Debug("bytes relabeled",
		"category", c.category,
		"target", target.ID,
		"bytes", len(out),
	)

	return &services.ConverterResult{
		File: models.OutputFile{
			Bytes:    out,
			MIMEType: target.MIMEType,
		},
		Advisories: []string{NoTranscodeAdvisory},
	}, nil
}
