package conversion

import (
	"context"
	"log/slog"

	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/domain/services"
)

// dispatcher routes a conversion request to the converter strategy for its
// category. The routing table is built once at construction; resolution is
// a table lookup, not a conditional chain, so the table itself is testable.
type dispatcher struct {
	registry  *Registry
	routes    map[models.Category]services.Converter
	heightmap services.Converter
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher with the standard per-category
// converters pre-registered.
func NewDispatcher(registry *Registry, logger *slog.Logger) services.Dispatcher {
	return &dispatcher{
		registry: registry,
		routes: map[models.Category]services.Converter{
			models.CategoryImage:    NewImageConverter(logger),
			models.CategoryDocument: NewDocumentConverter(logger),
			models.CategoryAudio:    NewPassthroughConverter(models.CategoryAudio, logger),
			models.CategoryVideo:    NewPassthroughConverter(models.CategoryVideo, logger),
			models.CategoryArchive:  NewPassthroughConverter(models.CategoryArchive, logger),
		},
		heightmap: NewHeightmapConverter(logger),
		logger:    logger,
	}
}

// Dispatch resolves both formats, selects a strategy, and normalizes the
// output filename and MIME type.
//
// Resolution order:
//  1. target "3d" with an image source routes to the height-map converter;
//  2. matching categories route to that category's converter;
//  3. anything cross-category is rejected with CrossCategoryError. Bytes
//     are never silently relabeled across categories.
func (d *dispatcher) Dispatch(ctx context.Context, req *models.ConversionRequest) (*services.ConverterResult, error) {
	if req == nil || req.SourceBytes == nil {
		return nil, &domain.SourceReadError{}
	}

	ext := ExtensionOf(req.SourceFilename)
	source := d.registry.LookupByExtension(ext)
	if source == nil {
		return nil, &domain.UnsupportedFormatError{Format: ext}
	}

	target := d.registry.LookupByID(req.TargetFormatID)
	if target == nil {
		return nil, &domain.UnsupportedFormatError{Format: req.TargetFormatID}
	}

	var converter services.Converter
	switch {
	case target.Category == models.Category3D && source.Category == models.CategoryImage:
		converter = d.heightmap
	case source.Category == target.Category:
		converter = d.routes[source.Category]
	}
	if converter == nil {
		return nil, &domain.CrossCategoryError{
			SourceCategory: string(source.Category),
			TargetCategory: string(target.Category),
		}
	}

	d.logger.Debug("dispatching conversion",
		"converter", converter.Name(),
		"source_format", source.ID,
		"target_format", target.ID,
	)

	result, err := converter.Convert(ctx, req, target)
	if err != nil {
		return nil, err
	}

	result.File.Filename = replaceExtension(req.SourceFilename, target.CanonicalExtension())
	if result.File.MIMEType == "" {
		result.File.MIMEType = target.MIMEType
	}
	return result, nil
}
