package conversion

import (
	_ "embed"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"convertly/internal/domain/models"
)

//go:embed formats.yaml
var formatsYAML []byte

// Registry holds the static table of supported formats. It is loaded once
// at process start and never mutated afterwards, so lookups need no
// locking. Lookups never fail: absent entries return nil.
type Registry struct {
	formats []*models.FormatDescriptor
	byID    map[string]*models.FormatDescriptor
	byExt   map[string]*models.FormatDescriptor
}

// NewRegistry parses and validates the embedded format table.
func NewRegistry() (*Registry, error) {
	var doc struct {
		Formats []*models.FormatDescriptor `yaml:"formats"`
	}
	if err := yaml.Unmarshal(formatsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse format table: %w", err)
	}

	r := &Registry{
		formats: doc.Formats,
		byID:    make(map[string]*models.FormatDescriptor, len(doc.Formats)),
		byExt:   make(map[string]*models.FormatDescriptor),
	}

	for _, f := range doc.Formats {
		if err := validateDescriptor(f); err != nil {
			return nil, fmt.Errorf("format %q: %w", f.ID, err)
		}
		if _, exists := r.byID[f.ID]; exists {
			return nil, fmt.Errorf("duplicate format id %q", f.ID)
		}
		r.byID[f.ID] = f

		// First declaration wins extension lookup. The "3d" pseudo-format
		// shares png's output extension and must not shadow it.
		for _, ext := range f.Extensions {
			ext = strings.ToLower(ext)
			if _, exists := r.byExt[ext]; !exists {
				r.byExt[ext] = f
			}
		}
	}

	return r, nil
}

func validateDescriptor(f *models.FormatDescriptor) error {
	if !f.Category.Valid() {
		return fmt.Errorf("unknown category %q", f.Category)
	}
	return validation.ValidateStruct(f,
		validation.Field(&f.ID, validation.Required),
		validation.Field(&f.Label, validation.Required),
		validation.Field(&f.MIMEType, validation.Required),
		validation.Field(&f.Extensions, validation.Required, validation.Length(1, 0)),
	)
}

// LookupByExtension returns the format registered for an extension, or nil.
// Matching is case-insensitive and tolerates a leading dot.
func (r *Registry) LookupByExtension(ext string) *models.FormatDescriptor {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return r.byExt[ext]
}

// LookupByID returns the format with the given ID, or nil.
func (r *Registry) LookupByID(id string) *models.FormatDescriptor {
	return r.byID[id]
}

// Formats returns all descriptors in declaration order.
func (r *Registry) Formats() []*models.FormatDescriptor {
	return r.formats
}

// GroupByCategory groups formats by category, preserving declaration order
// within each group, for UI enumeration.
func (r *Registry) GroupByCategory() map[models.Category][]*models.FormatDescriptor {
	grouped := make(map[models.Category][]*models.FormatDescriptor)
	for _, f := range r.formats {
		grouped[f.Category] = append(grouped[f.Category], f)
	}
	return grouped
}

// ExtensionOf returns the substring after the last dot in filename, or the
// whole filename when it contains no dot. Dotfiles and extensionless names
// therefore treat the entire name as the extension; callers rely on this
// and let registry lookup reject the unknowns.
func ExtensionOf(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[idx+1:]
	}
	return filename
}

// replaceExtension builds an output filename from the source name and the
// target's canonical extension, replacing any existing extension.
func replaceExtension(filename, ext string) string {
	base := filename
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		base = filename[:idx]
	}
	return base + "." + ext
}
