package models

// Category identifies which converter strategy applies to a format.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryArchive  Category = "archive"
	Category3D       Category = "3d"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryImage, CategoryDocument, CategoryAudio, CategoryVideo, CategoryArchive, Category3D:
		return true
	}
	return false
}

// FormatDescriptor describes one supported file format. Descriptors are
// immutable after registry load.
type FormatDescriptor struct {
	ID          string   `yaml:"id" json:"id"`
	Label       string   `yaml:"label" json:"label"`
	Description string   `yaml:"description" json:"description"`
	Category    Category `yaml:"category" json:"category"`
	MIMEType    string   `yaml:"mime" json:"mime_type"`
	Extensions  []string `yaml:"extensions" json:"extensions"`
}

// CanonicalExtension returns the extension used when building output
// filenames. By convention this is the first declared extension.
func (f *FormatDescriptor) CanonicalExtension() string {
	if len(f.Extensions) == 0 {
		return ""
	}
	return f.Extensions[0]
}
