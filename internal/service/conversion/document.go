package conversion

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/domain/services"
)

// placeholderAdvisory is attached whenever a binary document target is
// produced. True PDF/DOCX generation is out of scope, so those targets get
// a minimal, syntactically valid placeholder embedding provenance text.
// The policy is uniform across all binary document targets.
const placeholderAdvisory = "output is a generated placeholder document, not an equivalent rendering of the source content"

// documentConverter produces same-category document outputs. Text targets
// (txt, md, csv) re-wrap the source content verbatim under the new MIME
// type; binary sources are decoded as UTF-8 best-effort rather than
// rejected. Binary targets (pdf, docx) emit placeholder documents.
type documentConverter struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewDocumentConverter creates the document category converter.
func NewDocumentConverter(logger *slog.Logger) services.Converter {
	return &documentConverter{logger: logger, now: time.Now}
}

func (c *documentConverter) Name() string {
	return "document"
}

func (c *documentConverter) Convert(ctx context.Context, req *models.ConversionRequest, target *models.FormatDescriptor) (*services.ConverterResult, error) {
	if req.SourceBytes == nil {
		return nil, &domain.SourceReadError{}
	}

	result := &services.ConverterResult{
		File: models.OutputFile{MIMEType: target.MIMEType},
	}

	switch target.ID {
	case "pdf":
		data, err := c.renderPlaceholderPDF(req.SourceFilename)
		if err != nil {
			return nil, &domain.EncodeError{Format: target.ID, Cause: err}
		}
		result.File.Bytes = data
		result.Advisories = append(result.Advisories, placeholderAdvisory)
	case "docx":
		data, err := c.renderPlaceholderDOCX(req.SourceFilename)
		if err != nil {
			return nil, &domain.EncodeError{Format: target.ID, Cause: err}
		}
		result.File.Bytes = data
		result.Advisories = append(result.Advisories, placeholderAdvisory)
	default:
		// Text-oriented targets: forced-charset decode, never rejected.
		// Malformed sequences become replacement runes.
		result.File.Bytes = []byte(decodeTextBestEffort(req.SourceBytes))
	}

	c.logger.Debug("document converted",
		"target", target.ID,
		"output_bytes", len(result.File.Bytes),
	)

	return result, nil
}

// decodeTextBestEffort interprets bytes as UTF-8, replacing invalid
// sequences instead of failing. Valid input passes through unchanged.
func decodeTextBestEffort(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// renderPlaceholderPDF builds a one-page PDF carrying provenance text.
func (c *documentConverter) renderPlaceholderPDF(sourceFilename string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Converted Document")
	pdf.Ln(14)
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("Original file: %s", sourceFilename), "", "L", false)
	pdf.MultiCell(0, 6, fmt.Sprintf("Converted at: %s", c.now().UTC().Format(time.RFC3339)), "", "L", false)
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 5, "This file is a placeholder produced by the converter. The original document content was not rendered.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderPlaceholderDOCX builds a minimal valid OOXML package with a single
// paragraph of provenance text.
func (c *documentConverter) renderPlaceholderDOCX(sourceFilename string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := []struct {
		name, content string
	}{
		{
			name: "[Content_Types].xml",
			content: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`,
		},
		{
			name: "_rels/.rels",
			content: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`,
		},
		{
			name:    "word/document.xml",
			content: c.placeholderDocumentXML(sourceFilename),
		},
	}

	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(entry.content)); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *documentConverter) placeholderDocumentXML(sourceFilename string) string {
	var escaped bytes.Buffer
	xml.EscapeText(&escaped, []byte(sourceFilename))

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Converted Document</w:t></w:r></w:p>
<w:p><w:r><w:t>Original file: %s</w:t></w:r></w:p>
<w:p><w:r><w:t>Converted at: %s</w:t></w:r></w:p>
<w:p><w:r><w:t>This file is a placeholder produced by the converter. The original document content was not rendered.</w:t></w:r></w:p>
</w:body>
</w:document>`, escaped.String(), c.now().UTC().Format(time.RFC3339))
}
