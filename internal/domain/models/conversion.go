package models

import "time"

// ConversionRequest carries one conversion attempt. It is constructed per
// attempt and owned exclusively by the call that processes it.
type ConversionRequest struct {
	SourceBytes    []byte
	SourceFilename string
	SourceMIMEType string
	TargetFormatID string
}

// OutputFile is the produced in-memory file handed back to the caller.
type OutputFile struct {
	Bytes    []byte
	Filename string
	MIMEType string
}

// ConversionResult is the orchestrator's terminal outcome for one attempt.
// PreviewID references a scoped resource in the preview store; the caller
// is responsible for releasing it when superseded or on teardown.
type ConversionResult struct {
	Success      bool
	Output       *OutputFile
	PreviewID    string
	Advisories   []string
	ErrorMessage string
	Is3D         bool
}

// ConversionRecord is the persisted audit row for one conversion attempt.
type ConversionRecord struct {
	ID           string
	UserID       string
	SourceFormat string
	TargetFormat string
	OutputBytes  int64
	Success      bool
	CreatedAt    time.Time
}
