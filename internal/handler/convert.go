package handler

import (
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"convertly/internal/config"
	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/domain/services"
	"convertly/internal/httputil"
	"convertly/internal/preview"
	"convertly/internal/service/conversion"
)

var formatIDPattern = regexp.MustCompile(`^[a-z0-9]{1,16}$`)

// ConvertHandler exposes the conversion orchestrator over HTTP. Each
// request gets its own orchestrator instance, so per-instance state (one
// conversion in flight, preview ownership) is scoped to the request.
type ConvertHandler struct {
	dispatcher services.Dispatcher
	identity   services.Identity
	registry   *conversion.Registry
	previews   *preview.Store
	logger     *slog.Logger
}

// NewConvertHandler creates a new ConvertHandler
func NewConvertHandler(
	dispatcher services.Dispatcher,
	identity services.Identity,
	registry *conversion.Registry,
	previews *preview.Store,
	logger *slog.Logger,
) *ConvertHandler {
	return &ConvertHandler{
		dispatcher: dispatcher,
		identity:   identity,
		registry:   registry,
		previews:   previews,
		logger:     logger,
	}
}

// ConvertResponse is the success payload for POST /api/convert.
type ConvertResponse struct {
	Success    bool     `json:"success"`
	Filename   string   `json:"filename"`
	MIMEType   string   `json:"mime_type"`
	Size       int      `json:"size"`
	Is3D       bool     `json:"is_3d"`
	Advisories []string `json:"advisories,omitempty"`
	PreviewID  string   `json:"preview_id"`
	PreviewURL string   `json:"preview_url"`
}

// Convert handles POST /api/convert. The body is a multipart form with a
// "file" part and a "target_format" field.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.PremiumTierMaxFileBytes+config.MultipartMemoryBytes)

	if err := r.ParseMultipartForm(config.MultipartMemoryBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	targetFormat := r.FormValue("target_format")
	if err := validation.Validate(targetFormat,
		validation.Required,
		validation.Match(formatIDPattern).Error("must be a lowercase format id"),
	); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "target_format: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondDomainError(w, &domain.MissingInputError{Message: "no source file selected"})
		return
	}
	defer file.Close()

	sourceBytes, err := io.ReadAll(file)
	if err != nil {
		respondDomainError(w, &domain.SourceReadError{Cause: err})
		return
	}

	req := &models.ConversionRequest{
		SourceBytes:    sourceBytes,
		SourceFilename: header.Filename,
		SourceMIMEType: header.Header.Get("Content-Type"),
		TargetFormatID: targetFormat,
	}

	orch := conversion.NewOrchestrator(h.dispatcher, h.identity, h.previews, h.logger)
	result, convErr := orch.Convert(r.Context(), req)

	h.recordAttempt(r, req, result)

	if convErr != nil {
		respondDomainError(w, convErr)
		return
	}

	// The preview now belongs to the client; it is reclaimed on explicit
	// DELETE or by the store's expiry janitor.
	orch.DetachPreview()

	httputil.RespondJSON(w, http.StatusOK, ConvertResponse{
		Success:    true,
		Filename:   result.Output.Filename,
		MIMEType:   result.Output.MIMEType,
		Size:       len(result.Output.Bytes),
		Is3D:       result.Is3D,
		Advisories: result.Advisories,
		PreviewID:  result.PreviewID,
		PreviewURL: "/api/previews/" + result.PreviewID,
	})
}

// recordAttempt appends the audit row for the attempt; failures here are
// logged and never surfaced to the client.
func (h *ConvertHandler) recordAttempt(r *http.Request, req *models.ConversionRequest, result *models.ConversionResult) {
	userID := httputil.GetUserID(r)
	if userID == "" || result == nil {
		return
	}

	rec := &models.ConversionRecord{
		UserID:       userID,
		SourceFormat: conversion.ExtensionOf(req.SourceFilename),
		TargetFormat: req.TargetFormatID,
		Success:      result.Success,
		CreatedAt:    time.Now(),
	}
	if result.Output != nil {
		rec.OutputBytes = int64(len(result.Output.Bytes))
	}

	if err := h.identity.RecordConversion(r.Context(), rec); err != nil {
		h.logger.Warn("failed to record conversion attempt",
			"user_id", userID,
			"error", err,
		)
	}
}
