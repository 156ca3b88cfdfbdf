package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"convertly/internal/httputil"
	"convertly/internal/preview"
)

// PreviewHandler serves and releases stored conversion outputs.
type PreviewHandler struct {
	previews *preview.Store
	logger   *slog.Logger
}

// NewPreviewHandler creates a new PreviewHandler
func NewPreviewHandler(previews *preview.Store, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{previews: previews, logger: logger}
}

// GetPreview handles GET /api/previews/{id}. The bytes are served with a
// download disposition so the browser saves under the converted filename.
func (h *PreviewHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	entry, ok := h.previews.Get(id)
	if !ok {
		httputil.RespondError(w, http.StatusNotFound, "preview not found or already released")
		return
	}

	w.Header().Set("Content-Type", entry.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(entry.Bytes)
}

// ReleasePreview handles DELETE /api/previews/{id}. Releasing is the
// client's half of the handle-pairing contract.
func (h *PreviewHandler) ReleasePreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !h.previews.Release(id) {
		httputil.RespondError(w, http.StatusNotFound, "preview not found or already released")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
