package handler

import (
	"log/slog"
	"net/http"

	"convertly/internal/domain/models"
	"convertly/internal/httputil"
	"convertly/internal/service/conversion"
)

// FormatsHandler serves the supported-format table for UI enumeration.
type FormatsHandler struct {
	registry *conversion.Registry
	logger   *slog.Logger
}

// NewFormatsHandler creates a new FormatsHandler
func NewFormatsHandler(registry *conversion.Registry, logger *slog.Logger) *FormatsHandler {
	return &FormatsHandler{registry: registry, logger: logger}
}

// CategoryGroup is one category's formats in declaration order.
type CategoryGroup struct {
	Category models.Category            `json:"category"`
	Formats  []*models.FormatDescriptor `json:"formats"`
}

// FormatsResponse is the payload for GET /api/formats.
type FormatsResponse struct {
	Categories []CategoryGroup `json:"categories"`
}

// categoryOrder fixes the display order of categories.
var categoryOrder = []models.Category{
	models.CategoryImage,
	models.CategoryDocument,
	models.CategoryAudio,
	models.CategoryVideo,
	models.CategoryArchive,
	models.Category3D,
}

// ListFormats handles GET /api/formats
func (h *FormatsHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	grouped := h.registry.GroupByCategory()

	resp := FormatsResponse{Categories: make([]CategoryGroup, 0, len(categoryOrder))}
	for _, cat := range categoryOrder {
		if formats, ok := grouped[cat]; ok {
			resp.Categories = append(resp.Categories, CategoryGroup{Category: cat, Formats: formats})
		}
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health
func (h *FormatsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
