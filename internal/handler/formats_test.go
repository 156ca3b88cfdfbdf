package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"convertly/internal/domain/models"
	"convertly/internal/service/conversion"
)

func testFormatsHandler(t *testing.T) *FormatsHandler {
	t.Helper()
	registry, err := conversion.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return NewFormatsHandler(registry, testLogger())
}

func TestListFormats(t *testing.T) {
	h := testFormatsHandler(t)

	rec := httptest.NewRecorder()
	h.ListFormats(rec, httptest.NewRequest(http.MethodGet, "/api/formats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp FormatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if len(resp.Categories) != len(categoryOrder) {
		t.Fatalf("got %d categories, want %d", len(resp.Categories), len(categoryOrder))
	}
	for i, group := range resp.Categories {
		if group.Category != categoryOrder[i] {
			t.Errorf("category %d = %q, want %q", i, group.Category, categoryOrder[i])
		}
		if len(group.Formats) == 0 {
			t.Errorf("category %q has no formats", group.Category)
		}
	}

	if resp.Categories[0].Category != models.CategoryImage {
		t.Errorf("first category = %q, want image", resp.Categories[0].Category)
	}
	if resp.Categories[0].Formats[0].ID != "png" {
		t.Errorf("first image format = %q, want png", resp.Categories[0].Formats[0].ID)
	}
}

func TestHealthCheck(t *testing.T) {
	h := testFormatsHandler(t)

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}
