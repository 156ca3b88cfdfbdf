package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"convertly/internal/preview"
)

func previewRequest(method, id string) *http.Request {
	req := httptest.NewRequest(method, "/api/previews/"+id, nil)
	req.SetPathValue("id", id)
	return req
}

func TestGetPreview(t *testing.T) {
	store := preview.NewStore(time.Minute, testLogger())
	handle := store.Put([]byte("converted bytes"), "out.jpg", "image/jpeg")
	h := NewPreviewHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.GetPreview(rec, previewRequest(http.MethodGet, handle.ID()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "converted bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("content-type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="out.jpg"` {
		t.Errorf("content-disposition = %q", got)
	}
}

func TestGetPreview_NotFound(t *testing.T) {
	h := NewPreviewHandler(preview.NewStore(time.Minute, testLogger()), testLogger())

	rec := httptest.NewRecorder()
	h.GetPreview(rec, previewRequest(http.MethodGet, "no-such-id"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestReleasePreview(t *testing.T) {
	store := preview.NewStore(time.Minute, testLogger())
	handle := store.Put([]byte("x"), "x.bin", "application/octet-stream")
	h := NewPreviewHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.ReleasePreview(rec, previewRequest(http.MethodDelete, handle.ID()))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	// Second release of the same id is a 404, not a silent success.
	rec = httptest.NewRecorder()
	h.ReleasePreview(rec, previewRequest(http.MethodDelete, handle.ID()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second release status = %d, want 404", rec.Code)
	}

	if store.Len() != 0 {
		t.Errorf("store len = %d, want 0", store.Len())
	}
}
