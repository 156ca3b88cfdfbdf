package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"convertly/internal/domain"
	"convertly/internal/domain/models"
	"convertly/internal/httputil"
	"convertly/internal/preview"
	"convertly/internal/service/conversion"
)

type fakeIdentity struct {
	user    *models.User
	records []*models.ConversionRecord
}

func (f *fakeIdentity) CurrentUser(ctx context.Context) (*models.User, error) {
	if f.user == nil {
		return nil, domain.ErrUnauthorized
	}
	u := *f.user
	return &u, nil
}

func (f *fakeIdentity) HasQuota(user *models.User) bool {
	if user.IsPremium() {
		return true
	}
	return user.ConversionsUsed < 10
}

func (f *fakeIdentity) IncrementUsage(ctx context.Context, userID string) error {
	f.user.ConversionsUsed++
	return nil
}

func (f *fakeIdentity) RecordConversion(ctx context.Context, rec *models.ConversionRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConvertHandler(t *testing.T, identity *fakeIdentity) (*ConvertHandler, *preview.Store) {
	t.Helper()
	registry, err := conversion.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	store := preview.NewStore(time.Minute, testLogger())
	dispatcher := conversion.NewDispatcher(registry, testLogger())
	return NewConvertHandler(dispatcher, identity, registry, store, testLogger()), store
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, filename string, fileBytes []byte, targetFormat string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if fileBytes != nil {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(fileBytes); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if targetFormat != "" {
		if err := mw.WriteField("target_format", targetFormat); err != nil {
			t.Fatalf("write target_format: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func asUser(req *http.Request, userID string, tier models.SubscriptionTier) *http.Request {
	return req.WithContext(httputil.WithUser(req.Context(), userID, tier))
}

func TestConvert_Success(t *testing.T) {
	identity := &fakeIdentity{user: &models.User{ID: "user-1", Tier: models.TierFree}}
	h, store := testConvertHandler(t, identity)

	req := asUser(multipartRequest(t, "photo.png", pngFixture(t), "jpg"), "user-1", models.TierFree)
	rec := httptest.NewRecorder()
	h.Convert(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ConvertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Filename != "photo.jpg" {
		t.Errorf("filename = %q, want photo.jpg", resp.Filename)
	}
	if resp.MIMEType != "image/jpeg" {
		t.Errorf("mime = %q", resp.MIMEType)
	}
	if resp.PreviewID == "" {
		t.Fatal("missing preview id")
	}
	if resp.PreviewURL != "/api/previews/"+resp.PreviewID {
		t.Errorf("preview url = %q", resp.PreviewURL)
	}

	// The preview survives the request for later download.
	if _, ok := store.Get(resp.PreviewID); !ok {
		t.Error("preview not retained after response")
	}

	if identity.user.ConversionsUsed != 1 {
		t.Errorf("conversions used = %d, want 1", identity.user.ConversionsUsed)
	}
	if len(identity.records) != 1 || !identity.records[0].Success {
		t.Errorf("audit records = %+v", identity.records)
	}
}

func TestConvert_InputValidation(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		fileBytes  []byte
		target     string
		wantStatus int
	}{
		{name: "missing file", fileBytes: nil, target: "jpg", wantStatus: http.StatusBadRequest},
		{name: "missing target", filename: "a.png", fileBytes: []byte("x"), target: "", wantStatus: http.StatusBadRequest},
		{name: "uppercase target", filename: "a.png", fileBytes: []byte("x"), target: "JPG", wantStatus: http.StatusBadRequest},
		{name: "overlong target", filename: "a.png", fileBytes: []byte("x"), target: "aaaaaaaaaaaaaaaaa", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := testConvertHandler(t, &fakeIdentity{})
			rec := httptest.NewRecorder()
			h.Convert(rec, multipartRequest(t, tt.filename, tt.fileBytes, tt.target))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestConvert_DomainErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		fileBytes  []byte
		target     string
		wantStatus int
	}{
		{name: "unknown target format", filename: "a.png", fileBytes: []byte("x"), target: "xyz", wantStatus: http.StatusUnsupportedMediaType},
		{name: "unknown source extension", filename: "a.zzz", fileBytes: []byte("x"), target: "jpg", wantStatus: http.StatusUnsupportedMediaType},
		{name: "cross category", filename: "a.mp3", fileBytes: []byte("x"), target: "jpg", wantStatus: http.StatusUnsupportedMediaType},
		{name: "corrupt image", filename: "a.png", fileBytes: []byte("not a png"), target: "jpg", wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := testConvertHandler(t, &fakeIdentity{})
			rec := httptest.NewRecorder()
			h.Convert(rec, multipartRequest(t, tt.filename, tt.fileBytes, tt.target))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestConvert_QuotaExceeded(t *testing.T) {
	identity := &fakeIdentity{user: &models.User{ID: "user-1", Tier: models.TierFree, ConversionsUsed: 10}}
	h, _ := testConvertHandler(t, identity)

	req := asUser(multipartRequest(t, "photo.png", pngFixture(t), "jpg"), "user-1", models.TierFree)
	rec := httptest.NewRecorder()
	h.Convert(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429, body = %s", rec.Code, rec.Body.String())
	}
	if identity.user.ConversionsUsed != 10 {
		t.Errorf("conversions used = %d, want unchanged 10", identity.user.ConversionsUsed)
	}
	// Failed attempts are still audited.
	if len(identity.records) != 1 || identity.records[0].Success {
		t.Errorf("audit records = %+v", identity.records)
	}
}

func TestConvert_AnonymousSucceeds(t *testing.T) {
	identity := &fakeIdentity{}
	h, _ := testConvertHandler(t, identity)

	rec := httptest.NewRecorder()
	h.Convert(rec, multipartRequest(t, "photo.png", pngFixture(t), "webp"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(identity.records) != 0 {
		t.Errorf("anonymous attempt was audited: %+v", identity.records)
	}
}
