package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"convertly/internal/domain/models"
	"convertly/internal/httputil"
)

type fakeVerifier struct {
	claims *models.SupabaseClaims
	err    error
}

func (f *fakeVerifier) VerifyToken(token string) (*models.SupabaseClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func (f *fakeVerifier) Close() error { return nil }

func premiumClaims(userID string) *models.SupabaseClaims {
	return &models.SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
		AppMetadata:      map[string]interface{}{"subscription_tier": "premium"},
		Role:             "authenticated",
	}
}

func TestAuth_ValidTokenPopulatesContext(t *testing.T) {
	var gotUserID string
	var gotTier models.SubscriptionTier
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = httputil.GetUserID(r)
		gotTier = httputil.TierFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	mw := Auth(&fakeVerifier{claims: premiumClaims("user-1")})
	req := httptest.NewRequest(http.MethodGet, "/api/users/me/usage", nil)
	req.Header.Set("Authorization", "Bearer some-token")

	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotUserID != "user-1" {
		t.Errorf("user id = %q", gotUserID)
	}
	if gotTier != models.TierPremium {
		t.Errorf("tier = %q, want premium", gotTier)
	}
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier *fakeVerifier
	}{
		{name: "missing header", header: "", verifier: &fakeVerifier{}},
		{name: "not bearer", header: "Basic dXNlcg==", verifier: &fakeVerifier{}},
		{name: "empty token", header: "Bearer ", verifier: &fakeVerifier{}},
		{name: "verification fails", header: "Bearer bad", verifier: &fakeVerifier{err: errors.New("expired")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("next handler reached without valid auth")
			})

			req := httptest.NewRequest(http.MethodPost, "/api/convert", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			Auth(tt.verifier)(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuth_PublicPathsSkipVerification(t *testing.T) {
	for _, path := range []string{"/health", "/api/formats"} {
		t.Run(path, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			Auth(&fakeVerifier{err: errors.New("should not be called")})(next).ServeHTTP(rec, req)

			if !called {
				t.Error("public path did not reach the handler")
			}
		})
	}
}

func TestAuth_PreflightPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/convert", nil)
	rec := httptest.NewRecorder()
	Auth(&fakeVerifier{})(next).ServeHTTP(rec, req)

	if !called {
		t.Error("OPTIONS preflight blocked by auth")
	}
}
