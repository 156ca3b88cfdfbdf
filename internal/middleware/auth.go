package middleware

import (
	"net/http"
	"strings"

	"convertly/internal/auth"
	"convertly/internal/httputil"
)

// publicPaths are reachable without a session: health probe and the format
// listing the landing page renders before login.
var publicPaths = map[string]bool{
	"/health":      true,
	"/api/formats": true,
}

// Auth validates the Bearer token on API routes and stores the user's ID
// and subscription tier in the request context. Requests without a valid
// token are rejected with 401 except on public paths.
func Auth(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := httputil.WithUser(r.Context(), claims.GetUserID(), claims.SubscriptionTier())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
