package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"quix/internal/auth"
	"quix/internal/httputil"
)

// DevUserHeader carries the actor id when no verifier is configured
const DevUserHeader = "X-User-ID"

// AuthMiddleware resolves the actor of every request. With a verifier the
// actor is the subject of the bearer token; without one the X-User-ID
// header is trusted, which is only acceptable for local development.
// /health is left open.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				userID := strings.TrimSpace(r.Header.Get(DevUserHeader))
				if userID == "" {
					httputil.RespondError(w, http.StatusUnauthorized, "missing "+DevUserHeader+" header")
					return
				}
				next.ServeHTTP(w, httputil.WithActor(r, userID))
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
				logger.Debug("token rejected", "error", err, "path", r.URL.Path)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithActor(r, claims.GetUserID()))
		})
	}
}
