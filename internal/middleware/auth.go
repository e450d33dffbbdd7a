// Package middleware contains HTTP middleware for the maintenance report
// API.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mfauzirahman/rawatoko/internal/auth"
	"github.com/mfauzirahman/rawatoko/internal/handler"
)

// =============================================================================
// Auth Middleware Configuration
// =============================================================================

// AuthMiddleware resolves bearer tokens into actors.
type AuthMiddleware struct {
	sessions auth.SessionContext
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(sessions auth.SessionContext, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		logger:   logger,
	}
}

// =============================================================================
// WithActor Middleware
// =============================================================================

// WithActor attempts to resolve the Authorization bearer token into an
// actor and stores it in the request context. The request continues
// regardless of the outcome; use RequireActor to enforce authentication.
func (m *AuthMiddleware) WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := m.sessions.Resolve(r.Context(), token)
		if err != nil {
			m.logger.Info("session resolution failed",
				"error", err,
				"path", r.URL.Path,
			)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetActor(r.Context(), actor)))
	})
}

// =============================================================================
// RequireActor Middleware
// =============================================================================

// RequireActor rejects requests that did not resolve to an actor with a
// 401 response. It must run after WithActor.
func (m *AuthMiddleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetActorFromRequest(r) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Middleware Composition
// =============================================================================

// Stack composes middlewares so the first listed runs outermost.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
// Returns "" when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		return ""
	}
	scheme, token, found := strings.Cut(raw, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
