package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mfauzirahman/rawatoko/internal/auth"
	"github.com/mfauzirahman/rawatoko/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthMiddleware() (*AuthMiddleware, domain.Actor) {
	actor := domain.Actor{ID: uuid.New(), Name: "Budi", Role: domain.RoleFieldReporter}
	sessions := auth.NewTokenSessions()
	sessions.Register("tok-budi", actor)
	return NewAuthMiddleware(sessions, discardLogger()), actor
}

// echoActor records whether an actor reached the handler.
func echoActor(captured **domain.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = auth.GetActorFromRequest(r)
		w.WriteHeader(http.StatusOK)
	})
}

// =============================================================================
// WithActor
// =============================================================================

func TestWithActor(t *testing.T) {
	mw, actor := newAuthMiddleware()

	tests := []struct {
		name      string
		header    string
		wantActor bool
	}{
		{"valid bearer token", "Bearer tok-budi", true},
		{"case-insensitive scheme", "bearer tok-budi", true},
		{"unknown token", "Bearer tok-nobody", false},
		{"missing header", "", false},
		{"wrong scheme", "Basic tok-budi", false},
		{"bare token without scheme", "tok-budi", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *domain.Actor
			h := mw.WithActor(echoActor(&captured))

			req := httptest.NewRequest("GET", "/api/reports", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			// WithActor never blocks the request itself
			assert.Equal(t, http.StatusOK, rec.Code)
			if tt.wantActor {
				assert.NotNil(t, captured)
				assert.Equal(t, actor.ID, captured.ID)
			} else {
				assert.Nil(t, captured)
			}
		})
	}
}

// =============================================================================
// RequireActor
// =============================================================================

func TestRequireActor(t *testing.T) {
	mw, _ := newAuthMiddleware()
	requireActor := Stack(mw.WithActor, mw.RequireActor)

	var captured *domain.Actor
	h := requireActor(echoActor(&captured))

	t.Run("authenticated request passes", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/reports", nil)
		req.Header.Set("Authorization", "Bearer tok-budi")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, captured)
	})

	t.Run("anonymous request rejected", func(t *testing.T) {
		captured = nil
		req := httptest.NewRequest("GET", "/api/reports", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, captured)
	})
}

// =============================================================================
// Metrics Basic Auth
// =============================================================================

func TestMetricsAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("disabled when unconfigured", func(t *testing.T) {
		h := NewMetricsAuthMiddleware("", "").Handler(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects missing credentials", func(t *testing.T) {
		h := NewMetricsAuthMiddleware("prom", "secret").Handler(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		h := NewMetricsAuthMiddleware("prom", "secret").Handler(ok)
		req := httptest.NewRequest("GET", "/metrics", nil)
		req.SetBasicAuth("prom", "wrong")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts valid credentials", func(t *testing.T) {
		h := NewMetricsAuthMiddleware("prom", "secret").Handler(ok)
		req := httptest.NewRequest("GET", "/metrics", nil)
		req.SetBasicAuth("prom", "secret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
