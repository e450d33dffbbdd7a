package auth

import (
	"context"
	"sync"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// SessionContext resolves the authenticated actor behind a request. The
// core never caches the result beyond a single call and never mutates it.
type SessionContext interface {
	// Resolve maps an opaque session token to an actor.
	// Returns domain.EUNAUTHORIZED when the token does not identify a session.
	Resolve(ctx context.Context, token string) (*domain.Actor, error)
}

// TokenSessions is a SessionContext backed by an in-memory token directory.
// Token issuance and credential management live outside this service; the
// directory is loaded at startup (or seeded by tests).
type TokenSessions struct {
	mu     sync.RWMutex
	actors map[string]domain.Actor
}

// NewTokenSessions creates an empty token directory.
func NewTokenSessions() *TokenSessions {
	return &TokenSessions{actors: make(map[string]domain.Actor)}
}

// Register binds a token to an actor.
func (s *TokenSessions) Register(token string, actor domain.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[token] = actor
}

// Resolve maps a token to its actor.
func (s *TokenSessions) Resolve(ctx context.Context, token string) (*domain.Actor, error) {
	const op = "auth.resolve"

	s.mu.RLock()
	defer s.mu.RUnlock()

	actor, ok := s.actors[token]
	if !ok {
		// Never echo the presented token back in the error.
		return nil, domain.Errorf(domain.EUNAUTHORIZED, op, "unknown session token")
	}
	// Copy so callers can never mutate the directory entry.
	out := actor
	return &out, nil
}

var _ SessionContext = (*TokenSessions)(nil)
