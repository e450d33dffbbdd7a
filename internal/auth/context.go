// Package auth provides authentication context helpers and the session
// boundary the core consumes.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/mfauzirahman/rawatoko/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// actorContextKey is the key used to store the authenticated actor in context.
	actorContextKey contextKey = "actor"
)

// GetActor retrieves the authenticated actor from the context.
//
// Returns nil if no actor is authenticated.
func GetActor(ctx context.Context) *domain.Actor {
	actor, ok := ctx.Value(actorContextKey).(*domain.Actor)
	if !ok {
		return nil
	}
	return actor
}

// GetActorFromRequest retrieves the authenticated actor from the request
// context.
func GetActorFromRequest(r *http.Request) *domain.Actor {
	return GetActor(r.Context())
}

// SetActor stores an actor in the context.
//
// This is typically called by authentication middleware after resolving a
// session token.
func SetActor(ctx context.Context, actor *domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}
