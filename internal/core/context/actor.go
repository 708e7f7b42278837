// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor identifies who triggered an engine operation.
// Authentication happens in front of the engine; the gate forwards the
// resolved identity and the engine only records it.
type Actor struct {
	UserID   string
	BranchID string
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetUserID returns the acting user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.UserID
	}
	return ""
}
