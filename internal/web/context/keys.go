package context

import (
	"context"

	"github.com/yahoo/elide-sub004/internal/dictionary"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey int

const (
	requestIDKey contextKey = iota
	userKey
)

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// SetRequestID adds the request ID to the context
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetUser extracts the authenticated principal, or nil
func GetUser(ctx context.Context) *dictionary.User {
	user, _ := ctx.Value(userKey).(*dictionary.User)
	return user
}

// SetUser adds the authenticated principal to the context
func SetUser(ctx context.Context, user *dictionary.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
