package web

import (
	"context"

	"github.com/Olprog59/go-deliverables/internal/view"
)

// ContextKey is a custom type used for creating context keys.
// Using a custom type for context keys helps prevent collisions between keys
// defined in different packages.
type ContextKey string

// SessionContextKey stores the browser session set by the Session middleware.
const SessionContextKey = ContextKey("session")

// requestIDContextKey stores the request ID set by RequestID.
const requestIDContextKey = ContextKey("request_id")

// SessionFromContext returns the session attached to ctx, if any.
func SessionFromContext(ctx context.Context) (*view.Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*view.Session)
	return s, ok && s != nil
}
