// Package rls carries the authenticated identity across a request's
// call chain and injects it into database transactions as
// session-scoped variables, so row-level policies in the database can
// consult it.
package rls

import "context"

// Actor is the identity a database call runs as.
type Actor struct {
	UserID string
	Role   string
}

type actorContextKey struct{}

// WithActor attaches the actor to the context. Database calls made
// under this context run with row-level variables set; calls made
// without it bypass injection entirely, which is the deliberate escape
// hatch for system-internal work.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, &actor)
}

// ActorFromContext extracts the actor, if one was attached. An actor
// never leaks in from an unrelated request; context values are scoped
// to one call chain by construction.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	v, ok := ctx.Value(actorContextKey{}).(*Actor)
	if !ok || v == nil || v.UserID == "" {
		return Actor{}, false
	}
	return *v, true
}
