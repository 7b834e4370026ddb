// Package audit emits structured audit events. Events are enriched
// from the context: the request id set by the HTTP layer and the
// security actor, when present.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"gatehouse.org/internal/obs"
	"gatehouse.org/internal/pipeline"
	"gatehouse.org/internal/rls"
)

type requestIDKey struct{}

// WithRequestID stores the request id for audit enrichment.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// Logger records audit events.
type Logger struct {
	log zerolog.Logger
}

func New() *Logger {
	return &Logger{log: obs.Component("audit")}
}

// NewWithLogger uses the given logger instead of the process one.
func NewWithLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

// Log emits one audit event. fields may be nil.
func (l *Logger) Log(ctx context.Context, event string, fields map[string]any) {
	e := l.log.Info().Str("event", event)
	if id, ok := RequestIDFromContext(ctx); ok {
		e = e.Str("request_id", id)
	}
	if actor, ok := rls.ActorFromContext(ctx); ok {
		e = e.Str("actor_id", actor.UserID).Str("actor_role", actor.Role)
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg("audit")
}

// mutations are the operations worth an audit trail; reads are not.
var mutations = map[pipeline.Operation]struct{}{
	pipeline.OpCreate:     {},
	pipeline.OpUpdate:     {},
	pipeline.OpUpsert:     {},
	pipeline.OpUpsertMany: {},
	pipeline.OpDelete:     {},
}

// Hook returns a pipeline after-hook that audits every mutation.
func (l *Logger) Hook() pipeline.Func {
	return func(ctx context.Context, octx *pipeline.OpContext) (*pipeline.OpContext, error) {
		if _, ok := mutations[octx.Operation]; !ok {
			return octx, nil
		}
		fields := map[string]any{
			"entity":      octx.Entity,
			"operation":   string(octx.Operation),
			"soft_delete": octx.SoftDelete,
		}
		if octx.User != nil {
			fields["user_id"] = octx.User.ID
		}
		l.Log(ctx, "entity."+string(octx.Operation), fields)
		return octx, nil
	}
}
