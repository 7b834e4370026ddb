package pipeline

import (
	"context"
	"time"
)

// TimestampHook stamps createdAt on creates and upserts and updatedAt
// on every mutation. Register it as a wildcard before-hook on the
// mutating operations.
func TimestampHook() Func {
	return func(_ context.Context, octx *OpContext) (*OpContext, error) {
		if octx.Data == nil {
			octx.Data = map[string]any{}
		}
		now := octx.Timestamp
		if now.IsZero() {
			now = time.Now().UTC()
		}
		switch octx.Operation {
		case OpCreate, OpUpsert, OpUpsertMany:
			if _, ok := octx.Data["createdAt"]; !ok {
				octx.Data["createdAt"] = now
			}
			octx.Data["updatedAt"] = now
		case OpUpdate:
			octx.Data["updatedAt"] = now
		}
		return octx, nil
	}
}

// SoftDeleteHook rewrites deletes into updates that stamp deletedAt,
// and marks the context so the executor skips the physical delete.
func SoftDeleteHook() Func {
	return func(_ context.Context, octx *OpContext) (*OpContext, error) {
		if octx.Operation != OpDelete {
			return octx, nil
		}
		if octx.Data == nil {
			octx.Data = map[string]any{}
		}
		now := octx.Timestamp
		if now.IsZero() {
			now = time.Now().UTC()
		}
		octx.Data["deletedAt"] = now
		octx.SoftDelete = true
		octx.Skip = true
		return octx, nil
	}
}
