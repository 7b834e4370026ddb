// Package session provides pluggable storage for server-held session
// records: an in-process store and a redis-backed one, selected by a
// manager that falls back to the in-process backend when the
// configured one is unrecognized.
package session

import (
	"context"
	"time"
)

// DefaultTTL applies whenever a store is configured with a
// non-positive TTL. Zero must never mean "no expiry" or "already
// expired".
const DefaultTTL = 24 * time.Hour

// Data is the sanitized identity snapshot stored per session. It never
// contains the secret-credential field.
type Data map[string]any

// Store is the uniform session contract. Get reports absence via the
// bool; the error is reserved for backend failures, which must surface
// rather than masquerade as "not found". Delete and Refresh of a
// missing id are no-ops.
type Store interface {
	Create(ctx context.Context, id string, data Data) error
	Get(ctx context.Context, id string) (Data, bool, error)
	Delete(ctx context.Context, id string) error
	Refresh(ctx context.Context, id string) error
	IsHealthy(ctx context.Context) bool
	Destroy() error
}
