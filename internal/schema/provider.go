// Package schema consumes entity metadata from an introspection
// provider and derives the identity-entity configuration the auth
// engine runs on.
package schema

import "context"

// Field describes one attribute of an entity.
type Field struct {
	Name     string
	Type     string
	Unique   bool
	Nullable bool
}

// Relation describes a foreign-key edge from an entity field to
// another entity.
type Relation struct {
	Field      string
	References string
}

// Provider supplies entity metadata. Implementations never execute
// user queries, metadata only.
type Provider interface {
	ListEntities(ctx context.Context) ([]string, error)
	Fields(ctx context.Context, entity string) ([]Field, error)
	ScalarFields(ctx context.Context, entity string) ([]Field, error)
	PrimaryKey(ctx context.Context, entity string) (string, error)
	Relations(ctx context.Context, entity string) ([]Relation, error)
}
