package schema

import (
	"context"
	"fmt"
)

// StaticProvider serves metadata from an in-memory definition. Used by
// embedders that already know their schema, and by tests.
type StaticProvider struct {
	EntityFields map[string][]Field
	PKs          map[string]string
	Rels         map[string][]Relation
}

var _ Provider = (*StaticProvider)(nil)

func (s *StaticProvider) ListEntities(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(s.EntityFields))
	for name := range s.EntityFields {
		out = append(out, name)
	}
	return out, nil
}

func (s *StaticProvider) Fields(ctx context.Context, entity string) ([]Field, error) {
	fields, ok := s.EntityFields[entity]
	if !ok {
		return nil, fmt.Errorf("schema: unknown entity %q", entity)
	}
	return fields, nil
}

// ScalarFields for a static provider are the declared fields; embedders
// list only scalars.
func (s *StaticProvider) ScalarFields(ctx context.Context, entity string) ([]Field, error) {
	return s.Fields(ctx, entity)
}

func (s *StaticProvider) PrimaryKey(ctx context.Context, entity string) (string, error) {
	if pk, ok := s.PKs[entity]; ok {
		return pk, nil
	}
	return "id", nil
}

func (s *StaticProvider) Relations(ctx context.Context, entity string) ([]Relation, error) {
	return s.Rels[entity], nil
}
