package schema

import (
	"context"
	"fmt"
	"strings"
)

// Conventional names considered when no identity entity is configured.
var identityEntityCandidates = []string{
	"user", "users", "account", "accounts", "member", "members", "person", "people",
}

// Field names tried for the secret credential, in order.
var secretFieldCandidates = []string{
	"password", "password_hash", "passwordhash", "hash", "secret", "credentials",
}

// Field names tried for the role attribute, in order.
var roleFieldCandidates = []string{"role", "roles", "user_role"}

const fallbackIdentifierField = "email"

// Identity is the resolved identity-entity configuration. Enabled is
// false when no entity could be resolved; every auth entry point then
// short-circuits with a configuration failure instead of breaking in
// unrelated ways.
type Identity struct {
	Entity           string
	Table            string
	PKField          string
	IdentifierFields []string
	SecretField      string
	RoleField        string
	Fields           []string
	Enabled          bool
}

// Options are the explicit overrides. Anything set here wins over
// inference, field by field.
type Options struct {
	Entity           string
	IdentifierFields []string
	SecretField      string
	RoleField        string
}

// Resolve inspects the provider's entities and derives the identity
// configuration. A missing identity entity yields Enabled=false, not
// an error; provider failures are returned so callers can retry.
func Resolve(ctx context.Context, p Provider, opts Options) (Identity, error) {
	entities, err := p.ListEntities(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("schema: list entities: %w", err)
	}

	entity := matchEntity(entities, opts.Entity)
	if entity == "" {
		return Identity{Enabled: false}, nil
	}

	scalars, err := p.ScalarFields(ctx, entity)
	if err != nil {
		return Identity{}, fmt.Errorf("schema: scalar fields of %s: %w", entity, err)
	}
	pk, err := p.PrimaryKey(ctx, entity)
	if err != nil {
		return Identity{}, fmt.Errorf("schema: primary key of %s: %w", entity, err)
	}

	ident := Identity{
		Entity:  entity,
		Table:   entity,
		PKField: pk,
		Enabled: true,
	}
	for _, f := range scalars {
		ident.Fields = append(ident.Fields, f.Name)
	}

	if len(opts.IdentifierFields) > 0 {
		ident.IdentifierFields = opts.IdentifierFields
	} else {
		ident.IdentifierFields = detectIdentifierFields(scalars)
	}

	if opts.SecretField != "" {
		ident.SecretField = opts.SecretField
	} else {
		ident.SecretField = detectField(scalars, secretFieldCandidates)
	}

	if opts.RoleField != "" {
		ident.RoleField = opts.RoleField
	} else {
		ident.RoleField = detectField(scalars, roleFieldCandidates)
	}

	return ident, nil
}

// matchEntity resolves the identity entity name: explicit name first
// (case-insensitive), then the conventional candidates.
func matchEntity(entities []string, explicit string) string {
	if explicit != "" {
		for _, e := range entities {
			if strings.EqualFold(e, explicit) {
				return e
			}
		}
		return ""
	}
	for _, candidate := range identityEntityCandidates {
		for _, e := range entities {
			if strings.EqualFold(e, candidate) {
				return e
			}
		}
	}
	return ""
}

// detectIdentifierFields selects unique string-typed scalars whose
// names do not suggest a secret. Falls back to the conventional
// default when nothing qualifies.
func detectIdentifierFields(scalars []Field) []string {
	var out []string
	for _, f := range scalars {
		if !f.Unique || !isStringType(f.Type) || suggestsSecret(f.Name) {
			continue
		}
		out = append(out, f.Name)
	}
	if len(out) > 0 {
		return out
	}
	for _, f := range scalars {
		if strings.EqualFold(f.Name, fallbackIdentifierField) {
			return []string{f.Name}
		}
	}
	return nil
}

func detectField(scalars []Field, candidates []string) string {
	for _, candidate := range candidates {
		for _, f := range scalars {
			if strings.EqualFold(f.Name, candidate) {
				return f.Name
			}
		}
	}
	return ""
}

func isStringType(t string) bool {
	switch strings.ToLower(t) {
	case "text", "varchar", "character varying", "character", "string", "citext":
		return true
	}
	return false
}

func suggestsSecret(name string) bool {
	name = strings.ToLower(name)
	for _, hint := range []string{"password", "hash", "secret", "salt", "credential"} {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}
