package auth

import (
	"fmt"

	"gatehouse.org/internal/schema"
)

// DefaultRole is assumed when the identity entity carries no role
// attribute.
const DefaultRole = "user"

// User is a sanitized identity snapshot. It never holds the
// secret-credential field.
type User struct {
	ID    string
	Role  string
	Attrs map[string]any
}

// Snapshot flattens the user into the map embedded in tokens and
// session records.
func (u *User) Snapshot() map[string]any {
	out := make(map[string]any, len(u.Attrs)+2)
	for k, v := range u.Attrs {
		out[k] = v
	}
	out["id"] = u.ID
	out["role"] = u.Role
	return out
}

// UserFromSnapshot rebuilds a user from an embedded snapshot.
func UserFromSnapshot(snapshot map[string]any) *User {
	u := &User{Role: DefaultRole, Attrs: make(map[string]any)}
	for k, v := range snapshot {
		switch k {
		case "id":
			u.ID = stringify(v)
		case "role":
			if s := stringify(v); s != "" {
				u.Role = s
			}
		default:
			u.Attrs[k] = v
		}
	}
	return u
}

// userFromRow sanitizes a raw identity row: the secret field is
// stripped, the primary key becomes the id, the role attribute (when
// present) becomes the role.
func userFromRow(ident schema.Identity, row map[string]any) *User {
	u := &User{Role: DefaultRole, Attrs: make(map[string]any)}
	for k, v := range row {
		switch k {
		case ident.SecretField:
			// Never carried into snapshots.
		case ident.PKField:
			u.ID = stringify(v)
		case ident.RoleField:
			if s := stringify(v); s != "" {
				u.Role = s
			}
		default:
			u.Attrs[k] = v
		}
	}
	return u
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
