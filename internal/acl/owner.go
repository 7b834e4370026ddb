package acl

import "gatehouse.org/internal/auth"

// AdminRole is unrestricted under OwnerPolicy.
const AdminRole = "admin"

// OwnerPolicy restricts an entity to rows owned by the acting user:
// admins pass unrestricted, anonymous callers are denied, and everyone
// else is filtered to rows whose ownerField equals their user id.
// Creates must set ownerField to the creator.
func OwnerPolicy(ownerField string) Policy {
	return ownerPolicy{field: ownerField}
}

type ownerPolicy struct {
	field string
}

func (p ownerPolicy) CanCreate(user *auth.User, data map[string]any) Decision {
	if user == nil {
		return Deny()
	}
	if user.Role == AdminRole {
		return Allow()
	}
	if owner, ok := data[p.field]; ok && owner != user.ID {
		return Deny()
	}
	return Filter(map[string]any{p.field: user.ID})
}

func (p ownerPolicy) AccessFilter(user *auth.User) Decision { return p.rowFilter(user) }

func (p ownerPolicy) UpdateFilter(user *auth.User) Decision { return p.rowFilter(user) }

func (p ownerPolicy) DeleteFilter(user *auth.User) Decision { return p.rowFilter(user) }

func (p ownerPolicy) rowFilter(user *auth.User) Decision {
	if user == nil {
		return Deny()
	}
	if user.Role == AdminRole {
		return Allow()
	}
	return Filter(map[string]any{p.field: user.ID})
}
