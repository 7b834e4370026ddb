// Package acl evaluates per-entity access policies. A policy answers
// one question per operation class: may this user act, and if so, on
// which rows. Evaluation is pure; policies must not touch storage.
package acl

import "gatehouse.org/internal/auth"

// Effect classifies a Decision.
type Effect int

const (
	// EffectAllow grants the operation with no row restriction.
	EffectAllow Effect = iota
	// EffectDeny rejects the operation outright.
	EffectDeny
	// EffectFilter grants the operation restricted to rows matching
	// the decision's filter.
	EffectFilter
)

// Decision is the outcome of a policy check.
type Decision struct {
	effect Effect
	filter map[string]any
}

// Allow grants with no restriction.
func Allow() Decision { return Decision{effect: EffectAllow} }

// Deny rejects outright.
func Deny() Decision { return Decision{effect: EffectDeny} }

// Filter grants restricted to rows matching the given equality
// conditions. A nil or empty filter is equivalent to Allow.
func Filter(conditions map[string]any) Decision {
	if len(conditions) == 0 {
		return Allow()
	}
	return Decision{effect: EffectFilter, filter: conditions}
}

// Effect reports how the decision classifies.
func (d Decision) Effect() Effect { return d.effect }

// Allowed reports whether the operation may proceed at all.
func (d Decision) Allowed() bool { return d.effect != EffectDeny }

// Conditions returns the row filter for EffectFilter decisions and
// nil otherwise.
func (d Decision) Conditions() map[string]any {
	if d.effect != EffectFilter {
		return nil
	}
	return d.filter
}

// Policy restricts what a user may do with one entity. The user may
// be nil for anonymous callers; policies must handle that.
type Policy interface {
	// CanCreate decides whether the user may create the given row.
	// Filter decisions constrain the incoming data: every condition
	// must match the submitted values.
	CanCreate(user *auth.User, data map[string]any) Decision

	// AccessFilter restricts reads.
	AccessFilter(user *auth.User) Decision

	// UpdateFilter restricts which rows the user may modify.
	UpdateFilter(user *auth.User) Decision

	// DeleteFilter restricts which rows the user may delete.
	DeleteFilter(user *auth.User) Decision
}
