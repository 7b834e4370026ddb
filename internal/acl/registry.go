package acl

import "sync"

// Registry maps entity names to their policies. Entities without a
// registered policy carry no access restriction beyond row-level
// security in the database.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{policies: map[string]Policy{}}
}

// Register installs the policy for the entity, replacing any existing
// one. A nil policy removes the registration.
func (r *Registry) Register(entity string, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == nil {
		delete(r.policies, entity)
		return
	}
	r.policies[entity] = p
}

// For returns the policy registered for the entity.
func (r *Registry) For(entity string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[entity]
	return p, ok
}
