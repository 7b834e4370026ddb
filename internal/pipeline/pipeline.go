// Package pipeline runs before/after hook chains around entity
// operations. Handlers are registered per hook, operation, and entity;
// the empty entity name is a wildcard that runs ahead of
// entity-specific handlers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gatehouse.org/internal/auth"
)

// Hook names the phase a handler runs in.
type Hook string

const (
	Before Hook = "before"
	After  Hook = "after"
)

// Operation names the entity operation being wrapped.
type Operation string

const (
	OpCreate     Operation = "create"
	OpUpdate     Operation = "update"
	OpUpsert     Operation = "upsert"
	OpUpsertMany Operation = "upsertMany"
	OpDelete     Operation = "delete"
	OpGet        Operation = "get"
	OpGetMany    Operation = "getMany"
	OpCount      Operation = "count"
)

var (
	ErrUnknownHook      = errors.New("pipeline: unknown hook")
	ErrUnknownOperation = errors.New("pipeline: unknown operation")
	ErrNilHandler       = errors.New("pipeline: nil handler")
)

var validOps = map[Operation]struct{}{
	OpCreate: {}, OpUpdate: {}, OpUpsert: {}, OpUpsertMany: {},
	OpDelete: {}, OpGet: {}, OpGetMany: {}, OpCount: {},
}

// OpContext travels through a hook chain. Handlers may mutate it or
// return a replacement; setting Abort stops the chain.
type OpContext struct {
	Entity    string
	Operation Operation
	User      *auth.User
	Timestamp time.Time
	Params    map[string]any
	Data      map[string]any
	Result    any

	// Abort stops the chain; the surrounding operation must not run.
	Abort bool
	// Skip tells the surrounding operation that a handler already
	// performed it.
	Skip bool
	// SoftDelete marks a delete that was rewritten into an update.
	SoftDelete bool
}

// NewContext seeds an operation context. user may be nil.
func NewContext(entity string, op Operation, user *auth.User, params map[string]any) *OpContext {
	if params == nil {
		params = map[string]any{}
	}
	return &OpContext{
		Entity:    entity,
		Operation: op,
		User:      user,
		Timestamp: time.Now().UTC(),
		Params:    params,
	}
}

// Func is a single hook handler. Returning a non-nil context replaces
// the one flowing through the chain; returning nil keeps the current
// one.
type Func func(ctx context.Context, octx *OpContext) (*OpContext, error)

type hookKey struct {
	hook   Hook
	op     Operation
	entity string
}

// Pipeline holds registered handlers. The zero value is not usable;
// construct with New.
type Pipeline struct {
	mu       sync.RWMutex
	handlers map[hookKey][]Func
}

func New() *Pipeline {
	return &Pipeline{handlers: map[hookKey][]Func{}}
}

// Use registers fn for the given hook and operation. entity "" makes
// the handler a wildcard running for every entity.
func (p *Pipeline) Use(hook Hook, op Operation, entity string, fn Func) error {
	if hook != Before && hook != After {
		return fmt.Errorf("%w: %q", ErrUnknownHook, hook)
	}
	if _, ok := validOps[op]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if fn == nil {
		return ErrNilHandler
	}
	key := hookKey{hook: hook, op: op, entity: entity}
	p.mu.Lock()
	p.handlers[key] = append(p.handlers[key], fn)
	p.mu.Unlock()
	return nil
}

// Handlers returns the ordered handler chain for the hook, operation,
// and entity: wildcard handlers first, then entity-specific ones, each
// group in registration order. The result is never nil.
func (p *Pipeline) Handlers(hook Hook, op Operation, entity string) []Func {
	p.mu.RLock()
	defer p.mu.RUnlock()
	wildcard := p.handlers[hookKey{hook: hook, op: op}]
	specific := p.handlers[hookKey{hook: hook, op: op, entity: entity}]
	chain := make([]Func, 0, len(wildcard)+len(specific))
	chain = append(chain, wildcard...)
	if entity != "" {
		chain = append(chain, specific...)
	}
	return chain
}

// Execute runs the chain for octx. Each handler's non-nil return
// replaces the flowing context; the chain stops at the first error or
// as soon as a handler sets Abort. An aborted context is still
// returned so the caller can see what the handler recorded.
func (p *Pipeline) Execute(ctx context.Context, hook Hook, octx *OpContext) (*OpContext, error) {
	for _, fn := range p.Handlers(hook, octx.Operation, octx.Entity) {
		next, err := fn(ctx, octx)
		if err != nil {
			return octx, err
		}
		if next != nil {
			octx = next
		}
		if octx.Abort {
			return octx, nil
		}
	}
	return octx, nil
}
