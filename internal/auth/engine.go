// Package auth owns credential verification, token issuance, session
// lifecycle, and the credential-transport handlers. The engine
// auto-configures itself from schema metadata on first use and runs
// in a well-defined disabled state when no identity entity resolves.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gatehouse.org/internal/obs"
	"gatehouse.org/internal/schema"
	"gatehouse.org/internal/session"
)

// IdentityStore is the slice of the query executor the engine needs:
// identity-row lookups only. Absent rows are reported via
// pg.ErrNotFound.
type IdentityStore interface {
	FindByIdentifiers(ctx context.Context, ident schema.Identity, value string) (map[string]any, error)
	FindByField(ctx context.Context, ident schema.Identity, field, value string) (map[string]any, error)
	FindByPK(ctx context.Context, ident schema.Identity, id string) (map[string]any, error)
}

type state int

const (
	stateUninitialized state = iota
	stateInitializing
	stateReady
)

// Config parameterizes the engine. Empty secrets are auto-generated
// with a warning unless DisableAutoSecret is set; explicit identity
// overrides skip the corresponding schema inference.
type Config struct {
	AccessSecret      string
	RefreshSecret     string
	DisableAutoSecret bool
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	BcryptCost        int

	IdentityEntity   string
	IdentifierFields []string
	SecretField      string
	RoleField        string
}

// Engine is the auth subsystem entry point.
type Engine struct {
	provider schema.Provider
	store    IdentityStore
	sessions *session.Manager
	log      zerolog.Logger
	now      func() time.Time

	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	bcryptCost    int
	schemaOpts    schema.Options

	mu       sync.Mutex
	state    state
	initDone chan struct{}
	initErr  error
	identity schema.Identity
}

// Option configures the engine.
type Option func(*Engine)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New constructs the engine. Initialization against the schema
// provider is deferred to the first use (or an explicit Init call).
func New(provider schema.Provider, store IdentityStore, sessions *session.Manager, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		provider:   provider,
		store:      store,
		sessions:   sessions,
		log:        obs.Component("auth"),
		now:        time.Now,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		bcryptCost: clampCost(cfg.BcryptCost),
		schemaOpts: schema.Options{
			Entity:           cfg.IdentityEntity,
			IdentifierFields: cfg.IdentifierFields,
			SecretField:      cfg.SecretField,
			RoleField:        cfg.RoleField,
		},
	}
	if e.accessTTL <= 0 {
		e.accessTTL = 15 * time.Minute
	}
	if e.refreshTTL <= 0 {
		e.refreshTTL = 14 * 24 * time.Hour
	}
	for _, opt := range opts {
		opt(e)
	}

	e.accessSecret = e.resolveSecret(cfg.AccessSecret, cfg.DisableAutoSecret, "access")
	if cfg.RefreshSecret != "" {
		e.refreshSecret = []byte(cfg.RefreshSecret)
	} else {
		// Dedicated refresh secret preferred; fall back to the access
		// secret when none is configured.
		e.refreshSecret = e.accessSecret
	}
	return e
}

func (e *Engine) resolveSecret(configured string, disableAuto bool, kind string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	if disableAuto {
		return nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil
	}
	e.log.Warn().
		Str("secret", kind).
		Msg("no signing secret configured, generated an ephemeral one; tokens will not survive a restart")
	return []byte(hex.EncodeToString(buf))
}

// Init resolves the identity configuration. Idempotent: concurrent and
// repeated calls share one in-flight initialization.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case stateReady:
		e.mu.Unlock()
		return nil
	case stateInitializing:
		done := e.initDone
		e.mu.Unlock()
		select {
		case <-done:
			e.mu.Lock()
			err := e.initErr
			e.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	e.state = stateInitializing
	e.initDone = make(chan struct{})
	done := e.initDone
	e.mu.Unlock()

	ident, err := schema.Resolve(ctx, e.provider, e.schemaOpts)

	e.mu.Lock()
	if err != nil {
		// Provider failure: stay retryable rather than latching a
		// half-configured state.
		e.state = stateUninitialized
		e.initErr = err
	} else {
		e.state = stateReady
		e.initErr = nil
		e.identity = ident
		if ident.Enabled {
			e.log.Info().
				Str("entity", ident.Entity).
				Strs("identifier_fields", ident.IdentifierFields).
				Str("secret_field", ident.SecretField).
				Msg("auth configured")
		} else {
			e.log.Warn().Msg("no identity entity resolved, auth is disabled")
		}
	}
	close(done)
	e.mu.Unlock()
	return err
}

// ensureReady lazily initializes and reports whether auth is usable.
func (e *Engine) ensureReady(ctx context.Context) error {
	if err := e.Init(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.identity.Enabled {
		return ErrNotConfigured
	}
	return nil
}

// IsEnabled reports whether the engine resolved an identity entity.
func (e *Engine) IsEnabled(ctx context.Context) bool {
	return e.ensureReady(ctx) == nil
}

// Identity returns the resolved identity configuration.
func (e *Engine) Identity() schema.Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}

// GetSessionStore exposes the session-store manager.
func (e *Engine) GetSessionStore() *session.Manager { return e.sessions }
