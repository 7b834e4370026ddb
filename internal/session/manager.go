package session

import (
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gatehouse.org/internal/obs"
)

// Backend names accepted by the manager.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Status reports what the manager was asked for versus what it runs.
// The fallback is silent at call sites but never invisible to
// operators.
type Status struct {
	Configured    string `json:"configured"`
	Active        string `json:"active"`
	UsingFallback bool   `json:"using_fallback"`
}

// ManagerConfig selects and parameterizes the backend.
type ManagerConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Manager is the single session-store handle the rest of the system
// holds. It delegates the full Store contract to the selected backend.
type Manager struct {
	Store
	status Status
	log    zerolog.Logger
}

// NewManager selects the configured backend. Unrecognized names fall
// back to the in-process store with a logged warning, a metric, and a
// Status that reports the substitution.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{log: obs.Component("session")}
	configured := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if configured == "" {
		configured = BackendMemory
	}
	m.status.Configured = configured

	switch configured {
	case BackendMemory:
		m.Store = NewMemory(WithTTL(cfg.TTL))
		m.status.Active = BackendMemory
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		m.Store = NewRedis(client, WithRedisTTL(cfg.TTL))
		m.status.Active = BackendRedis
	default:
		m.log.Warn().
			Str("configured", configured).
			Str("active", BackendMemory).
			Msg("unrecognized session backend, falling back to in-process store")
		obs.ObserveSessionFallback()
		m.Store = NewMemory(WithTTL(cfg.TTL))
		m.status.Active = BackendMemory
		m.status.UsingFallback = true
	}
	return m
}

// Status reports the configured backend, the active backend, and
// whether a fallback happened.
func (m *Manager) Status() Status { return m.status }
