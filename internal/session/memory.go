package session

import (
	"context"
	"sync"
	"time"
)

const janitorInterval = time.Minute

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// Memory is the in-process store: a map with lazy expiry on access and
// a background sweep for memory reclamation under low read volume.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	ttl  time.Duration
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

var _ Store = (*Memory)(nil)

// MemoryOption configures the in-process store.
type MemoryOption func(*Memory)

// WithTTL sets the session lifetime. Non-positive values resolve to
// DefaultTTL.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory constructs the in-process store and starts its sweep
// goroutine. Destroy stops it.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     DefaultTTL,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.janitor()
	return m
}

func (m *Memory) Create(ctx context.Context, id string, data Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (Data, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		// Lazy eviction; recheck under the write lock in case of a
		// concurrent Create with the same id.
		m.mu.Lock()
		if cur, still := m.entries[id]; still && m.now().After(cur.expiresAt) {
			delete(m.entries, id)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.data, true, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Refresh extends the expiry of a live session without touching its
// data. Missing or expired ids are left alone.
func (m *Memory) Refresh(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok || m.now().After(entry.expiresAt) {
		return nil
	}
	entry.expiresAt = m.now().Add(m.ttl)
	m.entries[id] = entry
	return nil
}

func (m *Memory) IsHealthy(ctx context.Context) bool { return true }

func (m *Memory) Destroy() error {
	m.once.Do(func() { close(m.stop) })
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := m.now()
			m.mu.Lock()
			for id, entry := range m.entries {
				if now.After(entry.expiresAt) {
					delete(m.entries, id)
				}
			}
			m.mu.Unlock()
		}
	}
}
