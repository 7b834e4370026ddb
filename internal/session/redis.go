package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"time"
)

const defaultKeyPrefix = "gatehouse:session:"

// Redis is the remote store over a redis-compatible cache. Transport
// failures surface as errors; only redis.Nil maps to "absent".
type Redis struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

var _ Store = (*Redis)(nil)

// RedisOption configures the remote store.
type RedisOption func(*Redis)

// WithRedisTTL sets the session lifetime. Non-positive values resolve
// to DefaultTTL.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithKeyPrefix overrides the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.keyPrefix = prefix
		}
	}
}

// NewRedis wraps an existing client. The store owns the client from
// here on; Destroy closes it.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:    client,
		ttl:       DefaultTTL,
		keyPrefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(id string) string { return r.keyPrefix + id }

func (r *Redis) Create(ctx context.Context, id string, data Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", id, err)
	}
	if err := r.client.Set(ctx, r.key(id), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: store %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (Data, bool, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session: fetch %s: %w", id, err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return data, true, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

// Refresh slides the expiry. EXPIRE on a missing key is a no-op.
func (r *Redis) Refresh(ctx context.Context, id string) error {
	if err := r.client.Expire(ctx, r.key(id), r.ttl).Err(); err != nil {
		return fmt.Errorf("session: refresh %s: %w", id, err)
	}
	return nil
}

func (r *Redis) IsHealthy(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

func (r *Redis) Destroy() error {
	return r.client.Close()
}
