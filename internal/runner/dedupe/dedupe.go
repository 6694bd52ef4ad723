// Package dedupe remembers processed signal ids so redelivered signals are ignored.
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store marks an id as seen. Seen returns true if the id was already marked.
type Store interface {
	Seen(ctx context.Context, id string) (bool, error)
}

// Memory is an in-process store with a fixed retention window.
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time // id -> expiry
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Memory{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

func (m *Memory) Seen(_ context.Context, id string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.seen[id]; ok && now.Before(exp) {
		return true, nil
	}
	m.seen[id] = now.Add(m.ttl)

	// opportunistic sweep keeps the map bounded by the ttl window
	if len(m.seen)%256 == 0 {
		for k, exp := range m.seen {
			if !now.Before(exp) {
				delete(m.seen, k)
			}
		}
	}
	return false, nil
}

// Redis shares the seen set across processes with SETNX + expiry.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if prefix == "" {
		prefix = "paper_trader:signal:"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) Seen(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+id, 1, r.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
