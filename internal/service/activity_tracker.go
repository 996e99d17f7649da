package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActivityTracker registra la ultima actividad de cada identidad. Una
// identidad cuya marca vencio se considera desconectada por inactividad,
// sin importar que su token de sesion siga vigente.
type ActivityTracker interface {
	Touch(ctx context.Context, identity string) error
	Active(ctx context.Context, identity string) (bool, error)
}

type memoryActivityTracker struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
}

// NewMemoryActivityTracker crea un tracker en memoria.
func NewMemoryActivityTracker(ttl time.Duration) ActivityTracker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &memoryActivityTracker{
		ttl:   ttl,
		items: make(map[string]time.Time),
	}
}

func (t *memoryActivityTracker) Touch(_ context.Context, identity string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if strings.TrimSpace(identity) == "" {
		return nil
	}
	t.items[identity] = time.Now().UTC().Add(t.ttl)
	return nil
}

func (t *memoryActivityTracker) Active(_ context.Context, identity string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	exp, ok := t.items[identity]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(exp) {
		delete(t.items, identity)
		return false, nil
	}
	return true, nil
}

type redisActivityTracker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisActivityTracker crea un tracker respaldado en Redis con TTL
// deslizante: cada Touch reinicia la ventana de inactividad.
func NewRedisActivityTracker(client *redis.Client, ttl time.Duration) ActivityTracker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisActivityTracker{
		client: client,
		ttl:    ttl,
		prefix: "visitor:activity:",
	}
}

func (t *redisActivityTracker) Touch(ctx context.Context, identity string) error {
	if strings.TrimSpace(identity) == "" {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return t.client.Set(opCtx, t.prefix+identity, time.Now().UTC().Unix(), t.ttl).Err()
}

func (t *redisActivityTracker) Active(ctx context.Context, identity string) (bool, error) {
	if strings.TrimSpace(identity) == "" {
		return false, nil
	}
	opCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := t.client.Exists(opCtx, t.prefix+identity).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
