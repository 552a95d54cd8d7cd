// Package cache backs the platform's two cache contracts (spec section 5):
// the product-alias cache (load-once-per-transform-run, explicit
// invalidation) and the quality-metrics cache (materialize-on-demand, then
// cache). It prefers Redis when configured and falls back to an in-process
// patrickmn/go-cache store otherwise, so both contracts hold in single
// process / test mode too.
package cache

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	gocache "github.com/patrickmn/go-cache"
)

// Store is the narrow cache capability every component depends on.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
	FlushPrefix(ctx context.Context, prefix string)
}

// New builds a Store: Redis-backed if redisURL is non-empty, parses, and
// answers a Ping; otherwise an in-process store.
func New(redisURL string) Store {
	if redisURL == "" {
		return newMemStore()
	}
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return newMemStore()
	}
	client := goredis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return newMemStore()
	}
	return &redisStore{client: client}
}

type redisStore struct {
	client *goredis.Client
}

func (r *redisStore) Get(ctx context.Context, key string) (string, bool) {
	v, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (r *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) {
	r.client.Set(ctx, key, value, ttl)
}

func (r *redisStore) Delete(ctx context.Context, key string) {
	r.client.Del(ctx, key)
}

func (r *redisStore) FlushPrefix(ctx context.Context, prefix string) {
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		r.client.Del(ctx, iter.Val())
	}
}

type memStore struct {
	c *gocache.Cache
}

func newMemStore() *memStore {
	return &memStore{c: gocache.New(30*time.Minute, 5*time.Minute)}
}

func (m *memStore) Get(_ context.Context, key string) (string, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (m *memStore) Set(_ context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(key, value, ttl)
}

func (m *memStore) Delete(_ context.Context, key string) {
	m.c.Delete(key)
}

func (m *memStore) FlushPrefix(_ context.Context, prefix string) {
	for k := range m.c.Items() {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			m.c.Delete(k)
		}
	}
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Set(ctx, key, string(b), ttl)
	return nil
}

// GetJSON fetches key and unmarshals it into v. Returns false if absent.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, err
	}
	return true, nil
}
