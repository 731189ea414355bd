// Package cache caches rendered responses, in process or in redis.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/TwiN/gocache/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Key prefixes
const (
	KeyMenu = "menu"
)

// Key builds a cache key from a prefix and further parts
func Key(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), ":")
}

// Cache stores byte values under string keys
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear removes all keys starting with prefix
	Clear(ctx context.Context, prefix string) error
}

type entry struct {
	Value    []byte    `msgpack:"v"`
	StoredAt time.Time `msgpack:"t"`
}

// Noop never stores anything
type Noop struct{}

// Get implements the Cache interface
func (Noop) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set implements the Cache interface
func (Noop) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// Clear implements the Cache interface
func (Noop) Clear(context.Context, string) error {
	return nil
}

// Memory is an in process Cache
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates a Memory cache holding up to maxSize entries
func NewMemory(maxSize int) (*Memory, error) {
	c := gocache.NewCache().WithMaxSize(maxSize).WithEvictionPolicy(gocache.LeastRecentlyUsed)
	if err := c.StartJanitor(); err != nil {
		return nil, errors.Wrap(err, "cache: could not start janitor")
	}
	return &Memory{c: c}, nil
}

// Get implements the Cache interface
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

// Set implements the Cache interface
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.SetWithTTL(key, value, ttl)
	return nil
}

// Clear implements the Cache interface
func (m *Memory) Clear(_ context.Context, prefix string) error {
	m.c.DeleteKeysByPattern(prefix + "*")
	return nil
}

// Close stops the janitor
func (m *Memory) Close() {
	m.c.StopJanitor()
}

// RedisConf configures a Redis cache
type RedisConf struct {
	Addr     string
	Username string
	Password string
	DB       int
	// Namespace is prepended to all keys
	Namespace string
}

// Redis is a Cache shared between instances through redis
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis connects to redis and verifies the connection
func NewRedis(ctx context.Context, conf RedisConf) (*Redis, error) {
	client := redis.NewClient(
		&redis.Options{
			Addr:     conf.Addr,
			Username: conf.Username,
			Password: conf.Password,
			DB:       conf.DB,
		},
	)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "cache: could not reach redis")
	}
	ns := conf.Namespace
	if ns == "" {
		ns = "scriptsmgr"
	}
	return &Redis{
		client:    client,
		namespace: ns,
	}, nil
}

func (r *Redis) key(k string) string {
	return r.namespace + ":" + k
}

// Get implements the Cache interface
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "cache: redis get failed")
	}
	var e entry
	if err = msgpack.Unmarshal(raw, &e); err != nil {
		return nil, false, errors.Wrap(err, "cache: could not decode entry")
	}
	return e.Value, true, nil
}

// Set implements the Cache interface
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	raw, err := msgpack.Marshal(
		entry{
			Value:    value,
			StoredAt: time.Now(),
		},
	)
	if err != nil {
		return errors.Wrap(err, "cache: could not encode entry")
	}
	return errors.Wrap(r.client.Set(ctx, r.key(key), raw, ttl).Err(), "cache: redis set failed")
}

// Clear implements the Cache interface
func (r *Redis) Clear(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, r.key(prefix)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "cache: redis scan failed")
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(r.client.Del(ctx, keys...).Err(), "cache: redis delete failed")
}

// Close closes the redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}
