package config

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"

	"github.com/scriptsmgr/scriptsmgr/internal/cache"
)

type cachingConf struct {
	RedisAddr    string                  `yaml:"redis_addr"`
	Username     string                  `yaml:"username"`
	Password     string                  `yaml:"password"`
	RedisDB      int                     `yaml:"redis_db"`
	Disabled     bool                    `yaml:"disabled"`
	MaxSize      int                     `yaml:"max_size"`
	MenuLifetime duration.DurationOption `yaml:"menu_lifetime"`
}

var defaultCachingConf = cachingConf{
	MaxSize:      1000,
	MenuLifetime: duration.DurationOption(time.Minute),
}

// Lifetime returns how long rendered menus are cached
func (c cachingConf) Lifetime() time.Duration {
	if d := c.MenuLifetime.Duration(); d > 0 {
		return d
	}
	return defaultCachingConf.MenuLifetime.Duration()
}

// LoadCache creates the configured menu cache: redis if an address is set,
// an in process cache otherwise, or nothing when disabled
func LoadCache(ctx context.Context, c cachingConf) (cache.Cache, func(), error) {
	if c.Disabled {
		log.Info("Menu cache disabled")
		return cache.Noop{}, func() {}, nil
	}
	if c.RedisAddr != "" {
		r, err := cache.NewRedis(
			ctx, cache.RedisConf{
				Addr:     c.RedisAddr,
				Username: c.Username,
				Password: c.Password,
				DB:       c.RedisDB,
			},
		)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Loaded Redis Cache")
		return r, func() { _ = r.Close() }, nil
	}
	size := c.MaxSize
	if size <= 0 {
		size = defaultCachingConf.MaxSize
	}
	m, err := cache.NewMemory(size)
	if err != nil {
		return nil, nil, err
	}
	return m, m.Close, nil
}
