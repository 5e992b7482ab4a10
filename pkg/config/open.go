package config

import (
	"context"

	"github.com/matzehuels/pathstep/pkg/cache"
	"github.com/matzehuels/pathstep/pkg/session"
)

// OpenCache constructs the configured trace cache, instrumented with the
// registered cache hooks.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: c.Cache.RedisURL, Prefix: "pathstep:"})
		if err != nil {
			return nil, err
		}
		return cache.Instrument(rc), nil
	default:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := cache.DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return cache.Instrument(fc), nil
	}
}

// Keyer returns the cache keyer, scoped by Cache.Namespace when it is set.
func (c *Config) Keyer() cache.Keyer {
	if c.Cache.Namespace == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Cache.Namespace+":")
}

// OpenSessions constructs the configured session store.
func (c *Config) OpenSessions(ctx context.Context) (session.Store, error) {
	switch c.Session.Backend {
	case SessionMemory:
		return session.NewMemoryStore(), nil
	case SessionMongo:
		ms, err := session.NewMongoStore(ctx, session.MongoConfig{
			URI:      c.Session.MongoURI,
			Database: c.Session.Database,
		})
		if err != nil {
			return nil, err
		}
		return ms, nil
	default:
		fs, err := session.NewFileStore(c.Session.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
}
