// Package config loads pathstep settings from a TOML file, an optional .env
// file and the environment, in that order of increasing precedence.
//
// The default file lives at $XDG_CONFIG_HOME/pathstep/config.toml
// (~/.config/pathstep/config.toml when XDG_CONFIG_HOME is unset):
//
//	[playback]
//	delay_ms = 500
//
//	[cache]
//	backend = "file"      # file | redis | none
//	ttl = "168h"
//	namespace = ""        # optional key prefix
//
//	[session]
//	backend = "file"      # file | memory | mongo
//
//	[server]
//	addr = ":8080"
//
// Environment overrides: PATHSTEP_DELAY_MS, PATHSTEP_CACHE, REDIS_URL,
// MONGO_URI and PATHSTEP_ADDR.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/pathstep/pkg/cache"
	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/playback"
	"github.com/matzehuels/pathstep/pkg/session"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Session backends.
const (
	SessionFile   = "file"
	SessionMemory = "memory"
	SessionMongo  = "mongo"
)

// DefaultAddr is the HTTP listen address.
const DefaultAddr = ":8080"

// Environment variable names.
const (
	EnvDelay    = "PATHSTEP_DELAY_MS"
	EnvCache    = "PATHSTEP_CACHE"
	EnvRedisURL = "REDIS_URL"
	EnvMongoURI = "MONGO_URI"
	EnvAddr     = "PATHSTEP_ADDR"
)

// Config is the complete pathstep configuration.
type Config struct {
	Playback PlaybackConfig `toml:"playback"`
	Cache    CacheConfig    `toml:"cache"`
	Session  SessionConfig  `toml:"session"`
	Server   ServerConfig   `toml:"server"`
}

// PlaybackConfig configures the step player.
type PlaybackConfig struct {
	DelayMs int `toml:"delay_ms"`
}

// CacheConfig selects and configures the trace cache.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
	// Namespace prefixes every cache key so deployments sharing one Redis
	// instance do not collide.
	Namespace string `toml:"namespace"`
}

// SessionConfig selects and configures the session store.
type SessionConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	MongoURI string   `toml:"mongo_uri"`
	Database string   `toml:"database"`
	TTL      Duration `toml:"ttl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{DelayMs: playback.DefaultDelay},
		Cache:    CacheConfig{Backend: CacheFile, TTL: Duration{cache.DefaultTTL}},
		Session: SessionConfig{
			Backend:  SessionFile,
			Database: "pathstep",
			TTL:      Duration{session.DefaultTTL},
		},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "pathstep", "config.toml"), nil
}

// Load reads the configuration. An empty path selects [DefaultPath], which
// may be absent; an explicit path must exist. A .env file in the working
// directory is loaded when present without overriding variables that are
// already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		switch {
		case os.IsNotExist(err) && !explicit:
		case os.IsNotExist(err):
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text on top of the defaults without consulting the
// environment. It is used by tests and by callers embedding configuration.
func Parse(text string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides values from environment variables looked up by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvDelay); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return errors.Invalid(errors.ErrCodeInvalidConfig, EnvDelay, "%s must be an integer, got %q", EnvDelay, v)
		}
		c.Playback.DelayMs = ms
	}
	if v := getenv(EnvCache); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		c.Session.MongoURI = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Validate rejects unknown backends and incomplete backend settings, and
// clamps the playback delay into the supported range.
func (c *Config) Validate() error {
	c.Playback.DelayMs = playback.ClampDelay(c.Playback.DelayMs)

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.Invalid(errors.ErrCodeInvalidConfig, "cache.redis_url",
				"cache backend %q requires redis_url or %s", CacheRedis, EnvRedisURL)
		}
	default:
		return errors.Invalid(errors.ErrCodeInvalidConfig, "cache.backend",
			"invalid cache backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.Invalid(errors.ErrCodeInvalidConfig, "cache.ttl", "cache ttl must not be negative")
	}

	switch c.Session.Backend {
	case SessionFile, SessionMemory:
	case SessionMongo:
		if c.Session.MongoURI == "" {
			return errors.Invalid(errors.ErrCodeInvalidConfig, "session.mongo_uri",
				"session backend %q requires mongo_uri or %s", SessionMongo, EnvMongoURI)
		}
	default:
		return errors.Invalid(errors.ErrCodeInvalidConfig, "session.backend",
			"invalid session backend: %q (must be one of: file, memory, mongo)", c.Session.Backend)
	}
	if c.Session.TTL.Duration < 0 {
		return errors.Invalid(errors.ErrCodeInvalidConfig, "session.ttl", "session ttl must not be negative")
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	return nil
}
