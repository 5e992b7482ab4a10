package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/pathstep/pkg/cache"
	"github.com/matzehuels/pathstep/pkg/errors"
	"github.com/matzehuels/pathstep/pkg/playback"
	"github.com/matzehuels/pathstep/pkg/session"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDelay, EnvCache, EnvRedisURL, EnvMongoURI, EnvAddr} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Playback.DelayMs != playback.DefaultDelay {
		t.Errorf("DelayMs = %d, want %d", cfg.Playback.DelayMs, playback.DefaultDelay)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Session.Backend != SessionFile {
		t.Errorf("backends = %s/%s, want file/file", cfg.Cache.Backend, cfg.Session.Backend)
	}
	if cfg.Cache.TTL.Duration != cache.DefaultTTL {
		t.Errorf("cache TTL = %v", cfg.Cache.TTL)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		code  errors.Code
		check func(t *testing.T, c *Config)
	}{
		{
			name: "full",
			text: `
[playback]
delay_ms = 750

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/0"
ttl = "1h30m"

[session]
backend = "memory"

[server]
addr = "127.0.0.1:9000"
`,
			check: func(t *testing.T, c *Config) {
				if c.Playback.DelayMs != 750 {
					t.Errorf("DelayMs = %d", c.Playback.DelayMs)
				}
				if c.Cache.Backend != CacheRedis || c.Cache.RedisURL == "" {
					t.Errorf("cache = %+v", c.Cache)
				}
				if c.Cache.TTL.Duration != 90*time.Minute {
					t.Errorf("TTL = %v", c.Cache.TTL)
				}
				if c.Session.Backend != SessionMemory {
					t.Errorf("session backend = %q", c.Session.Backend)
				}
				if c.Server.Addr != "127.0.0.1:9000" {
					t.Errorf("Addr = %q", c.Server.Addr)
				}
			},
		},
		{
			name: "delay clamped high",
			text: "[playback]\ndelay_ms = 99999\n",
			check: func(t *testing.T, c *Config) {
				if c.Playback.DelayMs != playback.MaxDelay {
					t.Errorf("DelayMs = %d, want %d", c.Playback.DelayMs, playback.MaxDelay)
				}
			},
		},
		{
			name: "delay clamped low",
			text: "[playback]\ndelay_ms = 1\n",
			check: func(t *testing.T, c *Config) {
				if c.Playback.DelayMs != playback.MinDelay {
					t.Errorf("DelayMs = %d, want %d", c.Playback.DelayMs, playback.MinDelay)
				}
			},
		},
		{name: "unknown cache backend", text: "[cache]\nbackend = \"memcached\"\n", code: errors.ErrCodeInvalidConfig},
		{name: "redis without url", text: "[cache]\nbackend = \"redis\"\n", code: errors.ErrCodeInvalidConfig},
		{name: "unknown session backend", text: "[session]\nbackend = \"sqlite\"\n", code: errors.ErrCodeInvalidConfig},
		{name: "mongo without uri", text: "[session]\nbackend = \"mongo\"\n", code: errors.ErrCodeInvalidConfig},
		{name: "bad ttl", text: "[cache]\nttl = \"soon\"\n", code: errors.ErrCodeInvalidConfig},
		{name: "negative ttl", text: "[cache]\nttl = \"-1h\"\n", code: errors.ErrCodeInvalidConfig},
		{name: "bad toml", text: "[cache\n", code: errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(tt.text)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Fatalf("error = %v, want code %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvDelay:    "250",
		EnvCache:    CacheNone,
		EnvRedisURL: "redis://cache:6379",
		EnvMongoURI: "mongodb://db:27017",
		EnvAddr:     ":9999",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Playback.DelayMs != 250 || cfg.Cache.Backend != CacheNone ||
		cfg.Cache.RedisURL != env[EnvRedisURL] || cfg.Session.MongoURI != env[EnvMongoURI] ||
		cfg.Server.Addr != ":9999" {
		t.Errorf("env not applied: %+v", cfg)
	}

	bad := Default()
	err := bad.ApplyEnv(func(k string) string {
		if k == EnvDelay {
			return "fast"
		}
		return ""
	})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[server]\naddr = \":7000\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Server.Addr != ":7000" {
			t.Errorf("Addr = %q", cfg.Server.Addr)
		}
	})

	t.Run("explicit missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Errorf("error = %v, want %s", err, errors.ErrCodeFileNotFound)
		}
	})

	t.Run("default path missing", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Server.Addr != DefaultAddr {
			t.Errorf("Addr = %q", cfg.Server.Addr)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		if err := os.MkdirAll(filepath.Join(dir, "pathstep"), 0o755); err != nil {
			t.Fatal(err)
		}
		text := "[playback]\ndelay_ms = 800\n"
		if err := os.WriteFile(filepath.Join(dir, "pathstep", "config.toml"), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvDelay, "300")
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Playback.DelayMs != 300 {
			t.Errorf("DelayMs = %d, want 300", cfg.Playback.DelayMs)
		}
	})
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/xdg", "pathstep", "config.toml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	cfg.Cache.Backend = CacheNone
	c, err := cfg.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("OpenCache(none) = %T, want cache.NullCache", c)
	}

	cfg.Cache.Backend = CacheFile
	cfg.Cache.Dir = t.TempDir()
	c, err = cfg.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "trace:abc", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if data, hit, err := c.Get(ctx, "trace:abc"); err != nil || !hit || string(data) != "x" {
		t.Errorf("file cache round trip: %q %v %v", data, hit, err)
	}

	cfg.Session.Backend = SessionMemory
	s, err := cfg.OpenSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*session.MemoryStore); !ok {
		t.Errorf("OpenSessions(memory) = %T", s)
	}

	cfg.Session.Backend = SessionFile
	cfg.Session.Dir = t.TempDir()
	s, err = cfg.OpenSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*session.FileStore); !ok {
		t.Errorf("OpenSessions(file) = %T", s)
	}
}

func TestKeyer(t *testing.T) {
	cfg := Default()
	plain := cfg.Keyer().TraceKey("h", "A")

	cfg.Cache.Namespace = "staging"
	scoped := cfg.Keyer().TraceKey("h", "A")
	if scoped != "staging:"+plain {
		t.Errorf("scoped key = %q, want %q", scoped, "staging:"+plain)
	}
}
