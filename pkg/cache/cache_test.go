package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pathstep/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return miss")
	}
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = %v, %v", hit, err)
	}

	if err := c.Set(ctx, "trace:1", []byte("payload"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "trace:1")
	if err != nil || !hit || string(data) != "payload" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "trace:1", []byte("replaced"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if data, _, _ := c.Get(ctx, "trace:1"); string(data) != "replaced" {
		t.Errorf("Get after overwrite = %q", data)
	}

	if err := c.Delete(ctx, "trace:1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "trace:1"); err != nil {
		t.Errorf("Delete of missing key should succeed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "trace:1"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestFileCacheExpiryAndCorruption(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}

	if err := c.Set(ctx, "bad", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("bad"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry = %v, %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
	if GraphHash("A, B", "A-B:1") == GraphHash("A, B", "A-B:2") {
		t.Error("GraphHash should depend on edge text")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tk1 := k.TraceKey("hash123", "A")
	tk2 := k.TraceKey("hash123", "B")
	if tk1 == tk2 {
		t.Error("Different start nodes should produce different keys")
	}
	if !strings.HasPrefix(tk1, "trace:") {
		t.Errorf("TraceKey prefix: %s", tk1)
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Step: 3})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Step: 4})
	ak3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", Step: 3})
	if ak1 == ak2 || ak1 == ak3 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(ak1, "artifact:") {
		t.Errorf("ArtifactKey prefix: %s", ak1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "user:123:")
	key := scoped.TraceKey("h", "A")
	if key != "user:123:"+NewDefaultKeyer().TraceKey("h", "A") {
		t.Errorf("ScopedKeyer TraceKey unexpected: %s", key)
	}

	nilInner := NewScopedKeyer(nil, "prefix:")
	if !strings.HasPrefix(nilInner.ArtifactKey("h", ArtifactKeyOpts{}), "prefix:artifact:") {
		t.Error("ScopedKeyer with nil inner should use DefaultKeyer")
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets []string
}

func (h *countingHooks) OnCacheHit(_ context.Context, k string)     { h.hits = append(h.hits, k) }
func (h *countingHooks) OnCacheMiss(_ context.Context, k string)    { h.misses = append(h.misses, k) }
func (h *countingHooks) OnCacheSet(_ context.Context, k string, _ int) { h.sets = append(h.sets, k) }

func TestInstrument(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := Instrument(fc)
	if Instrument(c) != c {
		t.Error("Instrument should not double-wrap")
	}

	key := NewScopedKeyer(nil, "ns:").TraceKey("h", "A")
	c.Get(ctx, key)
	c.Set(ctx, key, []byte("x"), 0)
	c.Get(ctx, key)

	if len(hooks.misses) != 1 || len(hooks.sets) != 1 || len(hooks.hits) != 1 {
		t.Fatalf("hooks = %+v", hooks)
	}
	if hooks.hits[0] != "trace" {
		t.Errorf("key type = %q, want trace", hooks.hits[0])
	}
}
