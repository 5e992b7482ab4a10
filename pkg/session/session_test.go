package session

import (
	"context"
	stderrors "errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pathstep/pkg/errors"
)

func TestNew(t *testing.T) {
	s := New("A, B", "A-B:1", "A", 0)
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", s.ID, err)
	}
	if s.Index != -1 {
		t.Errorf("Index = %d, want -1", s.Index)
	}
	if got := s.ExpiresAt.Sub(s.CreatedAt); got != DefaultTTL {
		t.Errorf("TTL = %v, want %v", got, DefaultTTL)
	}
	if s.IsExpired() {
		t.Error("new session should not be expired")
	}
	if New("A", "", "A", time.Hour).ID == s.ID {
		t.Error("IDs should be unique")
	}
}

func TestTouch(t *testing.T) {
	s := New("A", "", "A", time.Hour)
	s.ExpiresAt = time.Now().Add(-time.Minute)
	if !s.IsExpired() {
		t.Fatal("session should be expired")
	}
	s.Touch(time.Hour)
	if s.IsExpired() || !s.UpdatedAt.After(s.CreatedAt.Add(-time.Second)) {
		t.Error("Touch should extend expiry")
	}

	never := &Session{ID: "x"}
	if never.IsExpired() {
		t.Error("zero ExpiresAt should never expire")
	}
}

// storeContract exercises behaviour every backend shares.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, uuid.NewString()); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(ctx, "../etc/passwd"); !errors.Is(err, errors.ErrCodeInvalidSessionID) {
		t.Errorf("Get(traversal) error = %v, want INVALID_SESSION_ID", err)
	}

	s := New("A, B, C", "A-B:1, B-C:2", "A", time.Hour)
	s.Index = 4
	s.DelayMs = 750
	if err := store.Set(ctx, s); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Nodes != s.Nodes || got.Edges != s.Edges || got.Start != "A" || got.Index != 4 || got.DelayMs != 750 {
		t.Errorf("Get = %+v, want %+v", got, s)
	}

	got.Index = 0
	if again, _ := store.Get(ctx, s.ID); again.Index != 4 {
		t.Error("mutating a returned session changed the store")
	}

	s.Index = 5
	if err := store.Set(ctx, s); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Get(ctx, s.ID); got.Index != 5 {
		t.Errorf("Index after update = %d, want 5", got.Index)
	}

	expired := New("A", "", "A", time.Hour)
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.Set(ctx, expired); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, expired.ID); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Get(expired) error = %v, want ErrNotFound", err)
	}
	if err := store.Cleanup(ctx); err != nil {
		t.Errorf("Cleanup error: %v", err)
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, s.ID); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v", err)
	}

	bad := New("A", "", "A", time.Hour)
	bad.ID = "a/b"
	if err := store.Set(ctx, bad); err == nil {
		t.Error("Set should reject an invalid ID")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	storeContract(t, store)
	if store.Len() != 0 {
		t.Errorf("Len() = %d after cleanup, want 0", store.Len())
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	storeContract(t, store)

	entries, _ := os.ReadDir(store.Path())
	if len(entries) != 0 {
		t.Errorf("%d files left after cleanup", len(entries))
	}
}

func TestFileStoreLatest(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Latest(ctx); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Latest() on empty store = %v", err)
	}

	older := New("A", "", "A", time.Hour)
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := New("B", "", "B", time.Hour)
	for _, s := range []*Session{older, newer} {
		if err := store.Set(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(store.sessionPath("junk"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != newer.ID {
		t.Errorf("Latest() = %s, want %s", latest.ID, newer.ID)
	}

	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(store.sessionPath("junk")); !os.IsNotExist(err) {
		t.Error("Cleanup should remove unreadable files")
	}
}

func TestMongoFilters(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	live := liveFilter("abc", now)
	if live["_id"] != "abc" {
		t.Errorf("liveFilter _id = %v", live["_id"])
	}
	if _, ok := live["$or"]; !ok {
		t.Error("liveFilter should allow non-expiring sessions")
	}
	exp := expiredFilter(now)
	if _, ok := exp["expires_at"]; !ok {
		t.Error("expiredFilter should filter on expires_at")
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "pathstep_test", Collection: "s_" + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("NewMongoStore error: %v", err)
	}
	defer store.Close()
	storeContract(t, store)
}
