// Package session persists exploration sessions: the graph text being
// explored, the chosen start node and the playback position.
//
// A session holds input text, not a trace. Traces are regenerated (or read
// from the cache) when a session is loaded, so stored sessions stay small
// and always agree with the current generator.
//
// # Backends
//
//   - [FileStore]: JSON files under ~/.config/pathstep/sessions, for the CLI
//   - [MemoryStore]: in-process map, for tests and single-instance servers
//   - [MongoStore]: MongoDB collection, for multi-instance servers
//
// # Usage
//
//	sess := session.New(nodeText, edgeText, "A", session.DefaultTTL)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//	sess, err := store.Get(ctx, id)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown or expired
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")
)

// DefaultTTL is the default session lifetime.
const DefaultTTL = 7 * 24 * time.Hour

// Session is one saved exploration.
type Session struct {
	ID        string    `json:"id" bson:"_id"`
	Nodes     string    `json:"nodes" bson:"nodes"`
	Edges     string    `json:"edges" bson:"edges"`
	Start     string    `json:"start" bson:"start"`
	Index     int       `json:"index" bson:"index"`
	DelayMs   int       `json:"delay_ms" bson:"delay_ms"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// New creates a session at index -1 with a random UUID.
func New(nodes, edges, start string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Session{
		ID:        uuid.NewString(),
		Nodes:     nodes,
		Edges:     edges,
		Start:     start,
		Index:     -1,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session has passed its expiry time.
// A zero ExpiresAt never expires.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Touch records a modification and extends expiry by ttl.
func (s *Session) Touch(ttl time.Duration) {
	s.UpdatedAt = time.Now().UTC()
	if ttl > 0 {
		s.ExpiresAt = s.UpdatedAt.Add(ttl)
	}
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. It returns ErrNotFound for unknown or
	// expired sessions.
	Get(ctx context.Context, id string) (*Session, error)

	// Set creates or replaces a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
