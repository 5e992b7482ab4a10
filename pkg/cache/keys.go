package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer builds cache keys.
type Keyer interface {
	// TraceKey identifies a generated trace by canonical graph hash and start node.
	TraceKey(graphHash, start string) string

	// ArtifactKey identifies one rendered step.
	ArtifactKey(traceHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Step      int     `json:"step"`
	Engine    string  `json:"engine,omitempty"`
	Distances bool    `json:"distances,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// TraceKey returns "trace:<sha256>".
func (DefaultKeyer) TraceKey(graphHash, start string) string {
	return hashKey("trace", graphHash, start)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(traceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", traceHash, opts)
}

// GraphHash hashes the canonical node and edge text of a graph.
func GraphHash(nodeText, edgeText string) string {
	return Hash(fmt.Appendf(nil, "%s\n%s", nodeText, edgeText))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "prefix:<sha256 of the JSON-encoded parts>".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
