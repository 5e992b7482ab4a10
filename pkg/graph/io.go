package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// document is the JSON wire shape of a Graph.
type document struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// MarshalJSON encodes g as {"nodes": [...], "edges": [...]} preserving order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	edges := g.Edges()
	return json.Marshal(document{Nodes: g.nodes, Edges: edges})
}

// UnmarshalJSON decodes and validates a graph document.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	parsed, err := FromEdges(doc.Nodes, doc.Edges)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}

// WriteGraph writes g as indented JSON to w.
func WriteGraph(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteGraphFile writes g to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// ReadGraph decodes a JSON graph from r. The result is validated with the
// same rules as [Parse].
func ReadGraph(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &g, nil
}

// ReadGraphFile reads a JSON graph file.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}
