// Package graph parses textual node and edge lists into a validated,
// canonical weighted directed graph.
//
// # Input Grammar
//
// Nodes are a comma-separated list of identifiers. Whitespace around each
// token is trimmed, empty tokens are dropped and identifiers must be unique:
//
//	A, B, C, D
//
// Edges are a comma-separated list of from-to:weight tokens with strictly
// positive integer weights:
//
//	A-B:5, B-C:3, A-C:7
//
// Use [Parse] to turn both texts into a [Graph]:
//
//	g, err := graph.Parse("A, B, C", "A-B:5, B-C:3")
//	if err != nil {
//	    fmt.Println(errors.UserMessage(err))
//	}
//
// # Ordering
//
// Node order is insertion order and is semantically meaningful: it is the
// tie-break order used by the trace generator when two nodes share the
// smallest tentative distance. Neighbor order is the order in which each
// (from, to) pair was first specified. Re-specifying a pair overwrites its
// weight in place (last write wins).
//
// # Errors
//
// All validation failures are returned as *errors.Error values with one of
// the codes EMPTY_NODE_LIST, DUPLICATE_NODE, MALFORMED_EDGE,
// UNKNOWN_NODE_REFERENCE or INVALID_WEIGHT. The offending token or edge is
// available through errors.GetSubject. Parsing never logs and never panics.
//
// # Serialization
//
// [Graph.Text] re-serializes a graph into the input grammar so that
// Parse(g.Text()) reproduces it exactly. Graphs also marshal to JSON:
//
//	{
//	  "nodes": ["A", "B"],
//	  "edges": [{"from": "A", "to": "B", "weight": 5}]
//	}
//
// # Concurrency
//
// A Graph is immutable after construction and safe for concurrent reads.
package graph
