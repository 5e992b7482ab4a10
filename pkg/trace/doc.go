// Package trace runs Dijkstra's single-source shortest-path algorithm over a
// [graph.Graph] and records every observable event as an immutable [Step].
//
// # Overview
//
// [Generate] is a pure function: the same graph and start node always yield
// the same [Trace], step for step. The algorithm uses a linear scan over the
// unvisited nodes in node-insertion order instead of a priority queue, so
// ties are broken deterministically (the earliest node wins) and the cost is
// O(V²+E), which is fine for graphs of a few dozen nodes.
//
// # Step Sequence
//
// A trace always starts with [KindInitialize] and ends with exactly one
// [KindComplete]. Between them each iteration emits:
//
//   - [KindSelectNode] for the closest unvisited node
//   - [KindNoNeighbors] if that node has no outgoing edges
//   - [KindCheckNeighbor] followed by [KindUpdateDistance] or [KindNoUpdate]
//     for every outgoing edge whose target is still unvisited
//
// When the remaining unvisited nodes all have unreachable distance, a single
// [KindUnreachable] step is emitted before [KindComplete].
//
// # Distances
//
// [Distance] is a tagged value: either [Finite] or [Unreachable]. It never
// uses floating point infinity, so comparisons are exact. The zero value is
// unreachable.
//
// # Immutability
//
// Each step owns deep copies of the working maps taken at the moment it was
// emitted. Mutating a step returned by [Trace.At] does not affect other
// steps, and [Step.Clone] makes an independent copy for callers that want
// to annotate one.
//
// # Serialization
//
// [WriteTrace] and [ReadTrace] use JSON. Unreachable distances are encoded as
// null:
//
//	{"start":"A","nodes":["A","B"],"steps":[{"kind":"INITIALIZE", ...}]}
package trace
