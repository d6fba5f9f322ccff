// Package graph implements the directed, digest-indexed transition
// multigraph: nodes are state digests, edges carry a
// transition digest and a probability, keyed by (source, target) so
// re-emitting the same pair updates the edge's weight in place rather
// than duplicating it.
package graph

import (
	"sync"

	"github.com/go-markov/chain/internal/digest"
)

// Edge is one directed transition: the transition label's digest and
// the probability mass flowing along it.
type Edge struct {
	Transition  digest.Digest
	Probability float64
}

// Graph is a directed multigraph over state digests, stored as an
// adjacency list (source -> target -> edge) for O(1) amortized upsert
// instead of a linear scan over an edge list.
//
// Graph is safe for concurrent use, but is only mutated during the
// serial post-parallel phase of a step; callers should not mutate
// concurrently with reads that expect a consistent snapshot.
type Graph struct {
	mu    sync.RWMutex
	nodes map[digest.Digest]struct{}
	edges map[digest.Digest]map[digest.Digest]Edge
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[digest.Digest]struct{}),
		edges: make(map[digest.Digest]map[digest.Digest]Edge),
	}
}

// AddNode registers a node by digest. Idempotent.
func (g *Graph) AddNode(d digest.Digest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[d] = struct{}{}
}

// HasNode reports whether d has been registered.
func (g *Graph) HasNode(d digest.Digest) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[d]
	return ok
}

// UpsertEdge adds the edge (source, target) with the given payload, or
// overwrites its payload in place if the pair already has an edge. Both
// endpoints are added as nodes if not already present.
func (g *Graph) UpsertEdge(source, target digest.Digest, edge Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[source] = struct{}{}
	g.nodes[target] = struct{}{}
	row, ok := g.edges[source]
	if !ok {
		row = make(map[digest.Digest]Edge)
		g.edges[source] = row
	}
	row[target] = edge
}

// NodeCount returns the number of known nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the total number of edges across all sources.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var n int
	for _, row := range g.edges {
		n += len(row)
	}
	return n
}

// Outgoing returns a copy of the edges leaving source, keyed by target
// digest.
func (g *Graph) Outgoing(source digest.Digest) map[digest.Digest]Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	row, ok := g.edges[source]
	if !ok {
		return nil
	}
	out := make(map[digest.Digest]Edge, len(row))
	for t, e := range row {
		out[t] = e
	}
	return out
}

// TriEdge is a flattened (source, target, edge) view used by
// enumeration and the value-graph materialization in the engine
// package (Engine.StateTransitionGraph).
type TriEdge struct {
	Source, Target digest.Digest
	Edge            Edge
}

// AllEdges returns every edge in the graph, in unspecified order.
func (g *Graph) AllEdges() []TriEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]TriEdge, 0, g.edgeCountLocked())
	for src, row := range g.edges {
		for tgt, e := range row {
			out = append(out, TriEdge{Source: src, Target: tgt, Edge: e})
		}
	}
	return out
}

// AllNodes returns every known node digest, in unspecified order.
func (g *Graph) AllNodes() []digest.Digest {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]digest.Digest, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	return out
}

func (g *Graph) edgeCountLocked() int {
	var n int
	for _, row := range g.edges {
		n += len(row)
	}
	return n
}
