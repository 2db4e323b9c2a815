// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package bookgraph

import (
	"fmt"
	"sort"
)

// Node is a single book in the graph.
//
// Rating is the corpus-wide average rating; UserRating is the reader's own
// rating and is meaningful only when ReadByUser is set. External marks nodes
// injected by the overlay or augmentation steps rather than built from the
// interaction corpus.
type Node struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors,omitempty"`
	Rating     float64  `json:"rating"`
	Genres     []string `json:"genres,omitempty"`
	ReadByUser bool     `json:"read_by_user,omitempty"`
	UserRating float64  `json:"user_rating,omitempty"`
	External   bool     `json:"external,omitempty"`
	Notes      []string `json:"notes,omitempty"`
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Authors = append([]string(nil), n.Authors...)
	c.Genres = append([]string(nil), n.Genres...)
	c.Notes = append([]string(nil), n.Notes...)
	return &c
}

// Edge connects two books. Weight counts readers who positively interacted
// with both endpoints (possibly boosted by the personalization overlay) and
// is always >= 1. CoReadByUser is set when the overlay connected two
// reader-owned nodes.
type Edge struct {
	Weight       float64 `json:"weight"`
	CoReadByUser bool    `json:"co_read_by_user,omitempty"`
}

// Graph is an undirected weighted book graph.
//
// Nodes live in an arena keyed by ID; adjacency maps each node ID to its
// neighbors' edges. adj[u][v] and adj[v][u] point at the same Edge value.
type Graph struct {
	nodes map[string]*Node
	adj   map[string]map[string]*Edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		adj:   make(map[string]map[string]*Edge),
	}
}

// AddNode inserts or replaces a node. The node's ID must be non-empty.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("node must have an id")
	}
	g.nodes[n.ID] = n
	if g.adj[n.ID] == nil {
		g.adj[n.ID] = make(map[string]*Edge)
	}
	return nil
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeIDs returns all node IDs in lexicographic order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for u, neighbors := range g.adj {
		for v := range neighbors {
			if u < v {
				count++
			}
		}
	}
	return count
}

// AddEdge creates a new edge between u and v with the given weight.
// Self-loops, missing endpoints, weights below 1 and duplicate edges are
// rejected.
func (g *Graph) AddEdge(u, v string, weight float64) (*Edge, error) {
	if u == v {
		return nil, fmt.Errorf("self-loop on %q not allowed", u)
	}
	if !g.HasNode(u) {
		return nil, fmt.Errorf("edge endpoint %q does not exist", u)
	}
	if !g.HasNode(v) {
		return nil, fmt.Errorf("edge endpoint %q does not exist", v)
	}
	if weight < 1 {
		return nil, fmt.Errorf("edge weight must be >= 1, got %f", weight)
	}
	if g.adj[u][v] != nil {
		return nil, fmt.Errorf("edge %q-%q already exists", u, v)
	}

	e := &Edge{Weight: weight}
	g.adj[u][v] = e
	g.adj[v][u] = e
	return e, nil
}

// EdgeBetween returns the edge between u and v, or nil if none exists.
// The returned Edge is shared between both adjacency directions, so weight
// updates through it stay symmetric.
func (g *Graph) EdgeBetween(u, v string) *Edge {
	return g.adj[u][v]
}

// NeighborIDs returns the IDs of all neighbors of id in lexicographic order.
func (g *Graph) NeighborIDs(id string) []string {
	neighbors := g.adj[id]
	ids := make([]string, 0, len(neighbors))
	for nid := range neighbors {
		ids = append(ids, nid)
	}
	sort.Strings(ids)
	return ids
}

// RemoveEdge deletes the edge between u and v from both directions. Removing
// a nonexistent edge is a no-op.
func (g *Graph) RemoveEdge(u, v string) {
	delete(g.adj[u], v)
	delete(g.adj[v], u)
}

// SeedIDs returns the IDs of all reader-owned nodes in lexicographic order.
func (g *Graph) SeedIDs() []string {
	var ids []string
	for id, n := range g.nodes {
		if n.ReadByUser {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Subgraph returns a deep copy of the graph induced on the given node set.
// Unknown IDs are ignored. Edges are kept only when both endpoints are in
// the set.
func (g *Graph) Subgraph(ids map[string]struct{}) *Graph {
	sub := NewGraph()
	for id := range ids {
		if n := g.nodes[id]; n != nil {
			_ = sub.AddNode(n.Clone())
		}
	}
	for u := range ids {
		for v, e := range g.adj[u] {
			if u >= v {
				continue
			}
			if _, ok := ids[v]; !ok {
				continue
			}
			if sub.HasNode(u) && sub.HasNode(v) {
				ec := *e
				sub.adj[u][v] = &ec
				sub.adj[v][u] = &ec
			}
		}
	}
	return sub
}
