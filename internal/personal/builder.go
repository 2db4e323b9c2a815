// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

// Package personal extracts the reader-centered neighborhood from the full
// book graph and narrows it with chainable filters. Extraction is a bounded
// breadth-first expansion from the reader's owned nodes; the result is a
// deep-copied induced subgraph, so filters never touch the base graph.
package personal

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

// ErrNoSeeds is returned when the graph carries no reader-owned nodes.
var ErrNoSeeds = errors.New("no reader-owned nodes in graph")

// Config bounds neighborhood extraction.
type Config struct {
	// Hops is the expansion depth from the seed set.
	Hops int `koanf:"hops" json:"hops" validate:"gte=0,lte=6"`

	// MinEdgeWeight is the traversal weight floor: expansion only crosses
	// edges at or above it, and lighter edges between kept nodes are removed
	// after induction.
	MinEdgeWeight float64 `koanf:"min_edge_weight" json:"min_edge_weight" validate:"gte=0"`

	// MaxNodes is a hard cap on the neighborhood size, seeds included.
	MaxNodes int `koanf:"max_nodes" json:"max_nodes" validate:"gte=1"`
}

// DefaultConfig returns the standard extraction bounds.
func DefaultConfig() Config {
	return Config{
		Hops:          2,
		MinEdgeWeight: 1,
		MaxNodes:      1000,
	}
}

// Builder extracts personal neighborhoods.
type Builder struct {
	cfg    Config
	logger zerolog.Logger
}

// NewBuilder returns a Builder with the given bounds. Zero-valued fields
// fall back to the defaults.
func NewBuilder(cfg Config, logger zerolog.Logger) *Builder {
	def := DefaultConfig()
	if cfg.Hops <= 0 {
		cfg.Hops = def.Hops
	}
	if cfg.MinEdgeWeight <= 0 {
		cfg.MinEdgeWeight = def.MinEdgeWeight
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = def.MaxNodes
	}
	return &Builder{
		cfg:    cfg,
		logger: logger.With().Str("component", "personal").Logger(),
	}
}

// Extract expands the seed set hop by hop and returns the induced
// neighborhood. Expansion only crosses edges at or above MinEdgeWeight and
// stops early when MaxNodes is reached; after induction, remaining edges
// below MinEdgeWeight are removed. Seeds are always part of the result even
// when the cap leaves no room for anything else.
func (b *Builder) Extract(g *bookgraph.Graph) (*Neighborhood, error) {
	seeds := g.SeedIDs()
	if len(seeds) == 0 {
		return nil, fmt.Errorf("extracting neighborhood: %w", ErrNoSeeds)
	}

	selected := make(map[string]struct{}, len(seeds))
	for _, id := range seeds {
		selected[id] = struct{}{}
	}

	frontier := append([]string(nil), seeds...)
	capped := false
	for hop := 0; hop < b.cfg.Hops && len(frontier) > 0 && !capped; hop++ {
		var next []string
		for _, u := range frontier {
			if len(selected) >= b.cfg.MaxNodes {
				capped = true
				break
			}
			for _, v := range g.NeighborIDs(u) {
				if _, ok := selected[v]; ok {
					continue
				}
				if g.EdgeBetween(u, v).Weight < b.cfg.MinEdgeWeight {
					continue
				}
				if len(selected) >= b.cfg.MaxNodes {
					capped = true
					break
				}
				selected[v] = struct{}{}
				next = append(next, v)
			}
			if capped {
				break
			}
		}
		sort.Strings(next)
		frontier = next
	}

	sub := g.Subgraph(selected)

	pruned := 0
	for _, u := range sub.NodeIDs() {
		for _, v := range sub.NeighborIDs(u) {
			if u >= v {
				continue
			}
			if sub.EdgeBetween(u, v).Weight < b.cfg.MinEdgeWeight {
				sub.RemoveEdge(u, v)
				pruned++
			}
		}
	}

	b.logger.Info().
		Int("seeds", len(seeds)).
		Int("nodes", sub.NodeCount()).
		Int("edges", sub.EdgeCount()).
		Int("edges_pruned", pruned).
		Bool("capped", capped).
		Msg("personal neighborhood extracted")

	return &Neighborhood{
		graph:  sub,
		seeds:  seeds,
		logger: b.logger,
	}, nil
}

// Neighborhood is an extracted personal subgraph. Filters narrow it in place
// and return the receiver for chaining.
type Neighborhood struct {
	graph  *bookgraph.Graph
	seeds  []string
	logger zerolog.Logger
}

// Graph returns the neighborhood's current subgraph.
func (n *Neighborhood) Graph() *bookgraph.Graph {
	return n.graph
}

// Seeds returns the reader-owned node IDs the neighborhood was grown from.
func (n *Neighborhood) Seeds() []string {
	return append([]string(nil), n.seeds...)
}

// FilterByGenre keeps nodes sharing at least minMatches genres with the
// given set, compared case-insensitively. Seeds are kept unconditionally.
func (n *Neighborhood) FilterByGenre(genres []string, minMatches int) *Neighborhood {
	if len(genres) == 0 {
		return n
	}
	if minMatches <= 0 {
		minMatches = 1
	}

	wanted := make(map[string]struct{}, len(genres))
	for _, genre := range genres {
		wanted[strings.ToLower(strings.TrimSpace(genre))] = struct{}{}
	}

	keep := make(map[string]struct{})
	for _, id := range n.graph.NodeIDs() {
		node := n.graph.Node(id)
		if node.ReadByUser {
			keep[id] = struct{}{}
			continue
		}
		matches := 0
		for _, genre := range node.Genres {
			if _, ok := wanted[strings.ToLower(strings.TrimSpace(genre))]; ok {
				matches++
			}
		}
		if matches >= minMatches {
			keep[id] = struct{}{}
		}
	}

	before := n.graph.NodeCount()
	n.graph = n.graph.Subgraph(keep)
	n.logger.Debug().
		Int("before", before).
		Int("after", n.graph.NodeCount()).
		Strs("genres", genres).
		Msg("genre filter applied")
	return n
}

// FilterByRating keeps nodes whose corpus-average rating is at least
// minRating. Nodes without a rating count as 0. Seeds are kept
// unconditionally.
func (n *Neighborhood) FilterByRating(minRating float64) *Neighborhood {
	if minRating <= 0 {
		return n
	}

	keep := make(map[string]struct{})
	for _, id := range n.graph.NodeIDs() {
		node := n.graph.Node(id)
		if node.ReadByUser || node.Rating >= minRating {
			keep[id] = struct{}{}
		}
	}

	before := n.graph.NodeCount()
	n.graph = n.graph.Subgraph(keep)
	n.logger.Debug().
		Int("before", before).
		Int("after", n.graph.NodeCount()).
		Float64("min_rating", minRating).
		Msg("rating filter applied")
	return n
}
