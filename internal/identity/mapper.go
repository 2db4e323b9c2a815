// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package identity

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

// CollectionItem is one entry of the reader's personal collection.
//
// BookID is an optional caller-supplied identifier; it is the only handle
// usable in degenerate direct-mapping mode and the node ID used when a
// resolved item is absent from the graph.
type CollectionItem struct {
	BookID string   `json:"book_id,omitempty"`
	Title  string   `json:"title" validate:"required"`
	Author string   `json:"author,omitempty"`
	Rating float64  `json:"rating" validate:"gte=0,lte=5"`
	Genres []string `json:"genres,omitempty"`
}

// Match is one resolution candidate for a collection item.
type Match struct {
	NodeID string
	Score  float64
}

// MappedItem pairs a collection item with its resolution result. NodeID is
// empty when the item could not be resolved.
type MappedItem struct {
	Item   CollectionItem
	NodeID string
	Score  float64
}

// Resolved reports whether the item was matched to a node.
func (m MappedItem) Resolved() bool {
	return m.NodeID != ""
}

// Config holds the resolution and merge parameters.
type Config struct {
	// Threshold is the minimum 0-100 similarity for approximate matches.
	Threshold float64 `koanf:"threshold" json:"threshold" validate:"gte=0,lte=100"`

	// TitleWeight and AuthorWeight blend the title and author similarity
	// scores when the item supplies an author.
	TitleWeight  float64 `koanf:"title_weight" json:"title_weight" validate:"gte=0,lte=1"`
	AuthorWeight float64 `koanf:"author_weight" json:"author_weight" validate:"gte=0,lte=1"`

	// CoReadIncrement is added to an existing edge's weight when the reader
	// turns out to own both endpoints.
	CoReadIncrement float64 `koanf:"co_read_increment" json:"co_read_increment" validate:"gte=0"`
}

// DefaultConfig returns the standard resolution parameters.
func DefaultConfig() Config {
	return Config{
		Threshold:       85,
		TitleWeight:     0.7,
		AuthorWeight:    0.3,
		CoReadIncrement: 2,
	}
}

// Mapper resolves collection items against a built graph. The identity index
// is computed once at construction; rebuild the mapper after the graph's node
// set changes.
type Mapper struct {
	cfg    Config
	logger zerolog.Logger
	graph  *bookgraph.Graph

	// index maps a normalized title to the node IDs carrying it; buckets
	// groups the indexed titles by their three-character prefix.
	index   map[string][]string
	buckets map[string][]string
	direct  bool
}

// NewMapper builds the identity index from the graph's node titles.
func NewMapper(g *bookgraph.Graph, cfg Config, logger zerolog.Logger) *Mapper {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.TitleWeight <= 0 && cfg.AuthorWeight <= 0 {
		cfg.TitleWeight = DefaultConfig().TitleWeight
		cfg.AuthorWeight = DefaultConfig().AuthorWeight
	}
	if cfg.CoReadIncrement <= 0 {
		cfg.CoReadIncrement = DefaultConfig().CoReadIncrement
	}

	m := &Mapper{
		cfg:     cfg,
		logger:  logger.With().Str("component", "identity").Logger(),
		graph:   g,
		index:   make(map[string][]string),
		buckets: make(map[string][]string),
	}

	for _, id := range g.NodeIDs() {
		norm := normalizeTitle(g.Node(id).Title)
		if norm == "" {
			continue
		}
		if _, seen := m.index[norm]; !seen {
			prefix := titlePrefix(norm)
			m.buckets[prefix] = append(m.buckets[prefix], norm)
		}
		m.index[norm] = append(m.index[norm], id)
	}

	m.direct = len(m.index) == 0
	if m.direct {
		m.logger.Warn().
			Int("nodes", g.NodeCount()).
			Msg("no resolvable titles in graph, using direct id mapping")
	} else {
		m.logger.Debug().
			Int("titles", len(m.index)).
			Int("buckets", len(m.buckets)).
			Msg("identity index built")
	}
	return m
}

// DirectMode reports whether the mapper is in degenerate direct-mapping
// mode, where items resolve to their own supplied IDs without any title
// matching.
func (m *Mapper) DirectMode() bool {
	return m.direct
}

// MatchExact returns all nodes whose normalized title equals the item's
// normalized title, each at score 100.
func (m *Mapper) MatchExact(item CollectionItem) []Match {
	if m.direct {
		return m.directMatch(item)
	}
	ids := m.index[normalizeTitle(item.Title)]
	matches := make([]Match, 0, len(ids))
	for _, id := range ids {
		matches = append(matches, Match{NodeID: id, Score: 100})
	}
	return matches
}

// MatchFuzzy resolves an item with exact lookup first, then approximate
// matching restricted to the item's title-prefix bucket. A threshold <= 0
// falls back to the configured one. Results are ordered best-first; ties
// break on node ID.
func (m *Mapper) MatchFuzzy(item CollectionItem, threshold float64) []Match {
	if m.direct {
		return m.directMatch(item)
	}
	if threshold <= 0 {
		threshold = m.cfg.Threshold
	}

	norm := normalizeTitle(item.Title)
	if norm == "" {
		return nil
	}
	if exact := m.MatchExact(item); len(exact) > 0 {
		return exact
	}

	itemAuthor := strings.ToLower(strings.TrimSpace(item.Author))

	var matches []Match
	for _, candidate := range m.buckets[titlePrefix(norm)] {
		titleScore := Ratio(norm, candidate)
		if titleScore < threshold {
			continue
		}
		for _, id := range m.index[candidate] {
			score := titleScore
			if itemAuthor != "" {
				nodeAuthor := strings.ToLower(strings.Join(m.graph.Node(id).Authors, ", "))
				authorScore := PartialRatio(itemAuthor, nodeAuthor)
				score = m.cfg.TitleWeight*titleScore + m.cfg.AuthorWeight*authorScore
				if score < threshold {
					continue
				}
			}
			matches = append(matches, Match{NodeID: id, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].NodeID < matches[j].NodeID
	})
	return matches
}

// directMatch resolves an item to its own supplied ID in degenerate mode.
func (m *Mapper) directMatch(item CollectionItem) []Match {
	if item.BookID == "" {
		return nil
	}
	return []Match{{NodeID: item.BookID, Score: 100}}
}

// MapCollection resolves every item and returns the mapped items together
// with the fraction of items that resolved. Item order is preserved.
func (m *Mapper) MapCollection(items []CollectionItem, threshold float64) ([]MappedItem, float64) {
	mapped := make([]MappedItem, 0, len(items))
	resolved := 0
	for _, item := range items {
		mi := MappedItem{Item: item}
		if ms := m.MatchFuzzy(item, threshold); len(ms) > 0 {
			mi.NodeID = ms[0].NodeID
			mi.Score = ms[0].Score
			resolved++
		}
		mapped = append(mapped, mi)
	}

	fraction := 0.0
	if len(items) > 0 {
		fraction = float64(resolved) / float64(len(items))
	}
	m.logger.Info().
		Int("items", len(items)).
		Int("resolved", resolved).
		Float64("fraction", fraction).
		Bool("direct_mode", m.direct).
		Msg("collection mapped")
	return mapped, fraction
}

// MergeIntoGraph applies resolved items to the graph as the reader's
// ownership overlay and reinforces edges between co-owned books. Resolved
// items whose node is absent (direct-mapping IDs) are inserted as external
// nodes. Returns the number of distinct owned nodes.
func (m *Mapper) MergeIntoGraph(g *bookgraph.Graph, mapped []MappedItem) int {
	var owned []string
	seen := make(map[string]struct{})

	for _, mi := range mapped {
		if !mi.Resolved() {
			continue
		}
		n := g.Node(mi.NodeID)
		if n == nil {
			n = &bookgraph.Node{
				ID:       mi.NodeID,
				Title:    mi.Item.Title,
				Rating:   mi.Item.Rating,
				Genres:   append([]string(nil), mi.Item.Genres...),
				External: true,
			}
			if mi.Item.Author != "" {
				n.Authors = []string{mi.Item.Author}
			}
			if err := g.AddNode(n); err != nil {
				m.logger.Warn().Err(err).Str("node", mi.NodeID).Msg("skipping unmergeable item")
				continue
			}
		}
		n.ReadByUser = true
		n.UserRating = mi.Item.Rating

		if _, dup := seen[mi.NodeID]; !dup {
			seen[mi.NodeID] = struct{}{}
			owned = append(owned, mi.NodeID)
		}
	}

	sort.Strings(owned)
	reinforced, created := 0, 0
	for i := 0; i < len(owned); i++ {
		for j := i + 1; j < len(owned); j++ {
			u, v := owned[i], owned[j]
			if e := g.EdgeBetween(u, v); e != nil {
				e.Weight += m.cfg.CoReadIncrement
				e.CoReadByUser = true
				reinforced++
				continue
			}
			e, err := g.AddEdge(u, v, 1)
			if err != nil {
				m.logger.Warn().Err(err).Str("u", u).Str("v", v).Msg("skipping co-read edge")
				continue
			}
			e.CoReadByUser = true
			created++
		}
	}

	m.logger.Info().
		Int("owned", len(owned)).
		Int("edges_reinforced", reinforced).
		Int("edges_created", created).
		Msg("collection merged into graph")
	return len(owned)
}
