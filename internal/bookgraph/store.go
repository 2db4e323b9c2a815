// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package bookgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Sentinel errors returned by Store.
var (
	// ErrNoGraph indicates no graph is available from any source.
	ErrNoGraph = errors.New("no graph available")

	// ErrSnapshotNotFound indicates the snapshot store holds no snapshot.
	// This is a recoverable condition; Get falls through to a rebuild.
	ErrSnapshotNotFound = errors.New("graph snapshot not found")
)

// Interaction is one reader-book interaction record from the corpus.
type Interaction struct {
	UserID string  `json:"user_id"`
	BookID string  `json:"book_id"`
	Rating float64 `json:"rating"`
	IsRead bool    `json:"is_read"`
}

// BookMeta is corpus metadata for one book.
type BookMeta struct {
	BookID        string   `json:"book_id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	AverageRating float64  `json:"average_rating"`
	Genres        []string `json:"genres,omitempty"`
	SimilarBooks  []string `json:"similar_books,omitempty"`
}

// Source provides the raw corpus the graph is built from.
// Implemented by the corpus package; kept as an interface here so the graph
// layer has no dependency on how the corpus is stored.
type Source interface {
	// Interactions returns all reader-book interaction records.
	Interactions(ctx context.Context) ([]Interaction, error)

	// Metadata returns book metadata keyed by book ID.
	Metadata(ctx context.Context) (map[string]BookMeta, error)
}

// SnapshotStore persists a graph with all node and edge attributes.
type SnapshotStore interface {
	// Save replaces any previous snapshot with the given graph.
	Save(g *Graph) error

	// Load returns the persisted graph, or ErrSnapshotNotFound.
	Load() (*Graph, error)
}

// StoreConfig holds graph construction parameters.
type StoreConfig struct {
	// RatingThreshold is the minimum rating for an interaction to count as
	// positive. Default: 3.5.
	RatingThreshold float64 `json:"rating_threshold" koanf:"rating_threshold"`
}

// DefaultStoreConfig returns the default construction parameters.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{RatingThreshold: 3.5}
}

// Store owns the canonical global book graph for one session.
// Not safe for concurrent use; the pipeline assumes single-writer ownership.
type Store struct {
	cfg       StoreConfig
	source    Source
	snapshots SnapshotStore
	logger    zerolog.Logger
	graph     *Graph
}

// NewStore creates a graph store. Both source and snapshots may be nil;
// Get fails with ErrNoGraph only when neither can produce a graph.
func NewStore(cfg StoreConfig, source Source, snapshots SnapshotStore, logger zerolog.Logger) *Store {
	if cfg.RatingThreshold <= 0 {
		cfg.RatingThreshold = DefaultStoreConfig().RatingThreshold
	}
	return &Store{
		cfg:       cfg,
		source:    source,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "graphstore").Logger(),
	}
}

// Graph returns the current graph, or nil if none has been loaded or built.
func (s *Store) Graph() *Graph {
	return s.graph
}

// Get returns the current graph, loading the snapshot if one exists, else
// rebuilding from the corpus, else failing with ErrNoGraph.
func (s *Store) Get(ctx context.Context) (*Graph, error) {
	if s.graph != nil {
		return s.graph, nil
	}

	if s.snapshots != nil {
		g, err := s.snapshots.Load()
		switch {
		case err == nil:
			s.logger.Info().
				Int("nodes", g.NodeCount()).
				Int("edges", g.EdgeCount()).
				Msg("loaded graph snapshot")
			s.graph = g
			return g, nil
		case errors.Is(err, ErrSnapshotNotFound):
			s.logger.Debug().Msg("no snapshot present, rebuilding")
		default:
			// A corrupt or unreadable snapshot is recoverable the same way
			// a missing one is: rebuild from the corpus.
			s.logger.Warn().Err(err).Msg("snapshot load failed, rebuilding")
		}
	}

	if s.source != nil {
		return s.Build(ctx)
	}

	return nil, ErrNoGraph
}

// Build constructs the graph from the corpus source and makes it current.
func (s *Store) Build(ctx context.Context) (*Graph, error) {
	if s.source == nil {
		return nil, ErrNoGraph
	}

	interactions, err := s.source.Interactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	metadata, err := s.source.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	g := BuildGraph(interactions, metadata, s.cfg.RatingThreshold)
	s.logger.Info().
		Int("interactions", len(interactions)).
		Int("nodes", g.NodeCount()).
		Int("edges", g.EdgeCount()).
		Float64("rating_threshold", s.cfg.RatingThreshold).
		Msg("built graph from corpus")

	s.graph = g
	return g, nil
}

// Save persists the current graph to the snapshot store.
func (s *Store) Save() error {
	if s.graph == nil {
		return ErrNoGraph
	}
	if s.snapshots == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	if err := s.snapshots.Save(s.graph); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Info().
		Int("nodes", s.graph.NodeCount()).
		Int("edges", s.graph.EdgeCount()).
		Msg("saved graph snapshot")
	return nil
}

// BuildGraph builds a co-occurrence graph from interaction records.
//
// Interactions with rating >= ratingThreshold and is_read set are kept; every
// distinct book in the filtered set becomes a node, annotated from metadata
// when available. For every reader, every unordered pair of books in that
// reader's filtered history gets an edge; a repeated pair increments the
// weight by 1. Cost is O(sum k_u^2) over readers with k_u positive books
// each, which is acceptable for offline batch use.
func BuildGraph(interactions []Interaction, metadata map[string]BookMeta, ratingThreshold float64) *Graph {
	g := NewGraph()

	// Per-reader positive histories, preserving input order.
	userBooks := make(map[string][]string)
	var userOrder []string

	for _, in := range interactions {
		if !in.IsRead || in.Rating < ratingThreshold {
			continue
		}

		if !g.HasNode(in.BookID) {
			node := &Node{ID: in.BookID}
			if meta, ok := metadata[in.BookID]; ok {
				node.Title = meta.Title
				node.Authors = append([]string(nil), meta.Authors...)
				node.Rating = meta.AverageRating
				node.Genres = append([]string(nil), meta.Genres...)
			}
			_ = g.AddNode(node)
		}

		if _, seen := userBooks[in.UserID]; !seen {
			userOrder = append(userOrder, in.UserID)
		}
		userBooks[in.UserID] = append(userBooks[in.UserID], in.BookID)
	}

	for _, userID := range userOrder {
		books := userBooks[userID]
		for i := 0; i < len(books); i++ {
			for j := i + 1; j < len(books); j++ {
				a, b := books[i], books[j]
				if a == b {
					continue
				}
				if e := g.EdgeBetween(a, b); e != nil {
					e.Weight++
				} else {
					_, _ = g.AddEdge(a, b, 1)
				}
			}
		}
	}

	return g
}
