// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package recommend

import (
	"context"
	"errors"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

// Strategy names accepted by Engine.Recommend.
const (
	StrategyPageRank  = "pagerank"
	StrategyEmbedding = "embedding"
	StrategyHeuristic = "heuristic"
	StrategyEnsemble  = "ensemble"
)

var (
	// ErrNoGraph is returned when ranking is requested before a graph is set.
	ErrNoGraph = errors.New("no graph set on engine")

	// ErrUnknownStrategy is returned for strategy names with no registration.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrEmbeddingsUnavailable is returned when the embedding strategy is
	// asked to rank without cached vectors and on-demand training is off.
	ErrEmbeddingsUnavailable = errors.New("embeddings not cached and on-demand training disabled")
)

// ExhaustedNote is attached to the first fallback recommendation when the
// personal graph holds nothing left to recommend.
const ExhaustedNote = "EXHAUSTED: no unread candidates left, re-listing your own collection"

// Recommendation is one ranked book.
type Recommendation struct {
	// ID is the graph node ID of the recommended book.
	ID string `json:"id"`

	// Title and Author describe the book; Author is the joined author list.
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`

	// Rating is the corpus-wide average rating.
	Rating float64 `json:"rating,omitempty"`

	// Genres is the book's genre list.
	Genres []string `json:"genres,omitempty"`

	// Score is the strategy's ranking score. Scores are comparable within
	// one response, not across strategies.
	Score float64 `json:"score"`

	// Algorithm names the strategy that produced this entry.
	Algorithm string `json:"algorithm"`

	// IsExternal marks books injected by augmentation or direct mapping
	// rather than built from the interaction corpus.
	IsExternal bool `json:"is_external,omitempty"`

	// ConnectedTo lists up to three titles of reader-owned books adjacent
	// to this one, explaining why the entry surfaced.
	ConnectedTo []string `json:"connected_to,omitempty"`

	// Notes carries advisory messages, such as the exhaustion marker.
	Notes []string `json:"notes,omitempty"`
}

// Strategy ranks candidate nodes of a personal subgraph.
type Strategy interface {
	// Name returns the strategy identifier.
	Name() string

	// Rank scores the candidates against the graph's seed set and returns
	// at most n recommendations, best first.
	Rank(ctx context.Context, g *bookgraph.Graph, candidates []string, n int) ([]Recommendation, error)
}
