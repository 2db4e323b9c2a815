// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

// Engine dispatches ranking requests to registered strategies over the
// current personal subgraph.
type Engine struct {
	cfg    Config
	logger zerolog.Logger

	mu    sync.RWMutex
	graph *bookgraph.Graph

	strategies map[string]Strategy
	embedding  *embeddingStrategy
}

// NewEngine builds an engine with the four standard strategies registered.
// Zero-valued config fields fall back to defaults.
func NewEngine(cfg Config, logger zerolog.Logger) *Engine {
	cfg = cfg.withDefaults()

	pagerank := &pageRankStrategy{alpha: cfg.Alpha}
	heuristic := &heuristicStrategy{
		ratingWeight:       cfg.RatingWeight,
		connectivityWeight: cfg.ConnectivityWeight,
		externalBoost:      cfg.ExternalBoost,
	}
	embedding := newEmbeddingStrategy(cfg.Embedding)
	ensemble := &ensembleStrategy{
		pagerank:  pagerank,
		heuristic: heuristic,
		embedding: embedding,
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		embedding: embedding,
		strategies: map[string]Strategy{
			StrategyPageRank:  pagerank,
			StrategyHeuristic: heuristic,
			StrategyEmbedding: embedding,
			StrategyEnsemble:  ensemble,
		},
	}
	return e
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TopN <= 0 {
		c.TopN = def.TopN
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		c.Alpha = def.Alpha
	}
	if c.RatingWeight <= 0 && c.ConnectivityWeight <= 0 {
		c.RatingWeight = def.RatingWeight
		c.ConnectivityWeight = def.ConnectivityWeight
	}
	if c.ExternalBoost < 1 {
		c.ExternalBoost = def.ExternalBoost
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding = def.Embedding
	}
	if c.Embedding.Epochs <= 0 {
		c.Embedding.Epochs = def.Embedding.Epochs
	}
	if c.Embedding.LearningRate <= 0 {
		c.Embedding.LearningRate = def.Embedding.LearningRate
	}
	if c.Embedding.NegativeSamples <= 0 {
		c.Embedding.NegativeSamples = def.Embedding.NegativeSamples
	}
	return c
}

// SetGraph swaps the personal subgraph and invalidates cached embeddings.
func (e *Engine) SetGraph(g *bookgraph.Graph) {
	e.mu.Lock()
	e.graph = g
	e.mu.Unlock()
	e.embedding.Invalidate()
}

// Graph returns the current personal subgraph, or nil.
func (e *Engine) Graph() *bookgraph.Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph
}

// PrecomputeEmbeddings trains embedding vectors for the current graph so
// later embedding and ensemble requests hit the cache.
func (e *Engine) PrecomputeEmbeddings(ctx context.Context) error {
	g := e.Graph()
	if g == nil {
		return ErrNoGraph
	}
	if e.embedding.Cached(g) {
		return nil
	}
	e.logger.Info().
		Int("nodes", g.NodeCount()).
		Int("dimensions", e.cfg.Embedding.Dimensions).
		Msg("training embeddings")
	return e.embedding.Train(ctx, g)
}

// Recommend ranks candidates with the named strategy and returns at most n
// results. n <= 0 uses the configured default. When the candidate policy
// yields nothing, or the strategy returns nothing, the reader's own
// best-rated books are re-listed as a fallback.
func (e *Engine) Recommend(ctx context.Context, strategy string, n int) ([]Recommendation, error) {
	if n <= 0 {
		n = e.cfg.TopN
	}

	g := e.Graph()
	if g == nil {
		return nil, ErrNoGraph
	}

	strat, ok := e.strategies[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	requestID := uuid.NewString()
	log := e.logger.With().Str("request_id", requestID).Str("strategy", strategy).Logger()

	candidates := selectCandidates(g)
	if len(candidates) == 0 {
		log.Info().Msg("no candidates, falling back to owned books")
		return fallbackFromSeeds(g, strategy, n), nil
	}

	recs, err := strat.Rank(ctx, g, candidates, n)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		log.Info().Int("candidates", len(candidates)).Msg("strategy returned nothing, falling back")
		return fallbackFromSeeds(g, strategy, n), nil
	}

	log.Info().
		Int("candidates", len(candidates)).
		Int("returned", len(recs)).
		Msg("recommendations ranked")
	return recs, nil
}

// selectCandidates applies the shared candidate policy: externally injected
// unowned books first; if none, any unowned book. Owned books are never
// candidates. IDs come back sorted.
func selectCandidates(g *bookgraph.Graph) []string {
	var external, unowned []string
	for _, id := range g.NodeIDs() {
		node := g.Node(id)
		if node.ReadByUser {
			continue
		}
		if node.External {
			external = append(external, id)
		}
		unowned = append(unowned, id)
	}
	if len(external) > 0 {
		return external
	}
	return unowned
}

// fallbackFromSeeds re-lists the reader's own books, best-rated first, at a
// fixed score. The first entry carries the exhaustion note.
func fallbackFromSeeds(g *bookgraph.Graph, algorithm string, n int) []Recommendation {
	seeds := g.SeedIDs()
	sort.SliceStable(seeds, func(i, j int) bool {
		ri := g.Node(seeds[i]).UserRating
		rj := g.Node(seeds[j]).UserRating
		if ri != rj {
			return ri > rj
		}
		return seeds[i] < seeds[j]
	})

	recs := make([]Recommendation, 0, n)
	for _, id := range seeds {
		if len(recs) == n {
			break
		}
		rec := newRecommendation(g, id, 1.0, algorithm)
		if len(recs) == 0 {
			rec.Notes = append(rec.Notes, ExhaustedNote)
		}
		recs = append(recs, rec)
	}
	return recs
}

// maxConnectedTitles caps the ConnectedTo explanation per recommendation.
const maxConnectedTitles = 3

// newRecommendation assembles a Recommendation from graph state. ConnectedTo
// carries up to three titles of the candidate's reader-owned neighbors, in
// lexicographic ID order. Untitled neighbors fall back to their ID.
func newRecommendation(g *bookgraph.Graph, id string, score float64, algorithm string) Recommendation {
	node := g.Node(id)

	var connected []string
	for _, v := range g.NeighborIDs(id) {
		if len(connected) == maxConnectedTitles {
			break
		}
		owned := g.Node(v)
		if !owned.ReadByUser {
			continue
		}
		title := owned.Title
		if title == "" {
			title = v
		}
		connected = append(connected, title)
	}

	return Recommendation{
		ID:          id,
		Title:       node.Title,
		Author:      strings.Join(node.Authors, ", "),
		Rating:      node.Rating,
		Genres:      append([]string(nil), node.Genres...),
		Score:       score,
		Algorithm:   algorithm,
		IsExternal:  node.External,
		ConnectedTo: connected,
	}
}

// sortRecommendations orders by score descending, then ID for stable output.
func sortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ID < recs[j].ID
	})
}

func truncate(recs []Recommendation, n int) []Recommendation {
	if n >= 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}
