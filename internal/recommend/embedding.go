// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

// embeddingStrategy learns node vectors from weighted random walks and
// scores candidates by mean cosine similarity to the reader's owned books.
//
// Trained vectors are cached per graph; the cache is invalidated when the
// engine swaps graphs. Training is deterministic for a fixed seed.
type embeddingStrategy struct {
	cfg EmbeddingConfig

	mu         sync.RWMutex
	vectors    map[string][]float64
	trainedFor *bookgraph.Graph
}

func newEmbeddingStrategy(cfg EmbeddingConfig) *embeddingStrategy {
	return &embeddingStrategy{cfg: cfg}
}

func (s *embeddingStrategy) Name() string { return StrategyEmbedding }

// Cached reports whether trained vectors exist for the given graph.
func (s *embeddingStrategy) Cached(g *bookgraph.Graph) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trainedFor == g && s.vectors != nil
}

// Invalidate drops cached vectors.
func (s *embeddingStrategy) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.trainedFor = nil
}

func (s *embeddingStrategy) Rank(ctx context.Context, g *bookgraph.Graph, candidates []string, n int) ([]Recommendation, error) {
	if !s.Cached(g) {
		if !s.cfg.TrainOnDemand {
			return nil, ErrEmbeddingsUnavailable
		}
		if err := s.Train(ctx, g); err != nil {
			return nil, fmt.Errorf("training embeddings: %w", err)
		}
	}
	return s.rankCached(ctx, g, candidates, n)
}

// RankCached ranks without ever training. ok is false when no vectors are
// cached for this graph.
func (s *embeddingStrategy) RankCached(ctx context.Context, g *bookgraph.Graph, candidates []string, n int) (recs []Recommendation, ok bool, err error) {
	if !s.Cached(g) {
		return nil, false, nil
	}
	recs, err = s.rankCached(ctx, g, candidates, n)
	return recs, err == nil, err
}

func (s *embeddingStrategy) rankCached(ctx context.Context, g *bookgraph.Graph, candidates []string, n int) ([]Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var seedVecs [][]float64
	for _, id := range g.SeedIDs() {
		if v, ok := s.vectors[id]; ok {
			seedVecs = append(seedVecs, v)
		}
	}
	if len(seedVecs) == 0 {
		return nil, nil
	}

	scored := make([]Recommendation, 0, len(candidates))
	for _, id := range candidates {
		vec, ok := s.vectors[id]
		if !ok {
			continue
		}
		total := 0.0
		for _, sv := range seedVecs {
			total += cosine(vec, sv)
		}
		scored = append(scored, newRecommendation(g, id, total/float64(len(seedVecs)), StrategyEmbedding))
	}
	sortRecommendations(scored)
	return truncate(scored, n), nil
}

// Train generates weighted random walks over the graph and fits skip-gram
// vectors with negative sampling. The result replaces any cached vectors.
func (s *embeddingStrategy) Train(ctx context.Context, g *bookgraph.Graph) error {
	nodes := g.NodeIDs()
	if len(nodes) == 0 {
		return fmt.Errorf("cannot train on an empty graph")
	}

	rng := rand.New(rand.NewSource(s.cfg.Seed))
	walks := s.generateWalks(g, nodes, rng)

	index := make(map[string]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}

	dim := s.cfg.Dimensions
	in := make([][]float64, len(nodes))
	out := make([][]float64, len(nodes))
	for i := range in {
		in[i] = make([]float64, dim)
		out[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			in[i][d] = (rng.Float64() - 0.5) / float64(dim)
		}
	}

	lr := s.cfg.LearningRate
	for epoch := 0; epoch < s.cfg.Epochs; epoch++ {
		for _, walk := range walks {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i, center := range walk {
				ci := index[center]
				lo := i - s.cfg.WindowSize
				if lo < 0 {
					lo = 0
				}
				hi := i + s.cfg.WindowSize
				if hi >= len(walk) {
					hi = len(walk) - 1
				}
				for j := lo; j <= hi; j++ {
					if j == i {
						continue
					}
					s.trainPair(in, out, ci, index[walk[j]], lr, len(nodes), rng)
				}
			}
		}
	}

	vectors := make(map[string][]float64, len(nodes))
	for i, id := range nodes {
		vectors[id] = in[i]
	}

	s.mu.Lock()
	s.vectors = vectors
	s.trainedFor = g
	s.mu.Unlock()
	return nil
}

// trainPair applies one positive update and NegativeSamples negative ones.
// Draws hitting the context or the center itself are discarded.
func (s *embeddingStrategy) trainPair(in, out [][]float64, center, contextIdx int, lr float64, vocab int, rng *rand.Rand) {
	sgdStep(in[center], out[contextIdx], 1, lr)
	for k := 0; k < s.cfg.NegativeSamples; k++ {
		neg := rng.Intn(vocab)
		if neg == contextIdx || neg == center {
			continue
		}
		sgdStep(in[center], out[neg], 0, lr)
	}
}

// sgdStep nudges the center and context vectors toward (label=1) or away
// from (label=0) each other.
func sgdStep(center, context []float64, label, lr float64) {
	dot := 0.0
	for d := range center {
		dot += center[d] * context[d]
	}
	grad := lr * (label - sigmoid(dot))
	for d := range center {
		c := center[d]
		center[d] += grad * context[d]
		context[d] += grad * c
	}
}

// generateWalks produces NumWalks weighted random walks from every node.
// Walks stop early at isolated nodes.
func (s *embeddingStrategy) generateWalks(g *bookgraph.Graph, nodes []string, rng *rand.Rand) [][]string {
	walks := make([][]string, 0, len(nodes)*s.cfg.NumWalks)
	for w := 0; w < s.cfg.NumWalks; w++ {
		for _, start := range nodes {
			walk := make([]string, 0, s.cfg.WalkLength)
			walk = append(walk, start)
			current := start
			for len(walk) < s.cfg.WalkLength {
				next, ok := weightedNeighbor(g, current, rng)
				if !ok {
					break
				}
				walk = append(walk, next)
				current = next
			}
			if len(walk) > 1 {
				walks = append(walks, walk)
			}
		}
	}
	return walks
}

// weightedNeighbor draws a neighbor of id with probability proportional to
// edge weight.
func weightedNeighbor(g *bookgraph.Graph, id string, rng *rand.Rand) (string, bool) {
	neighbors := g.NeighborIDs(id)
	if len(neighbors) == 0 {
		return "", false
	}
	total := 0.0
	for _, v := range neighbors {
		total += g.EdgeBetween(id, v).Weight
	}
	target := rng.Float64() * total
	acc := 0.0
	for _, v := range neighbors {
		acc += g.EdgeBetween(id, v).Weight
		if target < acc {
			return v, true
		}
	}
	return neighbors[len(neighbors)-1], true
}

func sigmoid(x float64) float64 {
	if x > 20 {
		return 1
	}
	if x < -20 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

// cosine returns the cosine similarity of two equal-length vectors, or 0
// when either has zero norm.
func cosine(a, b []float64) float64 {
	dot, na, nb := 0.0, 0.0, 0.0
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
