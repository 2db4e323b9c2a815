// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package recommend

import (
	"context"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

const (
	// maxBookRating normalizes corpus ratings into [0, 1].
	maxBookRating = 5.0

	// connectivitySaturation is the seed-edge weight sum at which the
	// connectivity term reaches 1.
	connectivitySaturation = 10.0
)

// heuristicStrategy blends normalized average rating with how strongly a
// candidate is wired to the reader's owned books. Externally injected books
// get a configurable boost.
type heuristicStrategy struct {
	ratingWeight       float64
	connectivityWeight float64
	externalBoost      float64
}

func (s *heuristicStrategy) Name() string { return StrategyHeuristic }

func (s *heuristicStrategy) Rank(ctx context.Context, g *bookgraph.Graph, candidates []string, n int) ([]Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seeds := make(map[string]struct{})
	for _, id := range g.SeedIDs() {
		seeds[id] = struct{}{}
	}

	scored := make([]Recommendation, 0, len(candidates))
	for _, id := range candidates {
		node := g.Node(id)

		seedWeight := 0.0
		for _, v := range g.NeighborIDs(id) {
			if _, ok := seeds[v]; ok {
				seedWeight += g.EdgeBetween(id, v).Weight
			}
		}

		score := s.ratingWeight*clip01(node.Rating/maxBookRating) +
			s.connectivityWeight*clip01(seedWeight/connectivitySaturation)
		if node.External {
			score *= s.externalBoost
		}

		scored = append(scored, newRecommendation(g, id, score, StrategyHeuristic))
	}
	sortRecommendations(scored)
	return truncate(scored, n), nil
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
