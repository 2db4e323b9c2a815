// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package recommend

import (
	"context"
	"fmt"
	"math"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

const (
	// pageRankMaxIter bounds power iteration.
	pageRankMaxIter = 100

	// pageRankTol is the per-node convergence tolerance; iteration stops
	// when the total L1 change drops below N * pageRankTol.
	pageRankTol = 1e-6
)

// pageRankStrategy ranks candidates by personalized PageRank with the
// teleport vector concentrated on the reader's owned books.
type pageRankStrategy struct {
	alpha float64
}

func (s *pageRankStrategy) Name() string { return StrategyPageRank }

func (s *pageRankStrategy) Rank(ctx context.Context, g *bookgraph.Graph, candidates []string, n int) ([]Recommendation, error) {
	ranks, err := personalizedPageRank(ctx, g, g.SeedIDs(), s.alpha)
	if err != nil {
		return nil, fmt.Errorf("pagerank: %w", err)
	}

	scored := make([]Recommendation, 0, len(candidates))
	for _, id := range candidates {
		scored = append(scored, newRecommendation(g, id, ranks[id], StrategyPageRank))
	}
	sortRecommendations(scored)
	return truncate(scored, n), nil
}

// personalizedPageRank runs weighted power iteration. The teleport vector is
// uniform over seeds, or over all nodes when no seeds exist. Mass on nodes
// without outgoing edges is redistributed through the teleport vector.
func personalizedPageRank(ctx context.Context, g *bookgraph.Graph, seeds []string, alpha float64) (map[string]float64, error) {
	nodes := g.NodeIDs()
	if len(nodes) == 0 {
		return map[string]float64{}, nil
	}

	teleport := make(map[string]float64, len(nodes))
	if len(seeds) > 0 {
		share := 1.0 / float64(len(seeds))
		for _, id := range seeds {
			teleport[id] = share
		}
	} else {
		share := 1.0 / float64(len(nodes))
		for _, id := range nodes {
			teleport[id] = share
		}
	}

	// Total outgoing weight per node; zero marks a dangling node.
	outWeight := make(map[string]float64, len(nodes))
	for _, u := range nodes {
		total := 0.0
		for _, v := range g.NeighborIDs(u) {
			total += g.EdgeBetween(u, v).Weight
		}
		outWeight[u] = total
	}

	rank := make(map[string]float64, len(nodes))
	for id, p := range teleport {
		rank[id] = p
	}

	tol := float64(len(nodes)) * pageRankTol
	for iter := 0; iter < pageRankMaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dangling := 0.0
		for _, u := range nodes {
			if outWeight[u] == 0 {
				dangling += rank[u]
			}
		}

		next := make(map[string]float64, len(nodes))
		for _, v := range nodes {
			inbound := 0.0
			for _, u := range g.NeighborIDs(v) {
				if outWeight[u] > 0 {
					inbound += rank[u] * g.EdgeBetween(u, v).Weight / outWeight[u]
				}
			}
			next[v] = alpha*(inbound+dangling*teleport[v]) + (1-alpha)*teleport[v]
		}

		delta := 0.0
		for _, id := range nodes {
			delta += math.Abs(next[id] - rank[id])
		}
		rank = next
		if delta < tol {
			break
		}
	}
	return rank, nil
}
