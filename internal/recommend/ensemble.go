// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package recommend

import (
	"context"
	"fmt"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

// ensembleStrategy unions the other strategies. Each contributor ranks an
// oversampled pool of 2n; results merge in a fixed order (pagerank,
// heuristic, embedding) with first-wins deduplication, so each entry keeps
// the name of the strategy that surfaced it.
//
// The embedding contributor joins only when its vectors are already cached;
// the ensemble never pays for training.
type ensembleStrategy struct {
	pagerank  *pageRankStrategy
	heuristic *heuristicStrategy
	embedding *embeddingStrategy
}

func (s *ensembleStrategy) Name() string { return StrategyEnsemble }

func (s *ensembleStrategy) Rank(ctx context.Context, g *bookgraph.Graph, candidates []string, n int) ([]Recommendation, error) {
	pool := 2 * n

	merged := make([]Recommendation, 0, 2*pool)
	seen := make(map[string]struct{})
	add := func(recs []Recommendation) {
		for _, rec := range recs {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			merged = append(merged, rec)
		}
	}

	prRecs, err := s.pagerank.Rank(ctx, g, candidates, pool)
	if err != nil {
		return nil, fmt.Errorf("ensemble: %w", err)
	}
	add(prRecs)

	hRecs, err := s.heuristic.Rank(ctx, g, candidates, pool)
	if err != nil {
		return nil, fmt.Errorf("ensemble: %w", err)
	}
	add(hRecs)

	if embRecs, ok, err := s.embedding.RankCached(ctx, g, candidates, pool); err != nil {
		return nil, fmt.Errorf("ensemble: %w", err)
	} else if ok {
		add(embRecs)
	}

	return truncate(merged, n), nil
}
