// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package recommend

import (
	"context"
	"math"
	"testing"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

func newHeuristic() *heuristicStrategy {
	return &heuristicStrategy{
		ratingWeight:       0.3,
		connectivityWeight: 0.7,
		externalBoost:      1.1,
	}
}

// A well-connected candidate with a decent rating must outrank a barely
// connected candidate with a perfect rating: connectivity dominates.
func TestHeuristicStrategy_ConnectivityDominates(t *testing.T) {
	t.Parallel()

	g := bookgraph.NewGraph()
	nodes := []*bookgraph.Node{
		{ID: "s1", ReadByUser: true},
		{ID: "s2", ReadByUser: true},
		{ID: "well-connected", Rating: 4.0},
		{ID: "barely-connected", Rating: 5.0},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%q): %v", n.ID, err)
		}
	}
	for _, e := range []struct {
		u, v string
		w    float64
	}{
		{"s1", "well-connected", 4},
		{"s2", "well-connected", 4},
		{"s1", "barely-connected", 1},
	} {
		if _, err := g.AddEdge(e.u, e.v, e.w); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}

	recs, err := newHeuristic().Rank(context.Background(), g,
		[]string{"barely-connected", "well-connected"}, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if recs[0].ID != "well-connected" {
		t.Errorf("top = %q, want well-connected", recs[0].ID)
	}

	// 0.3 * (4/5) + 0.7 * (8/10) for the winner.
	if got, want := recs[0].Score, 0.3*0.8+0.7*0.8; math.Abs(got-want) > 1e-9 {
		t.Errorf("score = %f, want %f", got, want)
	}
}

func TestHeuristicStrategy_ExternalBoost(t *testing.T) {
	t.Parallel()

	g := bookgraph.NewGraph()
	nodes := []*bookgraph.Node{
		{ID: "s1", ReadByUser: true},
		{ID: "corpus", Rating: 4},
		{ID: "injected", Rating: 4, External: true},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%q): %v", n.ID, err)
		}
	}
	for _, v := range []string{"corpus", "injected"} {
		if _, err := g.AddEdge("s1", v, 2); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}

	recs, err := newHeuristic().Rank(context.Background(), g,
		[]string{"corpus", "injected"}, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	scores := map[string]float64{}
	for _, r := range recs {
		scores[r.ID] = r.Score
	}
	if got, want := scores["injected"], scores["corpus"]*1.1; math.Abs(got-want) > 1e-9 {
		t.Errorf("boosted score = %f, want %f", got, want)
	}
	if !recs[0].IsExternal {
		t.Error("external book not ranked first or not flagged")
	}
}

func TestHeuristicStrategy_ScoreTermsClipped(t *testing.T) {
	t.Parallel()

	g := bookgraph.NewGraph()
	// Both terms saturate: rating far above the scale, seed weight far
	// above the saturation point.
	nodes := []*bookgraph.Node{
		{ID: "s1", ReadByUser: true},
		{ID: "saturated", Rating: 50},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%q): %v", n.ID, err)
		}
	}
	if _, err := g.AddEdge("s1", "saturated", 100); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	recs, err := newHeuristic().Rank(context.Background(), g, []string{"saturated"}, 1)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got := recs[0].Score; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("score = %f, want 1.0 with both terms clipped", got)
	}
}

func TestClip01(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.4, 0.4},
		{1, 1},
		{3, 1},
	}
	for _, tt := range tests {
		if got := clip01(tt.in); got != tt.want {
			t.Errorf("clip01(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
