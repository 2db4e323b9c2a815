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

// rankGraph builds s1, s2 (seeds) - c1 - c2 - c3 as a weighted chain with a
// shortcut from s1 to c1.
func rankGraph(t *testing.T) *bookgraph.Graph {
	t.Helper()
	g := bookgraph.NewGraph()
	nodes := []*bookgraph.Node{
		{ID: "s1", Title: "Owned One", ReadByUser: true, UserRating: 5},
		{ID: "s2", Title: "Owned Two", ReadByUser: true, UserRating: 4},
		{ID: "c1", Title: "Close Candidate", Rating: 4},
		{ID: "c2", Title: "Mid Candidate", Rating: 4},
		{ID: "c3", Title: "Far Candidate", Rating: 4},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%q): %v", n.ID, err)
		}
	}
	edges := []struct {
		u, v string
		w    float64
	}{
		{"s1", "s2", 3},
		{"s1", "c1", 4},
		{"s2", "c1", 2},
		{"c1", "c2", 2},
		{"c2", "c3", 1},
	}
	for _, e := range edges {
		if _, err := g.AddEdge(e.u, e.v, e.w); err != nil {
			t.Fatalf("AddEdge(%q, %q): %v", e.u, e.v, err)
		}
	}
	return g
}

func TestPersonalizedPageRank_SumsToOne(t *testing.T) {
	t.Parallel()

	g := rankGraph(t)
	ranks, err := personalizedPageRank(context.Background(), g, g.SeedIDs(), 0.85)
	if err != nil {
		t.Fatalf("personalizedPageRank: %v", err)
	}

	total := 0.0
	for _, r := range ranks {
		if r < 0 {
			t.Errorf("negative rank %f", r)
		}
		total += r
	}
	if math.Abs(total-1) > 1e-6 {
		t.Errorf("rank mass = %f, want 1", total)
	}
}

func TestPersonalizedPageRank_SeedBias(t *testing.T) {
	t.Parallel()

	g := rankGraph(t)
	ranks, err := personalizedPageRank(context.Background(), g, g.SeedIDs(), 0.85)
	if err != nil {
		t.Fatalf("personalizedPageRank: %v", err)
	}

	if ranks["c1"] <= ranks["c3"] {
		t.Errorf("rank(c1) = %f not above rank(c3) = %f despite seed adjacency",
			ranks["c1"], ranks["c3"])
	}
}

func TestPersonalizedPageRank_NoSeedsUniformTeleport(t *testing.T) {
	t.Parallel()

	g := bookgraph.NewGraph()
	for _, id := range []string{"a", "b"} {
		if err := g.AddNode(&bookgraph.Node{ID: id}); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if _, err := g.AddEdge("a", "b", 1); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	ranks, err := personalizedPageRank(context.Background(), g, nil, 0.85)
	if err != nil {
		t.Fatalf("personalizedPageRank: %v", err)
	}
	if math.Abs(ranks["a"]-ranks["b"]) > 1e-9 {
		t.Errorf("symmetric graph ranks differ: %f vs %f", ranks["a"], ranks["b"])
	}
}

func TestPersonalizedPageRank_DanglingNodes(t *testing.T) {
	t.Parallel()

	g := bookgraph.NewGraph()
	for _, n := range []*bookgraph.Node{
		{ID: "s", ReadByUser: true},
		{ID: "isolated"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}

	ranks, err := personalizedPageRank(context.Background(), g, g.SeedIDs(), 0.85)
	if err != nil {
		t.Fatalf("personalizedPageRank: %v", err)
	}

	total := ranks["s"] + ranks["isolated"]
	if math.Abs(total-1) > 1e-6 {
		t.Errorf("rank mass = %f, want 1 with dangling redistribution", total)
	}
}

func TestPageRankStrategy_Rank(t *testing.T) {
	t.Parallel()

	g := rankGraph(t)
	s := &pageRankStrategy{alpha: 0.85}

	recs, err := s.Rank(context.Background(), g, []string{"c1", "c2", "c3"}, 2)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if recs[0].ID != "c1" {
		t.Errorf("top recommendation = %q, want c1", recs[0].ID)
	}
	if recs[0].Score <= recs[1].Score {
		t.Error("recommendations not in descending score order")
	}
	if recs[0].Algorithm != StrategyPageRank {
		t.Errorf("algorithm = %q, want %q", recs[0].Algorithm, StrategyPageRank)
	}
	// c1 touches both owned books; the explanation names their titles.
	want := []string{"Owned One", "Owned Two"}
	if len(recs[0].ConnectedTo) != len(want) {
		t.Fatalf("ConnectedTo = %v, want %v", recs[0].ConnectedTo, want)
	}
	for i, title := range want {
		if recs[0].ConnectedTo[i] != title {
			t.Errorf("ConnectedTo[%d] = %q, want %q", i, recs[0].ConnectedTo[i], title)
		}
	}
}
