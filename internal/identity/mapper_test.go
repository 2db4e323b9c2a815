// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package identity

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

func testGraph(t *testing.T, nodes ...*bookgraph.Node) *bookgraph.Graph {
	t.Helper()
	g := bookgraph.NewGraph()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%q): %v", n.ID, err)
		}
	}
	return g
}

func TestMapper_MatchExact(t *testing.T) {
	t.Parallel()

	g := testGraph(t,
		&bookgraph.Node{ID: "b1", Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}},
		&bookgraph.Node{ID: "b2", Title: "Dune"},
	)
	m := NewMapper(g, DefaultConfig(), zerolog.Nop())

	// Exact lookup tolerates casing and surrounding whitespace.
	matches := m.MatchExact(CollectionItem{Title: "  the HOBBIT  "})
	if len(matches) != 1 {
		t.Fatalf("MatchExact returned %d matches, want 1", len(matches))
	}
	if matches[0].NodeID != "b1" || matches[0].Score != 100 {
		t.Errorf("match = %+v, want b1 at 100", matches[0])
	}

	if got := m.MatchExact(CollectionItem{Title: "Unknown"}); len(got) != 0 {
		t.Errorf("MatchExact on unknown title = %v, want none", got)
	}
}

func TestMapper_MatchFuzzy(t *testing.T) {
	t.Parallel()

	g := testGraph(t,
		&bookgraph.Node{ID: "b1", Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}},
		&bookgraph.Node{ID: "b2", Title: "The Hound", Authors: []string{"Someone Else"}},
		&bookgraph.Node{ID: "b3", Title: "Zorro"},
	)
	m := NewMapper(g, DefaultConfig(), zerolog.Nop())

	t.Run("near miss resolves", func(t *testing.T) {
		t.Parallel()

		matches := m.MatchFuzzy(CollectionItem{Title: "The Hobbitt"}, 0)
		if len(matches) == 0 {
			t.Fatal("no matches for near-identical title")
		}
		if matches[0].NodeID != "b1" {
			t.Errorf("best match = %q, want b1", matches[0].NodeID)
		}
		if matches[0].Score < 85 || matches[0].Score >= 100 {
			t.Errorf("score = %f, want in [85, 100)", matches[0].Score)
		}
	})

	t.Run("author blend rewards right author", func(t *testing.T) {
		t.Parallel()

		with := m.MatchFuzzy(CollectionItem{Title: "The Hobbitt", Author: "J.R.R. Tolkien"}, 0)
		without := m.MatchFuzzy(CollectionItem{Title: "The Hobbitt"}, 0)
		if len(with) == 0 || len(without) == 0 {
			t.Fatal("expected matches in both modes")
		}
		if with[0].Score <= without[0].Score {
			t.Errorf("author-confirmed score %f not above title-only %f",
				with[0].Score, without[0].Score)
		}
	})

	t.Run("prefix bucket restricts candidates", func(t *testing.T) {
		t.Parallel()

		// "A Hobbit" lands in bucket "a h", not "the", so b1 is invisible.
		if got := m.MatchFuzzy(CollectionItem{Title: "A Hobbit"}, 0); len(got) != 0 {
			t.Errorf("cross-bucket match = %v, want none", got)
		}
	})

	t.Run("threshold rejects weak candidates", func(t *testing.T) {
		t.Parallel()

		// Same bucket as b1/b2 but far from either title.
		if got := m.MatchFuzzy(CollectionItem{Title: "Theodore Roosevelt: A Life"}, 0); len(got) != 0 {
			t.Errorf("weak match = %v, want none", got)
		}
	})

	t.Run("exact match short-circuits", func(t *testing.T) {
		t.Parallel()

		matches := m.MatchFuzzy(CollectionItem{Title: "the hobbit"}, 0)
		if len(matches) != 1 || matches[0].Score != 100 {
			t.Errorf("matches = %v, want single exact match at 100", matches)
		}
	})
}

func TestMapper_DirectMode(t *testing.T) {
	t.Parallel()

	// No node carries a title, so the index is empty.
	g := testGraph(t,
		&bookgraph.Node{ID: "n1"},
		&bookgraph.Node{ID: "n2"},
	)
	m := NewMapper(g, DefaultConfig(), zerolog.Nop())

	if !m.DirectMode() {
		t.Fatal("mapper not in direct mode with empty title index")
	}

	items := []CollectionItem{
		{BookID: "x1", Title: "One", Rating: 5},
		{BookID: "x2", Title: "Two", Rating: 4},
		{BookID: "x3", Title: "Three", Rating: 3},
		{BookID: "x4", Title: "Four", Rating: 2},
		{BookID: "x5", Title: "Five", Rating: 1},
	}
	mapped, fraction := m.MapCollection(items, 0)

	if fraction != 1 {
		t.Errorf("resolved fraction = %f, want 1", fraction)
	}
	for i, mi := range mapped {
		if mi.NodeID != items[i].BookID || mi.Score != 100 {
			t.Errorf("item %d mapped to %q at %f, want %q at 100",
				i, mi.NodeID, mi.Score, items[i].BookID)
		}
	}

	// Items without a supplied ID have nothing to resolve against.
	noID, _ := m.MapCollection([]CollectionItem{{Title: "Anonymous"}}, 0)
	if noID[0].Resolved() {
		t.Error("id-less item resolved in direct mode")
	}
}

func TestMapper_MapCollection(t *testing.T) {
	t.Parallel()

	g := testGraph(t,
		&bookgraph.Node{ID: "b1", Title: "The Hobbit"},
		&bookgraph.Node{ID: "b2", Title: "Dune"},
	)
	m := NewMapper(g, DefaultConfig(), zerolog.Nop())

	mapped, fraction := m.MapCollection([]CollectionItem{
		{Title: "The Hobbit", Rating: 5},
		{Title: "Dune", Rating: 4},
		{Title: "Completely Unknown Book"},
		{Title: "Another Stranger"},
	}, 0)

	if fraction != 0.5 {
		t.Errorf("resolved fraction = %f, want 0.5", fraction)
	}
	if len(mapped) != 4 {
		t.Fatalf("len(mapped) = %d, want 4", len(mapped))
	}
	if mapped[0].NodeID != "b1" || mapped[1].NodeID != "b2" {
		t.Errorf("resolved ids = %q, %q, want b1, b2", mapped[0].NodeID, mapped[1].NodeID)
	}
	if mapped[2].Resolved() || mapped[3].Resolved() {
		t.Error("unknown titles resolved")
	}
}

func TestMapper_MergeIntoGraph(t *testing.T) {
	t.Parallel()

	g := testGraph(t,
		&bookgraph.Node{ID: "b1", Title: "The Hobbit"},
		&bookgraph.Node{ID: "b2", Title: "Dune"},
		&bookgraph.Node{ID: "b3", Title: "Unowned"},
	)
	if _, err := g.AddEdge("b1", "b2", 3); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	m := NewMapper(g, DefaultConfig(), zerolog.Nop())
	mapped := []MappedItem{
		{Item: CollectionItem{Title: "The Hobbit", Rating: 5}, NodeID: "b1", Score: 100},
		{Item: CollectionItem{Title: "Dune", Rating: 4}, NodeID: "b2", Score: 100},
		{Item: CollectionItem{BookID: "x9", Title: "Local Only", Author: "Indie", Rating: 3}, NodeID: "x9", Score: 100},
		// A duplicate resolution must not double-apply.
		{Item: CollectionItem{Title: "The Hobbit", Rating: 5}, NodeID: "b1", Score: 100},
	}

	owned := m.MergeIntoGraph(g, mapped)
	if owned != 3 {
		t.Errorf("owned = %d, want 3", owned)
	}

	// Existing nodes gain the ownership overlay.
	b1 := g.Node("b1")
	if !b1.ReadByUser || b1.UserRating != 5 {
		t.Errorf("b1 overlay = read %v rating %f, want read 5", b1.ReadByUser, b1.UserRating)
	}
	if g.Node("b3").ReadByUser {
		t.Error("unresolved node marked as read")
	}

	// Unknown resolution IDs are inserted as external nodes.
	x9 := g.Node("x9")
	if x9 == nil {
		t.Fatal("direct-mapped node not inserted")
	}
	if !x9.External || !x9.ReadByUser || x9.Title != "Local Only" {
		t.Errorf("x9 = %+v, want external owned node", x9)
	}

	// Existing co-owned edge reinforced by the configured increment.
	e := g.EdgeBetween("b1", "b2")
	if e == nil {
		t.Fatal("edge b1-b2 missing")
	}
	if e.Weight != 5 || !e.CoReadByUser {
		t.Errorf("edge b1-b2 = %+v, want weight 5 co-read", e)
	}

	// New co-owned pairs connect at the base weight.
	for _, v := range []string{"b1", "b2"} {
		ne := g.EdgeBetween(v, "x9")
		if ne == nil {
			t.Fatalf("edge %s-x9 missing", v)
		}
		if ne.Weight != 1 || !ne.CoReadByUser {
			t.Errorf("edge %s-x9 = %+v, want weight 1 co-read", v, ne)
		}
	}
}
