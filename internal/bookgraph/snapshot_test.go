// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package bookgraph

import (
	"errors"
	"testing"
)

func TestBadgerSnapshotStore_RoundTrip(t *testing.T) {
	t.Parallel()

	snap, err := OpenBadgerSnapshotStore("")
	if err != nil {
		t.Fatalf("OpenBadgerSnapshotStore: %v", err)
	}
	defer snap.Close()

	g := NewGraph()
	nodes := []*Node{
		{
			ID:      "b1",
			Title:   "The Left Hand of Darkness",
			Authors: []string{"Ursula K. Le Guin"},
			Rating:  4.1,
			Genres:  []string{"Science Fiction", "Classics"},
		},
		{
			ID:         "b2",
			Title:      "Piranesi",
			ReadByUser: true,
			UserRating: 5,
			Notes:      []string{"collection import"},
		},
		{ID: "ext1", Title: "External Pick", External: true},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%q): %v", n.ID, err)
		}
	}
	mustEdge(t, g, "b1", "b2", 4)
	e := mustEdgeGet(t, g, "b1", "b2")
	e.CoReadByUser = true
	mustEdge(t, g, "b2", "ext1", 1.5)

	if err := snap.Save(g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := snap.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got, want := loaded.NodeCount(), g.NodeCount(); got != want {
		t.Fatalf("NodeCount() = %d, want %d", got, want)
	}
	if got, want := loaded.EdgeCount(), g.EdgeCount(); got != want {
		t.Fatalf("EdgeCount() = %d, want %d", got, want)
	}

	n := loaded.Node("b2")
	if n == nil {
		t.Fatal("node b2 missing after round trip")
	}
	if !n.ReadByUser || n.UserRating != 5 {
		t.Errorf("b2 overlay state lost: read=%v rating=%f", n.ReadByUser, n.UserRating)
	}
	if len(n.Notes) != 1 || n.Notes[0] != "collection import" {
		t.Errorf("b2 notes lost: %v", n.Notes)
	}

	ext := loaded.Node("ext1")
	if ext == nil || !ext.External {
		t.Error("external flag lost")
	}

	le := loaded.EdgeBetween("b1", "b2")
	if le == nil {
		t.Fatal("edge b1-b2 missing after round trip")
	}
	if le.Weight != 4 || !le.CoReadByUser {
		t.Errorf("edge b1-b2 = %+v, want weight 4 co-read", le)
	}
	if w := loaded.EdgeBetween("b2", "ext1").Weight; w != 1.5 {
		t.Errorf("edge b2-ext1 weight = %f, want 1.5", w)
	}
}

func TestBadgerSnapshotStore_LoadMissing(t *testing.T) {
	t.Parallel()

	snap, err := OpenBadgerSnapshotStore("")
	if err != nil {
		t.Fatalf("OpenBadgerSnapshotStore: %v", err)
	}
	defer snap.Close()

	if _, err := snap.Load(); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Load() error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestBadgerSnapshotStore_SaveReplaces(t *testing.T) {
	t.Parallel()

	snap, err := OpenBadgerSnapshotStore("")
	if err != nil {
		t.Fatalf("OpenBadgerSnapshotStore: %v", err)
	}
	defer snap.Close()

	first := NewGraph()
	if err := first.AddNode(&Node{ID: "old"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := snap.Save(first); err != nil {
		t.Fatalf("Save(first): %v", err)
	}

	second := NewGraph()
	if err := second.AddNode(&Node{ID: "new"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := snap.Save(second); err != nil {
		t.Fatalf("Save(second): %v", err)
	}

	loaded, err := snap.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.HasNode("old") {
		t.Error("stale node survived snapshot replacement")
	}
	if !loaded.HasNode("new") {
		t.Error("replacement snapshot missing its node")
	}
}

func TestBadgerSnapshotStore_OnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	snap, err := OpenBadgerSnapshotStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerSnapshotStore: %v", err)
	}

	g := NewGraph()
	if err := g.AddNode(&Node{ID: "b1", Title: "persisted"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := snap.Save(g); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := snap.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and verify the snapshot survived the process boundary.
	reopened, err := OpenBadgerSnapshotStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if got := loaded.Node("b1"); got == nil || got.Title != "persisted" {
		t.Errorf("node after reopen = %+v", got)
	}
}

// mustEdgeGet fetches an edge or fails the test.
func mustEdgeGet(t *testing.T, g *Graph, u, v string) *Edge {
	t.Helper()
	e := g.EdgeBetween(u, v)
	if e == nil {
		t.Fatalf("edge %q-%q missing", u, v)
	}
	return e
}
