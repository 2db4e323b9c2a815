// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

// Package bookgraph implements the global co-occurrence book graph and its
// persistence.
//
// The graph connects two books whenever the same reader positively interacted
// with both of them; the edge weight counts how many readers did so. Nodes
// carry book metadata plus per-reader overlay state (read flag, the reader's
// own rating) that later stages use for personalization.
//
// # Structure
//
// The graph is an arena of nodes keyed by ID plus an adjacency map of
// ID -> {neighbor ID: *Edge}. Both adjacency directions share one *Edge
// value, so weight symmetry is structural rather than a convention that
// callers must maintain.
//
// # Persistence
//
// Store coordinates three sources for the graph, in priority order: the
// in-memory graph from a previous call, a persisted snapshot (BadgerDB),
// and a fresh build from the interaction corpus. A missing snapshot is a
// recoverable condition that falls through to a rebuild, not an error.
package bookgraph
