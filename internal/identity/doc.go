// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

// Package identity resolves a reader's personal-collection items onto graph
// nodes and merges the reading history into the graph as a reinforcement
// overlay.
//
// Resolution runs exact normalized-title lookup first and falls back to
// approximate matching restricted to index buckets sharing the item's first
// three normalized-title characters. That restriction is a deliberate
// precision/performance trade-off: titles that differ within the first three
// characters (leading articles, punctuation) will never be found. This is a
// known limitation, not a defect.
//
// When the corpus yields no resolvable titles at all (synthetic or local-only
// data), the mapper enters a degenerate direct-mapping mode: every request
// resolves to the item's own supplied identifier at score 100, bypassing
// title matching entirely.
package identity
