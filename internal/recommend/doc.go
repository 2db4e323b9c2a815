// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

// Package recommend ranks books from a reader's personal neighborhood.
//
// The engine holds the current personal subgraph and dispatches to ranking
// strategies registered under a name:
//
//   - pagerank: personalized PageRank seeded on the reader's owned books
//   - embedding: random-walk node embeddings scored by cosine similarity
//   - heuristic: a rating/connectivity blend, cheap and model-free
//   - ensemble: union of the above with first-wins deduplication
//
// All strategies share one candidate policy (externally injected books
// first, then unread corpus books, then anything the reader does not own)
// and one exhaustion fallback: when no candidates remain, the reader's own
// best-rated books are re-listed at a fixed score with an explanatory note
// on the first entry.
//
// # Thread Safety
//
// The engine is safe for concurrent use. Swapping the graph takes an
// exclusive lock and invalidates cached embeddings; ranking takes a shared
// lock, except embedding training which upgrades to exclusive.
package recommend
