// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

// Package corpus loads the raw inputs the graph is built from: reader-book
// interactions in DuckDB, book metadata from gzipped JSON-lines dumps, and
// the reader's personal collection export.
//
// The DuckDB store implements bookgraph.Source. Interactions are kept in a
// plain table and can be bulk-imported from CSV through DuckDB's native
// reader; metadata is loaded from file into memory since it is read exactly
// once per graph build.
//
// Malformed metadata lines and invalid collection items are skipped with a
// warning rather than failing the whole load.
package corpus
