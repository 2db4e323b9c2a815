// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

const interactionsSchema = `
CREATE TABLE IF NOT EXISTS interactions (
	user_id VARCHAR NOT NULL,
	book_id VARCHAR NOT NULL,
	rating DOUBLE NOT NULL DEFAULT 0,
	is_read BOOLEAN NOT NULL DEFAULT false
)`

// Store keeps reader-book interactions in DuckDB and serves them together
// with in-memory book metadata as a bookgraph.Source.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger

	mu   sync.RWMutex
	meta map[string]bookgraph.BookMeta
}

// Open opens or creates the interactions database at path. An empty path
// opens an in-memory database.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb at %q: %w", path, err)
	}
	if _, err := db.Exec(interactionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating interactions table: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "corpus").Logger(),
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ImportCSV bulk-loads interactions from a CSV file with a header row of
// user_id, book_id, rating, is_read. Returns the number of rows imported.
func (s *Store) ImportCSV(ctx context.Context, path string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions SELECT user_id, book_id, rating, is_read FROM read_csv_auto(?)`,
		path)
	if err != nil {
		return 0, fmt.Errorf("importing interactions from %q: %w", path, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting imported rows: %w", err)
	}
	s.logger.Info().Str("path", path).Int64("rows", rows).Msg("interactions imported")
	return rows, nil
}

// AddInteraction inserts a single interaction row.
func (s *Store) AddInteraction(ctx context.Context, in bookgraph.Interaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (user_id, book_id, rating, is_read) VALUES (?, ?, ?, ?)`,
		in.UserID, in.BookID, in.Rating, in.IsRead)
	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

// Interactions returns all interaction rows in a stable order. Filtering by
// rating and read state happens during graph construction, not here.
func (s *Store) Interactions(ctx context.Context) ([]bookgraph.Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, book_id, rating, is_read FROM interactions ORDER BY user_id, book_id`)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	var out []bookgraph.Interaction
	for rows.Next() {
		var in bookgraph.Interaction
		if err := rows.Scan(&in.UserID, &in.BookID, &in.Rating, &in.IsRead); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading interactions: %w", err)
	}
	return out, nil
}

// SetMetadata installs the book metadata served by Metadata, typically the
// result of LoadMetadata.
func (s *Store) SetMetadata(meta map[string]bookgraph.BookMeta) {
	s.mu.Lock()
	s.meta = meta
	s.mu.Unlock()
}

// Metadata returns the installed book metadata. A store without metadata
// returns an empty map; graph construction then falls back to defaults.
func (s *Store) Metadata(context.Context) (map[string]bookgraph.BookMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return map[string]bookgraph.BookMeta{}, nil
	}
	return s.meta, nil
}
