// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package corpus

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/avelis/bookgraph/internal/bookgraph"
)

// metaRecord is one line of a metadata dump. Ratings arrive as strings in
// the common dump formats, so parsing is lenient.
type metaRecord struct {
	BookID        string   `json:"book_id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	AverageRating string   `json:"average_rating"`
	Genres        []string `json:"genres"`
	SimilarBooks  []string `json:"similar_books"`
}

// LoadMetadata reads a JSON-lines metadata dump, gzipped when the path ends
// in .gz. Lines that fail to decode or lack a book_id are skipped with a
// warning; an unreadable rating defaults to 0.
func LoadMetadata(path string, logger zerolog.Logger) (map[string]bookgraph.BookMeta, error) {
	log := logger.With().Str("component", "corpus").Logger()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata dump %q: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream for %q: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	meta := make(map[string]bookgraph.BookMeta)
	skipped := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec metaRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			skipped++
			log.Warn().Int("line", line).Err(err).Msg("skipping malformed metadata line")
			continue
		}
		if rec.BookID == "" {
			skipped++
			log.Warn().Int("line", line).Msg("skipping metadata line without book_id")
			continue
		}

		rating := 0.0
		if rec.AverageRating != "" {
			if v, err := strconv.ParseFloat(rec.AverageRating, 64); err == nil {
				rating = v
			} else {
				log.Warn().Int("line", line).Str("book_id", rec.BookID).
					Str("average_rating", rec.AverageRating).
					Msg("unparseable rating, defaulting to 0")
			}
		}

		meta[rec.BookID] = bookgraph.BookMeta{
			BookID:        rec.BookID,
			Title:         rec.Title,
			Authors:       rec.Authors,
			AverageRating: rating,
			Genres:        rec.Genres,
			SimilarBooks:  rec.SimilarBooks,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading metadata dump %q: %w", path, err)
	}

	log.Info().Int("books", len(meta)).Int("skipped", skipped).Msg("metadata loaded")
	return meta, nil
}
