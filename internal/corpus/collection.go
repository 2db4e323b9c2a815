// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package corpus

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/avelis/bookgraph/internal/identity"
)

// LoadCollection reads the reader's collection export, a JSON array of
// items. Items failing validation (missing title, rating outside 0-5) are
// skipped with a warning so one bad row cannot sink the import.
func LoadCollection(path string, logger zerolog.Logger) ([]identity.CollectionItem, error) {
	log := logger.With().Str("component", "corpus").Logger()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening collection export %q: %w", path, err)
	}

	var items []identity.CollectionItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding collection export %q: %w", path, err)
	}

	validate := validator.New()
	kept := items[:0]
	skipped := 0
	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			skipped++
			log.Warn().Int("index", i).Str("title", item.Title).Err(err).
				Msg("skipping invalid collection item")
			continue
		}
		kept = append(kept, item)
	}

	log.Info().Int("items", len(kept)).Int("skipped", skipped).Msg("collection loaded")
	return kept, nil
}
