// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

// Package main is the bookgraph command: a batch pipeline that builds a
// co-read book graph from an interaction corpus, overlays the reader's own
// collection, extracts the reader's personal neighborhood, and prints ranked
// recommendations as JSON on stdout.
//
// The pipeline runs in order:
//
//  1. Configuration: struct defaults, optional YAML file, BOOKGRAPH_ env vars
//  2. Corpus: DuckDB interactions (optional CSV import) and metadata dump
//  3. Graph: badger snapshot if present, otherwise rebuild and persist
//  4. Identity: resolve the collection export and merge the reading overlay
//  5. Augmentation: optional external books for exhausted collections
//  6. Neighborhood: bounded k-hop extraction plus genre/rating filters
//  7. Ranking: pagerank, embedding, heuristic, or ensemble
//
// Logs go to stderr; only the result document goes to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/avelis/bookgraph/internal/bookgraph"
	"github.com/avelis/bookgraph/internal/config"
	"github.com/avelis/bookgraph/internal/corpus"
	"github.com/avelis/bookgraph/internal/identity"
	"github.com/avelis/bookgraph/internal/logging"
	"github.com/avelis/bookgraph/internal/personal"
	"github.com/avelis/bookgraph/internal/recommend"
)

// result is the document written to stdout.
type result struct {
	GeneratedAt      time.Time                  `json:"generated_at"`
	Strategy         string                     `json:"strategy"`
	GraphNodes       int                        `json:"graph_nodes"`
	GraphEdges       int                        `json:"graph_edges"`
	ResolvedFraction float64                    `json:"resolved_fraction,omitempty"`
	Count            int                        `json:"count"`
	Recommendations  []recommend.Recommendation `json:"recommendations"`
}

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("bookgraph failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cfg)
	logging.Init(cfg.Logging)
	log := logging.With().Str("component", "main").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Corpus: interactions live in DuckDB, metadata in memory.
	corpusStore, err := corpus.Open(cfg.Data.InteractionsDB, logging.Logger())
	if err != nil {
		return err
	}
	defer corpusStore.Close()

	if cfg.Data.InteractionsCSV != "" {
		if _, err := corpusStore.ImportCSV(ctx, cfg.Data.InteractionsCSV); err != nil {
			return err
		}
	}
	if cfg.Data.MetadataPath != "" {
		meta, err := corpus.LoadMetadata(cfg.Data.MetadataPath, logging.Logger())
		if err != nil {
			return err
		}
		corpusStore.SetMetadata(meta)
	}

	// Graph: snapshot first unless a rebuild is forced.
	snapshots, err := bookgraph.OpenBadgerSnapshotStore(cfg.Data.SnapshotPath)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	store := bookgraph.NewStore(cfg.Graph, corpusStore, snapshots, logging.Logger())
	var graph *bookgraph.Graph
	if cfg.Run.RebuildGraph {
		graph, err = store.Build(ctx)
	} else {
		graph, err = store.Get(ctx)
	}
	if err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		log.Warn().Err(err).Msg("snapshot not saved, continuing")
	}

	// Identity: overlay the reader's collection.
	resolvedFraction := 0.0
	if cfg.Data.CollectionPath != "" {
		items, err := corpus.LoadCollection(cfg.Data.CollectionPath, logging.Logger())
		if err != nil {
			return err
		}
		mapper := identity.NewMapper(graph, cfg.Identity, logging.Logger())
		mapped, fraction := mapper.MapCollection(items, 0)
		resolvedFraction = fraction
		mapper.MergeIntoGraph(graph, mapped)
	}

	// Augmentation: connect external books to owned ones.
	if cfg.Data.ExternalBooksPath != "" {
		books, err := loadExternalBooks(cfg.Data.ExternalBooksPath)
		if err != nil {
			return err
		}
		nodes, edges := bookgraph.AugmentExternal(graph, books, cfg.Augment)
		log.Info().Int("nodes", nodes).Int("edges", edges).Msg("external books merged")
	}

	// Neighborhood: the reader-centered slice of the graph.
	builder := personal.NewBuilder(cfg.Personal, logging.Logger())
	neighborhood, err := builder.Extract(graph)
	if err != nil {
		if errors.Is(err, personal.ErrNoSeeds) {
			return fmt.Errorf("nothing owned by the reader; supply a collection export: %w", err)
		}
		return err
	}
	neighborhood.
		FilterByGenre(cfg.Run.Genres, cfg.Run.MinGenreMatches).
		FilterByRating(cfg.Run.MinRating)

	// Ranking.
	engine := recommend.NewEngine(cfg.Recommend, logging.Logger())
	engine.SetGraph(neighborhood.Graph())
	if cfg.Run.PrecomputeEmbeddings {
		if err := engine.PrecomputeEmbeddings(ctx); err != nil {
			return err
		}
	}

	recs, err := engine.Recommend(ctx, cfg.Run.Strategy, cfg.Run.TopN)
	if err != nil {
		return err
	}

	out := result{
		GeneratedAt:      time.Now().UTC(),
		Strategy:         cfg.Run.Strategy,
		GraphNodes:       neighborhood.Graph().NodeCount(),
		GraphEdges:       neighborhood.Graph().EdgeCount(),
		ResolvedFraction: resolvedFraction,
		Count:            len(recs),
		Recommendations:  recs,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

// applyFlags lets command-line flags override loaded configuration for the
// knobs that change between runs.
func applyFlags(cfg *config.Config) {
	strategy := flag.String("strategy", cfg.Run.Strategy, "ranking strategy: pagerank, embedding, heuristic, ensemble")
	topN := flag.Int("top", cfg.Run.TopN, "number of recommendations (0 = engine default)")
	genres := flag.String("genres", strings.Join(cfg.Run.Genres, ","), "comma-separated genre filter")
	minRating := flag.Float64("min-rating", cfg.Run.MinRating, "minimum average rating filter")
	rebuild := flag.Bool("rebuild", cfg.Run.RebuildGraph, "force a graph rebuild, ignoring snapshots")
	flag.Parse()

	cfg.Run.Strategy = *strategy
	cfg.Run.TopN = *topN
	cfg.Run.MinRating = *minRating
	cfg.Run.RebuildGraph = *rebuild
	cfg.Run.Genres = nil
	for _, g := range strings.Split(*genres, ",") {
		if g = strings.TrimSpace(g); g != "" {
			cfg.Run.Genres = append(cfg.Run.Genres, g)
		}
	}
}

// loadExternalBooks reads a JSON array of external books.
func loadExternalBooks(path string) ([]bookgraph.ExternalBook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening external books %q: %w", path, err)
	}
	var books []bookgraph.ExternalBook
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, fmt.Errorf("decoding external books %q: %w", path, err)
	}
	return books, nil
}
