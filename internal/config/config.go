// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

// Package config loads bookgraph configuration in three layers: struct
// defaults, an optional YAML file, and BOOKGRAPH_-prefixed environment
// variables, each layer overriding the previous one.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/avelis/bookgraph/internal/bookgraph"
	"github.com/avelis/bookgraph/internal/identity"
	"github.com/avelis/bookgraph/internal/logging"
	"github.com/avelis/bookgraph/internal/personal"
	"github.com/avelis/bookgraph/internal/recommend"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "BOOKGRAPH_CONFIG"

// envPrefix namespaces bookgraph environment variables:
// BOOKGRAPH_RECOMMEND_ALPHA -> recommend.alpha.
const envPrefix = "BOOKGRAPH_"

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"bookgraph.yaml",
	"bookgraph.yml",
	"/etc/bookgraph/config.yaml",
}

// Config aggregates all component configuration.
type Config struct {
	Data      DataConfig              `koanf:"data" json:"data"`
	Graph     bookgraph.StoreConfig   `koanf:"graph" json:"graph"`
	Augment   bookgraph.AugmentConfig `koanf:"augment" json:"augment"`
	Identity  identity.Config         `koanf:"identity" json:"identity"`
	Personal  personal.Config         `koanf:"personal" json:"personal"`
	Recommend recommend.Config        `koanf:"recommend" json:"recommend"`
	Run       RunConfig               `koanf:"run" json:"run"`
	Logging   logging.Config          `koanf:"logging" json:"logging"`
}

// DataConfig locates the input and state files.
type DataConfig struct {
	// InteractionsDB is the DuckDB database path; empty runs in memory.
	InteractionsDB string `koanf:"interactions_db" json:"interactions_db"`

	// InteractionsCSV, when set, is bulk-imported before the graph build.
	InteractionsCSV string `koanf:"interactions_csv" json:"interactions_csv"`

	// MetadataPath is a JSON-lines book metadata dump, optionally gzipped.
	MetadataPath string `koanf:"metadata_path" json:"metadata_path"`

	// CollectionPath is the reader's collection export (JSON array).
	CollectionPath string `koanf:"collection_path" json:"collection_path"`

	// ExternalBooksPath is an optional JSON array of external books used to
	// augment an exhausted graph.
	ExternalBooksPath string `koanf:"external_books_path" json:"external_books_path"`

	// SnapshotPath is the badger directory for graph snapshots; empty keeps
	// snapshots in memory only.
	SnapshotPath string `koanf:"snapshot_path" json:"snapshot_path"`
}

// RunConfig shapes a single recommendation run.
type RunConfig struct {
	// Strategy selects the ranking strategy.
	Strategy string `koanf:"strategy" json:"strategy"`

	// TopN caps the number of recommendations; 0 uses the engine default.
	TopN int `koanf:"top_n" json:"top_n"`

	// Genres, when set, narrows the neighborhood before ranking.
	Genres []string `koanf:"genres" json:"genres"`

	// MinGenreMatches is the overlap required by the genre filter.
	MinGenreMatches int `koanf:"min_genre_matches" json:"min_genre_matches"`

	// MinRating, when positive, drops low-rated books before ranking.
	MinRating float64 `koanf:"min_rating" json:"min_rating"`

	// PrecomputeEmbeddings trains embedding vectors before ranking so the
	// ensemble's embedding contributor has a warm cache.
	PrecomputeEmbeddings bool `koanf:"precompute_embeddings" json:"precompute_embeddings"`

	// RebuildGraph forces a graph rebuild even when a snapshot exists.
	RebuildGraph bool `koanf:"rebuild_graph" json:"rebuild_graph"`
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			InteractionsDB: "bookgraph.duckdb",
			SnapshotPath:   "",
		},
		Graph:     bookgraph.DefaultStoreConfig(),
		Augment:   bookgraph.DefaultAugmentConfig(),
		Identity:  identity.DefaultConfig(),
		Personal:  personal.DefaultConfig(),
		Recommend: recommend.DefaultConfig(),
		Run: RunConfig{
			Strategy:        recommend.StrategyEnsemble,
			MinGenreMatches: 1,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or empty.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings routes variables whose koanf path is more than one level deep,
// where the single-separator rule below is not enough.
var envMappings = map[string]string{
	"recommend.embedding_dimensions":       "recommend.embedding.dimensions",
	"recommend.embedding_walk_length":      "recommend.embedding.walk_length",
	"recommend.embedding_num_walks":        "recommend.embedding.num_walks",
	"recommend.embedding_window_size":      "recommend.embedding.window_size",
	"recommend.embedding_epochs":           "recommend.embedding.epochs",
	"recommend.embedding_seed":             "recommend.embedding.seed",
	"recommend.embedding_train_on_demand":  "recommend.embedding.train_on_demand",
	"recommend.embedding_learning_rate":    "recommend.embedding.learning_rate",
	"recommend.embedding_negative_samples": "recommend.embedding.negative_samples",
}

// envTransform maps BOOKGRAPH_RECOMMEND_ALPHA to recommend.alpha. Only the
// first underscore becomes a section separator; the rest stay literal so
// multi-word keys like min_edge_weight survive. Deeper paths go through
// envMappings.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	key = strings.Replace(key, "_", ".", 1)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return key
}

// Validate checks cross-component consistency.
func (c *Config) Validate() error {
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if c.Graph.RatingThreshold < 0 || c.Graph.RatingThreshold > 5 {
		return fmt.Errorf("graph: rating_threshold must be in [0, 5], got %f", c.Graph.RatingThreshold)
	}
	if c.Personal.Hops < 0 {
		return fmt.Errorf("personal: hops must be >= 0, got %d", c.Personal.Hops)
	}
	if c.Personal.MaxNodes < 0 {
		return fmt.Errorf("personal: max_nodes must be >= 0, got %d", c.Personal.MaxNodes)
	}
	switch c.Run.Strategy {
	case recommend.StrategyPageRank, recommend.StrategyEmbedding,
		recommend.StrategyHeuristic, recommend.StrategyEnsemble:
	default:
		return fmt.Errorf("run: unknown strategy %q", c.Run.Strategy)
	}
	if c.Run.TopN < 0 {
		return fmt.Errorf("run: top_n must be >= 0, got %d", c.Run.TopN)
	}
	return nil
}
