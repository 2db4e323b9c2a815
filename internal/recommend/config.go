// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package recommend

import "fmt"

// Config holds the ranking parameters shared by all strategies.
type Config struct {
	// TopN is the default number of recommendations per request.
	TopN int `koanf:"top_n" json:"top_n" validate:"gte=1"`

	// Alpha is the PageRank damping factor.
	Alpha float64 `koanf:"alpha" json:"alpha" validate:"gt=0,lt=1"`

	// RatingWeight and ConnectivityWeight blend the heuristic score.
	RatingWeight       float64 `koanf:"rating_weight" json:"rating_weight" validate:"gte=0,lte=1"`
	ConnectivityWeight float64 `koanf:"connectivity_weight" json:"connectivity_weight" validate:"gte=0,lte=1"`

	// ExternalBoost multiplies the heuristic score of externally injected
	// books so fresh material is not drowned out by the corpus.
	ExternalBoost float64 `koanf:"external_boost" json:"external_boost" validate:"gte=1"`

	// Embedding configures the random-walk embedding strategy.
	Embedding EmbeddingConfig `koanf:"embedding" json:"embedding"`
}

// EmbeddingConfig bounds random-walk embedding training.
type EmbeddingConfig struct {
	// Dimensions is the embedding vector size.
	Dimensions int `koanf:"dimensions" json:"dimensions" validate:"gte=2"`

	// WalkLength is the number of steps per random walk.
	WalkLength int `koanf:"walk_length" json:"walk_length" validate:"gte=2"`

	// NumWalks is the number of walks started per node.
	NumWalks int `koanf:"num_walks" json:"num_walks" validate:"gte=1"`

	// WindowSize is the skip-gram context window.
	WindowSize int `koanf:"window_size" json:"window_size" validate:"gte=1"`

	// Epochs is the number of training passes over the walk corpus.
	Epochs int `koanf:"epochs" json:"epochs" validate:"gte=1"`

	// LearningRate is the initial SGD step size.
	LearningRate float64 `koanf:"learning_rate" json:"learning_rate" validate:"gt=0"`

	// NegativeSamples is the number of negative draws per positive pair.
	NegativeSamples int `koanf:"negative_samples" json:"negative_samples" validate:"gte=1"`

	// Seed makes walk generation and weight init reproducible.
	Seed int64 `koanf:"seed" json:"seed"`

	// TrainOnDemand lets a direct embedding request train vectors when the
	// cache is cold. The ensemble never trains; it uses the cache or skips.
	TrainOnDemand bool `koanf:"train_on_demand" json:"train_on_demand"`
}

// DefaultConfig returns the standard ranking parameters.
func DefaultConfig() Config {
	return Config{
		TopN:               10,
		Alpha:              0.85,
		RatingWeight:       0.3,
		ConnectivityWeight: 0.7,
		ExternalBoost:      1.1,
		Embedding: EmbeddingConfig{
			Dimensions:      64,
			WalkLength:      30,
			NumWalks:        200,
			WindowSize:      10,
			Epochs:          1,
			LearningRate:    0.025,
			NegativeSamples: 5,
			Seed:            42,
			TrainOnDemand:   true,
		},
	}
}

// Validate checks parameter ranges and cross-field consistency.
func (c Config) Validate() error {
	if c.TopN < 1 {
		return fmt.Errorf("top_n must be >= 1, got %d", c.TopN)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("alpha must be in (0, 1), got %f", c.Alpha)
	}
	if c.RatingWeight < 0 || c.ConnectivityWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative")
	}
	if sum := c.RatingWeight + c.ConnectivityWeight; sum <= 0 {
		return fmt.Errorf("blend weights must not both be zero")
	}
	if c.ExternalBoost < 1 {
		return fmt.Errorf("external_boost must be >= 1, got %f", c.ExternalBoost)
	}
	if c.Embedding.Dimensions < 2 {
		return fmt.Errorf("embedding dimensions must be >= 2, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.WalkLength < 2 {
		return fmt.Errorf("embedding walk_length must be >= 2, got %d", c.Embedding.WalkLength)
	}
	if c.Embedding.NumWalks < 1 {
		return fmt.Errorf("embedding num_walks must be >= 1, got %d", c.Embedding.NumWalks)
	}
	if c.Embedding.WindowSize < 1 {
		return fmt.Errorf("embedding window_size must be >= 1, got %d", c.Embedding.WindowSize)
	}
	return nil
}
