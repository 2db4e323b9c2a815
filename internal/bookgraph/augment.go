// Bookgraph - Personal Book Graph Recommendation Engine
// Copyright 2026 avelis
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/avelis/bookgraph

package bookgraph

import (
	"math"
	"strings"
)

// ExternalBook is a candidate book from an outside dataset, injected so a
// fully-read collection still has something recommendable.
type ExternalBook struct {
	ID     string
	Title  string
	Author string
	Rating float64
}

// AugmentConfig holds parameters for external-book augmentation.
type AugmentConfig struct {
	// MinSimilarity is the minimum text-feature cosine similarity required
	// to connect an external book to a reader-owned node. Default: 0.1.
	MinSimilarity float64 `json:"min_similarity" koanf:"min_similarity"`

	// WeightScale converts a similarity into an edge weight. Default: 5.0.
	// The resulting weight is clamped to the >= 1 edge invariant.
	WeightScale float64 `json:"weight_scale" koanf:"weight_scale"`

	// DefaultRating is assigned to external books without one. Default: 3.5.
	DefaultRating float64 `json:"default_rating" koanf:"default_rating"`
}

// DefaultAugmentConfig returns the default augmentation parameters.
func DefaultAugmentConfig() AugmentConfig {
	return AugmentConfig{
		MinSimilarity: 0.1,
		WeightScale:   5.0,
		DefaultRating: 3.5,
	}
}

// AugmentExternal adds external-origin nodes for the given books and connects
// each one to reader-owned nodes whose title/author/genre text features are
// similar. Only reader-owned-to-external pairs are connected; external books
// are never linked to each other here. Returns the number of nodes and edges
// added.
func AugmentExternal(g *Graph, books []ExternalBook, cfg AugmentConfig) (nodesAdded, edgesAdded int) {
	if cfg.MinSimilarity <= 0 {
		cfg.MinSimilarity = DefaultAugmentConfig().MinSimilarity
	}
	if cfg.WeightScale <= 0 {
		cfg.WeightScale = DefaultAugmentConfig().WeightScale
	}
	if cfg.DefaultRating <= 0 {
		cfg.DefaultRating = DefaultAugmentConfig().DefaultRating
	}

	externalIDs := make([]string, 0, len(books))
	for _, b := range books {
		if b.ID == "" || g.HasNode(b.ID) {
			continue
		}
		rating := b.Rating
		if rating == 0 {
			rating = cfg.DefaultRating
		}
		node := &Node{
			ID:       b.ID,
			Title:    b.Title,
			Rating:   rating,
			External: true,
		}
		if b.Author != "" {
			node.Authors = []string{b.Author}
		}
		_ = g.AddNode(node)
		externalIDs = append(externalIDs, b.ID)
		nodesAdded++
	}

	seedIDs := g.SeedIDs()
	if len(seedIDs) == 0 || len(externalIDs) == 0 {
		return nodesAdded, 0
	}

	// Text features over the combined vocabulary; IDF over this small
	// document set is enough to damp stop-word-like tokens.
	docs := make(map[string][]string, len(seedIDs)+len(externalIDs))
	for _, id := range append(append([]string(nil), seedIDs...), externalIDs...) {
		docs[id] = nodeTextFeatures(g.Node(id))
	}
	vectors := tfidfVectors(docs)

	for _, sid := range seedIDs {
		for _, eid := range externalIDs {
			sim := sparseCosine(vectors[sid], vectors[eid])
			if sim <= cfg.MinSimilarity {
				continue
			}
			if g.EdgeBetween(sid, eid) != nil {
				continue
			}
			weight := math.Max(1, sim*cfg.WeightScale)
			if _, err := g.AddEdge(sid, eid, weight); err == nil {
				edgesAdded++
			}
		}
	}

	return nodesAdded, edgesAdded
}

// nodeTextFeatures tokenizes a node's title, authors and genres.
func nodeTextFeatures(n *Node) []string {
	if n == nil {
		return nil
	}
	parts := []string{n.Title}
	parts = append(parts, n.Authors...)
	parts = append(parts, n.Genres...)
	return strings.Fields(strings.ToLower(strings.Join(parts, " ")))
}

// tfidfVectors computes sparse TF-IDF vectors for the given documents.
func tfidfVectors(docs map[string][]string) map[string]map[string]float64 {
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	total := float64(len(docs))
	vectors := make(map[string]map[string]float64, len(docs))
	for id, tokens := range docs {
		tf := make(map[string]float64)
		for _, tok := range tokens {
			tf[tok]++
		}
		vec := make(map[string]float64, len(tf))
		for tok, count := range tf {
			idf := math.Log(total/float64(df[tok])) + 1
			vec[tok] = count * idf
		}
		vectors[id] = vec
	}
	return vectors
}

// sparseCosine computes the cosine similarity of two sparse vectors.
func sparseCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for tok, av := range a {
		if bv, ok := b[tok]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
