package services

import (
	"context"
	"fmt"
)

// Embedder turns text into a vector for reference search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ReferenceRetriever fetches rate-card context for the analysis prompt.
type ReferenceRetriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

type referenceRetriever struct {
	embedder Embedder
	store    ReferenceStore
	limit    int
}

func NewReferenceRetriever(embedder Embedder, store ReferenceStore, limit int) ReferenceRetriever {
	if limit <= 0 {
		limit = 3
	}
	return &referenceRetriever{
		embedder: embedder,
		store:    store,
		limit:    limit,
	}
}

// Retrieve implements ReferenceRetriever.
func (r *referenceRetriever) Retrieve(ctx context.Context, query string) (string, error) {
	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := r.store.SearchSimilar(ctx, embedding, ReferenceKindRateCard, r.limit)
	if err != nil {
		return "", fmt.Errorf("failed to search references: %w", err)
	}

	return FormatReferenceContext(results), nil
}
