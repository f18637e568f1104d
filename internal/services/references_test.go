package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err     error
	queries []string
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeStore struct {
	ReferenceStore
	results []SearchResult
	kind    string
	limit   int
}

func (f *fakeStore) SearchSimilar(_ context.Context, _ []float32, kind string, limit int) ([]SearchResult, error) {
	f.kind = kind
	f.limit = limit
	return f.results, nil
}

func TestReferenceRetrieverFormatsResults(t *testing.T) {
	store := &fakeStore{results: []SearchResult{
		{Score: 0.91, Text: "  美食帳號 1 萬粉絲貼文約 NT$3,000  "},
		{Score: 0.5, Text: "限動約為貼文的三成"},
	}}
	embedder := &fakeEmbedder{}

	refs, err := NewReferenceRetriever(embedder, store, 0).Retrieve(context.Background(), "美食 IG pricing")
	require.NoError(t, err)

	assert.Equal(t, []string{"美食 IG pricing"}, embedder.queries)
	assert.Equal(t, ReferenceKindRateCard, store.kind)
	assert.Equal(t, 3, store.limit)
	assert.Equal(t,
		"--- 參考 1 (相似度 0.91) ---\n美食帳號 1 萬粉絲貼文約 NT$3,000\n\n--- 參考 2 (相似度 0.50) ---\n限動約為貼文的三成",
		refs)
}

func TestReferenceRetrieverEmpty(t *testing.T) {
	refs, err := NewReferenceRetriever(&fakeEmbedder{}, &fakeStore{}, 5).Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestReferenceRetrieverEmbeddingError(t *testing.T) {
	_, err := NewReferenceRetriever(&fakeEmbedder{err: errors.New("quota")}, &fakeStore{}, 5).Retrieve(context.Background(), "q")
	assert.ErrorContains(t, err, "quota")
}

func TestReferenceChunkPointIDStable(t *testing.T) {
	a := ReferenceChunk{Source: "rates-2025", Index: 2}
	b := ReferenceChunk{Source: "rates-2025", Index: 2, Text: "changed"}
	c := ReferenceChunk{Source: "rates-2025", Index: 3}

	assert.Equal(t, a.PointID(), b.PointID())
	assert.NotEqual(t, a.PointID(), c.PointID())
}
