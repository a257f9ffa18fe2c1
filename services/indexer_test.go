package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/testutil"
	"pdfqa/internal/vectorstore"
	"pdfqa/models"
	"pdfqa/utils"
)

type pipeline struct {
	embedder  *testutil.FakeEmbedder
	completer *testutil.FakeCompleter
	registry  *vectorstore.Registry
	indexer   *Indexer
	retriever *Retriever
	generator *AnswerGenerator
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	store, err := vectorstore.NewLocalStore("")
	require.NoError(t, err)

	p := &pipeline{
		embedder:  testutil.NewFakeEmbedder(),
		completer: &testutil.FakeCompleter{Fallback: FallbackAnswer},
		registry:  vectorstore.NewRegistry(store),
	}
	p.indexer = NewIndexer(NewSemanticSplitter(p.embedder, 1, 95), p.embedder, p.registry)
	p.retriever = NewRetriever(p.embedder, p.registry, DefaultTopK)
	p.generator = NewAnswerGenerator(p.retriever, p.completer, DefaultTopK)
	return p
}

func (p *pipeline) count(t *testing.T, owner string) int {
	t.Helper()
	coll, err := p.registry.GetOrCreate(context.Background(), owner)
	require.NoError(t, err)
	n, err := coll.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestIndexStoresEmbeddedChunks(t *testing.T) {
	p := newPipeline(t)
	docs := []models.Document{
		{Page: 1, Text: "Photosynthesis converts light into energy."},
		{Page: 2, Text: "Mitochondria produce ATP."},
	}

	n, err := p.indexer.Index(context.Background(), docs, "alice", "bio.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, p.count(t, "alice"))

	hits, err := p.retriever.Retrieve(context.Background(), "mitochondria ATP", "alice", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.NotEmpty(t, hits[0].Embedding)
	assert.Equal(t, models.ChunkMetadata{Source: "bio.pdf", UUID: "alice", Page: 2}, hits[0].Metadata)
}

func TestIndexTwiceDuplicatesChunks(t *testing.T) {
	p := newPipeline(t)
	docs := []models.Document{{Page: 1, Text: "Same content every time."}}

	first, err := p.indexer.Index(context.Background(), docs, "alice", "same.pdf")
	require.NoError(t, err)
	second, err := p.indexer.Index(context.Background(), docs, "alice", "same.pdf")
	require.NoError(t, err)

	assert.Equal(t, first+second, p.count(t, "alice"))
}

func TestIndexRequiresOwner(t *testing.T) {
	p := newPipeline(t)
	_, err := p.indexer.Index(context.Background(), []models.Document{{Page: 1, Text: "x"}}, "", "a.pdf")
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestIndexEmbeddingFailureIsIndexingError(t *testing.T) {
	p := newPipeline(t)
	p.embedder.Err = errors.New("embedding service unavailable")

	_, err := p.indexer.Index(context.Background(), []models.Document{{Page: 1, Text: "Some text."}}, "alice", "a.pdf")
	require.Error(t, err)
	assert.Equal(t, utils.KindIndexing, utils.KindOf(err))
	assert.ErrorContains(t, err, "embedding service unavailable")
}

func TestIndexRejectsPathLikeOwner(t *testing.T) {
	p := newPipeline(t)
	docs := []models.Document{{Page: 1, Text: "Some text."}}

	_, err := p.indexer.Index(context.Background(), docs, "../../escaped", "f.pdf")
	require.Error(t, err)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
	assert.ErrorIs(t, err, vectorstore.ErrInvalidOwner)
	assert.Zero(t, p.embedder.Calls())
}
