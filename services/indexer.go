package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"pdfqa/internal/ai"
	"pdfqa/internal/vectorstore"
	"pdfqa/models"
	"pdfqa/utils"
)

var tracer = otel.Tracer("pdfqa/services")

// Indexer splits extracted pages into chunks, embeds them and appends them
// to the owner's collection. Re-indexing the same file appends duplicates.
type Indexer struct {
	splitter *SemanticSplitter
	embedder ai.Embedder
	registry *vectorstore.Registry
}

func NewIndexer(splitter *SemanticSplitter, embedder ai.Embedder, registry *vectorstore.Registry) *Indexer {
	return &Indexer{splitter: splitter, embedder: embedder, registry: registry}
}

// Index stores the chunks of docs for owner and returns how many were added.
func (ix *Indexer) Index(ctx context.Context, docs []models.Document, owner, filename string) (int, error) {
	if owner == "" {
		return 0, utils.NewError(utils.KindValidation, "index", errors.New("uuid is required"))
	}
	if err := vectorstore.ValidateOwner(owner); err != nil {
		return 0, utils.NewError(utils.KindValidation, "index", err)
	}

	ctx, span := tracer.Start(ctx, "pdf.index")
	defer span.End()

	meta := models.ChunkMetadata{Source: filename, UUID: owner}
	chunks, err := ix.splitter.Split(ctx, docs, meta)
	if err != nil {
		return 0, utils.NewError(utils.KindIndexing, "split", err)
	}
	span.SetAttributes(attribute.Int("pdf.chunks", len(chunks)))
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, utils.NewError(utils.KindIndexing, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return 0, utils.NewError(utils.KindIndexing, "embed chunks",
			fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(vectors)))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	coll, err := ix.registry.GetOrCreate(ctx, owner)
	if err != nil {
		return 0, utils.NewError(utils.KindIndexing, "open collection", err)
	}
	if err := coll.Add(ctx, chunks); err != nil {
		return 0, utils.NewError(utils.KindIndexing, "store chunks", err)
	}
	return len(chunks), nil
}
