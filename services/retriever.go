package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"pdfqa/internal/ai"
	"pdfqa/internal/vectorstore"
	"pdfqa/models"
	"pdfqa/utils"
)

// DefaultTopK is the number of chunks used as answer context.
const DefaultTopK = 2

// Retriever finds the chunks of one owner closest to a query.
type Retriever struct {
	embedder    ai.Embedder
	registry    *vectorstore.Registry
	defaultTopK int
}

func NewRetriever(embedder ai.Embedder, registry *vectorstore.Registry, defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Retriever{embedder: embedder, registry: registry, defaultTopK: defaultTopK}
}

// Retrieve returns at most topK chunks owned by owner, most similar first.
// A non-positive topK uses the retriever's default.
func (r *Retriever) Retrieve(ctx context.Context, query, owner string, topK int) ([]models.ScoredChunk, error) {
	if owner == "" {
		return nil, utils.NewError(utils.KindValidation, "retrieve", errors.New("uuid is required"))
	}
	if err := vectorstore.ValidateOwner(owner); err != nil {
		return nil, utils.NewError(utils.KindValidation, "retrieve", err)
	}
	if topK <= 0 {
		topK = r.defaultTopK
	}

	ctx, span := tracer.Start(ctx, "qa.retrieve")
	defer span.End()

	coll, err := r.registry.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, utils.NewError(utils.KindRetrieval, "open collection", err)
	}
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, utils.NewError(utils.KindRetrieval, "embed query", err)
	}
	hits, err := coll.Query(ctx, vector, vectorstore.Filter{UUID: owner}, topK)
	if err != nil {
		return nil, utils.NewError(utils.KindRetrieval, "query collection", err)
	}
	span.SetAttributes(attribute.Int("qa.hits", len(hits)))
	return hits, nil
}
