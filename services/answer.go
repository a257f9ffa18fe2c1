package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"pdfqa/internal/ai"
	"pdfqa/models"
	"pdfqa/utils"
)

// AnswerGenerator answers a question from the owner's top chunks.
type AnswerGenerator struct {
	retriever *Retriever
	completer ai.Completer
	topK      int
}

func NewAnswerGenerator(retriever *Retriever, completer ai.Completer, topK int) *AnswerGenerator {
	return &AnswerGenerator{retriever: retriever, completer: completer, topK: topK}
}

// Answer retrieves context, streams the completion and returns it buffered
// and trimmed, with the metadata of every chunk used in retrieval order.
func (g *AnswerGenerator) Answer(ctx context.Context, question, owner string) (*models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, utils.NewError(utils.KindValidation, "answer", errors.New("question is required"))
	}

	hits, err := g.retriever.Retrieve(ctx, question, owner, g.topK)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(hits))
	sources := make([]models.ChunkMetadata, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
		sources[i] = h.Metadata
	}

	ctx, span := tracer.Start(ctx, "qa.generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.provider", g.completer.Name()))

	stream, err := g.completer.Stream(ctx, ai.CompletionRequest{
		System: SystemPrompt,
		Prompt: BuildPrompt(strings.Join(texts, "\n"), question),
	})
	if err != nil {
		return nil, utils.NewError(utils.KindGeneration, "start completion", err)
	}

	text, err := collectStream(ctx, stream)
	if err != nil {
		return nil, utils.NewError(utils.KindGeneration, "stream completion", err)
	}
	return &models.Answer{Text: text, Sources: sources}, nil
}

// collectStream concatenates deltas in arrival order. It stops at the
// first error delta or when ctx ends.
func collectStream(ctx context.Context, stream <-chan ai.Delta) (string, error) {
	var b strings.Builder
	for {
		select {
		case d, ok := <-stream:
			if !ok {
				return strings.TrimSpace(b.String()), nil
			}
			if d.Err != nil {
				return "", d.Err
			}
			b.WriteString(d.Text)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
