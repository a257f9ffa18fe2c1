package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/viterin/vek/vek32"

	"pdfqa/internal/ai"
	"pdfqa/models"
)

var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// SemanticSplitter groups consecutive sentences into chunks, starting a new
// chunk wherever the embedding distance between neighbouring sentence
// windows is above the configured percentile.
type SemanticSplitter struct {
	embedder             ai.Embedder
	BufferSize           int
	BreakpointPercentile float64
}

func NewSemanticSplitter(embedder ai.Embedder, bufferSize int, percentile float64) *SemanticSplitter {
	return &SemanticSplitter{
		embedder:             embedder,
		BufferSize:           bufferSize,
		BreakpointPercentile: percentile,
	}
}

// Split chunks every document. Source and UUID come from meta, the page
// from each document. Chunks carry no embedding yet.
func (s *SemanticSplitter) Split(ctx context.Context, docs []models.Document, meta models.ChunkMetadata) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, doc := range docs {
		groups, err := s.splitText(ctx, doc.Text)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", doc.Page, err)
		}
		for _, text := range groups {
			m := meta
			m.Page = doc.Page
			chunks = append(chunks, models.Chunk{
				ID:       uuid.NewString(),
				Text:     text,
				Metadata: m,
			})
		}
	}
	return chunks, nil
}

func (s *SemanticSplitter) splitText(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sentences := splitSentences(text)
	if len(sentences) == 1 {
		return []string{strings.TrimSpace(sentences[0])}, nil
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, combineSentences(sentences, s.BufferSize))
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(sentences) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(sentences), len(embeddings))
	}

	distances := make([]float64, len(sentences)-1)
	for i := range distances {
		distances[i] = 1 - float64(vek32.CosineSimilarity(embeddings[i], embeddings[i+1]))
	}
	threshold := percentile(distances, s.BreakpointPercentile)

	var groups []string
	start := 0
	for i, d := range distances {
		if d > threshold {
			groups = appendGroup(groups, sentences[start:i+1])
			start = i + 1
		}
	}
	if start < len(sentences) {
		groups = appendGroup(groups, sentences[start:])
	}
	return groups, nil
}

func appendGroup(groups []string, sentences []string) []string {
	text := strings.TrimSpace(strings.Join(sentences, ""))
	if text == "" {
		return groups
	}
	return append(groups, text)
}

// splitSentences cuts after runs of . ! or ? followed by whitespace. The
// terminator and trailing whitespace stay with the sentence so joining the
// pieces reproduces the input.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// combineSentences returns, for each sentence, the sentence joined with up
// to buffer neighbours on each side.
func combineSentences(sentences []string, buffer int) []string {
	combined := make([]string, len(sentences))
	for i := range sentences {
		lo := max(i-buffer, 0)
		hi := min(i+buffer+1, len(sentences))
		combined[i] = strings.Join(sentences[lo:hi], "")
	}
	return combined
}

// percentile uses linear interpolation between closest ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
