package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/testutil"
	"pdfqa/models"
)

func TestSplitSentences(t *testing.T) {
	text := "Hello there. How are you?  Fine!\nDone"
	got := splitSentences(text)
	assert.Equal(t, []string{"Hello there. ", "How are you?  ", "Fine!\n", "Done"}, got)
	assert.Equal(t, text, strings.Join(got, ""))

	assert.Equal(t, []string{"No terminator here"}, splitSentences("No terminator here"))
}

func TestCombineSentences(t *testing.T) {
	s := []string{"a ", "b ", "c ", "d "}
	assert.Equal(t, []string{"a b ", "a b c ", "b c d ", "c d "}, combineSentences(s, 1))
	assert.Equal(t, s, combineSentences(s, 0))
}

func TestPercentileInterpolates(t *testing.T) {
	assert.InDelta(t, 3.85, percentile([]float64{4, 1, 3, 2}, 95), 1e-9)
	assert.InDelta(t, 2.5, percentile([]float64{1, 2, 3, 4}, 50), 1e-9)
	assert.Equal(t, 7.0, percentile([]float64{7}, 95))
	assert.Equal(t, 0.0, percentile(nil, 95))
}

func TestSplitBreaksOnTopicChange(t *testing.T) {
	splitter := NewSemanticSplitter(testutil.NewFakeEmbedder(), 0, 95)
	doc := models.Document{
		Page: 3,
		Text: "Cats purr softly. Cats purr loudly. Cats purr often. " +
			"Taxes are due in April. Taxes are due yearly. Taxes are due soon.",
	}

	chunks, err := splitter.Split(context.Background(), []models.Document{doc},
		models.ChunkMetadata{Source: "mixed.pdf", UUID: "alice"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Cats purr softly. Cats purr loudly. Cats purr often.", chunks[0].Text)
	assert.Equal(t, "Taxes are due in April. Taxes are due yearly. Taxes are due soon.", chunks[1].Text)
	for _, c := range chunks {
		assert.Equal(t, models.ChunkMetadata{Source: "mixed.pdf", UUID: "alice", Page: 3}, c.Metadata)
		assert.NotEmpty(t, c.ID)
		assert.Nil(t, c.Embedding)
	}
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
}

func TestSplitSkipsBlankAndKeepsSingleSentence(t *testing.T) {
	emb := testutil.NewFakeEmbedder()
	splitter := NewSemanticSplitter(emb, 1, 95)

	chunks, err := splitter.Split(context.Background(), []models.Document{
		{Page: 1, Text: "  \n\t "},
		{Page: 2, Text: "Only one sentence here."},
	}, models.ChunkMetadata{Source: "a.pdf", UUID: "bob"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Only one sentence here.", chunks[0].Text)
	assert.Equal(t, 2, chunks[0].Metadata.Page)
	assert.Zero(t, emb.Calls())
}

func TestSplitPropagatesEmbedderError(t *testing.T) {
	emb := testutil.NewFakeEmbedder()
	emb.Err = errors.New("quota exceeded")
	splitter := NewSemanticSplitter(emb, 1, 95)

	_, err := splitter.Split(context.Background(), []models.Document{{Page: 1, Text: "One. Two."}}, models.ChunkMetadata{})
	assert.ErrorContains(t, err, "quota exceeded")
}
