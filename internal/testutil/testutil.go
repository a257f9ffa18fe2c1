// Package testutil provides deterministic providers and PDF fixtures for
// tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"pdfqa/internal/ai"
)

const dims = 512

// FakeEmbedder maps each distinct lower-cased word to its own dimension, so
// texts sharing words are similar and texts sharing none are orthogonal
// apart from a small common bias.
type FakeEmbedder struct {
	mu    sync.Mutex
	vocab map[string]int
	calls int

	// Err, when set, is returned by every call.
	Err error
}

func NewFakeEmbedder() *FakeEmbedder {
	return &FakeEmbedder{vocab: make(map[string]int)}
}

func (e *FakeEmbedder) Name() string { return "fake/bag-of-words" }

// Calls counts EmbedDocuments and EmbedQuery invocations.
func (e *FakeEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *FakeEmbedder) embed(text string) []float32 {
	v := make([]float32, dims+1)
	v[dims] = 0.01
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		idx, ok := e.vocab[w]
		if !ok {
			idx = len(e.vocab) % dims
			e.vocab[w] = idx
		}
		v[idx]++
	}
	return v
}

func (e *FakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *FakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// FakeCompleter answers with the prompt's context, or Fallback when the
// context is empty. It streams one word per delta.
type FakeCompleter struct {
	Fallback string
	// FailAt sends an error delta instead of the word at this index.
	FailAt int
	// StartErr fails Stream before any delta.
	StartErr error

	mu   sync.Mutex
	last ai.CompletionRequest
}

func (c *FakeCompleter) Name() string { return "fake/echo" }

func (c *FakeCompleter) Stream(ctx context.Context, req ai.CompletionRequest) (<-chan ai.Delta, error) {
	c.mu.Lock()
	c.last = req
	c.mu.Unlock()
	if c.StartErr != nil {
		return nil, c.StartErr
	}

	answer := c.Fallback
	if ctxText := promptContext(req.Prompt); ctxText != "" {
		answer = "According to the document: " + ctxText
	}

	out := make(chan ai.Delta)
	go func() {
		defer close(out)
		for i, w := range strings.Fields(answer) {
			d := ai.Delta{Text: w + " "}
			if c.FailAt > 0 && i == c.FailAt {
				d = ai.Delta{Err: errors.New("provider connection reset")}
			}
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
			if d.Err != nil {
				return
			}
		}
	}()
	return out, nil
}

// LastRequest returns the most recent request passed to Stream.
func (c *FakeCompleter) LastRequest() ai.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func promptContext(prompt string) string {
	_, rest, ok := strings.Cut(prompt, "Context (from the PDF):\n")
	if !ok {
		return ""
	}
	ctxText, _, _ := strings.Cut(rest, "\n\nUser input:")
	return strings.TrimSpace(ctxText)
}

// WritePDF writes a PDF with one Helvetica text line per page. An empty
// string produces a page without any text.
func WritePDF(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))

		content := ""
		if text != "" {
			escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
			content = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", escaped)
		}
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}
