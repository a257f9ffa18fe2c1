package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.opentelemetry.io/otel/attribute"

	"pdfqa/internal/logger"
	"pdfqa/models"
	"pdfqa/utils"
)

// ErrNoText is returned when a PDF has no extractable text on any page.
var ErrNoText = errors.New("text could not be extracted from the PDF, it might be corrupted or empty")

// PDFExtractor reads the text layer of a PDF page by page. Scanned pages
// come back empty; there is no OCR fallback.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// readPage is swapped in tests.
var readPage = pageText

// Extract returns one document per page, in page order. A malformed page
// tree that makes the reader panic is reported as an extraction error.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (docs []models.Document, err error) {
	ctx, span := tracer.Start(ctx, "pdf.extract")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("pdf reader panicked", "path", path, "panic", r)
			docs = nil
			err = utils.NewError(utils.KindExtraction, "extract", fmt.Errorf("malformed pdf: %v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, utils.NewError(utils.KindExtraction, "open pdf", err)
	}
	defer f.Close()

	pages := reader.NumPage()
	docs = make([]models.Document, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, utils.NewError(utils.KindExtraction, "extract", err)
		}
		docs = append(docs, models.Document{Text: readPage(reader, i), Page: i})
	}
	span.SetAttributes(attribute.Int("pdf.pages", len(docs)))

	if len(docs) == 0 {
		return nil, utils.NewError(utils.KindExtraction, "extract", ErrNoText)
	}
	for _, d := range docs {
		if strings.TrimSpace(d.Text) != "" {
			return docs, nil
		}
	}
	return nil, utils.NewError(utils.KindExtraction, "extract", ErrNoText)
}

func pageText(reader *pdf.Reader, n int) string {
	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}

	// nil makes the reader load the page's own font encodings
	text, err := page.GetPlainText(nil)
	if err != nil {
		logger.Warn("failed to extract page text", "page", n, "error", err)
		return ""
	}
	return text
}
