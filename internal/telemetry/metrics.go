package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the application instruments. They record into the global
// meter provider, which is a no-op unless one is installed.
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	PDFProcessingTime metric.Float64Histogram
	ChunksIndexed     metric.Int64Counter
	QuestionsAnswered metric.Int64Counter
	AnswerDuration    metric.Float64Histogram
}

// InitMetrics creates all application instruments.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(ServiceName)

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	pdfProcessingTime, err := meter.Float64Histogram(
		"pdf.processing.duration",
		metric.WithDescription("Upload to indexed duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"pdf.chunks.indexed",
		metric.WithDescription("Chunks written to the vector store"),
	)
	if err != nil {
		return nil, err
	}

	questionsAnswered, err := meter.Int64Counter(
		"qa.questions.total",
		metric.WithDescription("Questions answered"),
	)
	if err != nil {
		return nil, err
	}

	answerDuration, err := meter.Float64Histogram(
		"qa.answer.duration",
		metric.WithDescription("Retrieve and generate duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		PDFProcessingTime: pdfProcessingTime,
		ChunksIndexed:     chunksIndexed,
		QuestionsAnswered: questionsAnswered,
		AnswerDuration:    answerDuration,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordPDFProcessing records one upload with its outcome.
func (m *Metrics) RecordPDFProcessing(ctx context.Context, duration float64, status string, chunks int) {
	m.PDFProcessingTime.Record(ctx, duration, metric.WithAttributes(attribute.String("pdf.status", status)))
	if chunks > 0 {
		m.ChunksIndexed.Add(ctx, int64(chunks))
	}
}

func (m *Metrics) RecordAnswer(ctx context.Context, duration float64, status string) {
	attrs := metric.WithAttributes(attribute.String("qa.status", status))
	m.QuestionsAnswered.Add(ctx, 1, attrs)
	m.AnswerDuration.Record(ctx, duration, attrs)
}
