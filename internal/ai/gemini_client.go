package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client      *genai.Client
	model       string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewGeminiClient(ctx context.Context, apiKey, model string, limiter *rate.Limiter) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		breaker:     newBreaker("GeminiAPI"),
		rateLimiter: limiter,
	}, nil
}

func (gc *GeminiClient) Name() string { return "gemini/" + gc.model }

func (gc *GeminiClient) Stream(ctx context.Context, req CompletionRequest) (<-chan Delta, error) {
	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if gc.breaker.State() == gobreaker.StateOpen {
		return nil, fmt.Errorf("gemini unavailable: %w", gobreaker.ErrOpenState)
	}

	model := gc.client.GenerativeModel(gc.model)
	model.SetTemperature(0.1)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}

	out := make(chan Delta)
	go func() {
		defer close(out)

		tracer := otel.Tracer("gemini-client")
		ctx, span := tracer.Start(ctx, "gemini.generate_content_stream")
		defer span.End()
		span.SetAttributes(attribute.String("gemini.model", gc.model))

		fragments := 0
		_, err := gc.breaker.Execute(func() (interface{}, error) {
			iter := model.GenerateContentStream(ctx, genai.Text(req.Prompt))
			for {
				resp, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				for _, text := range responseText(resp) {
					fragments++
					if !send(ctx, out, Delta{Text: text}) {
						// consumer went away
						return nil, nil
					}
				}
			}
		})
		span.SetAttributes(attribute.Int("gemini.fragments", fragments))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			send(ctx, out, Delta{Err: fmt.Errorf("gemini stream: %w", err)})
		}
	}()

	return out, nil
}

// responseText returns the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			parts = append(parts, string(txt))
		}
	}
	return parts
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
