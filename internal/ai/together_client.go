package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// TogetherClient streams chat completions from an OpenAI-compatible API
// such as Together.
type TogetherClient struct {
	apiBase     string
	apiKey      string
	model       string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func NewTogetherClient(apiBase, apiKey, model string, limiter *rate.Limiter) *TogetherClient {
	return &TogetherClient{
		apiBase:     strings.TrimRight(apiBase, "/"),
		apiKey:      apiKey,
		model:       model,
		client:      &http.Client{}, // streaming responses; no client-side timeout
		breaker:     newBreaker("TogetherAPI"),
		rateLimiter: limiter,
	}
}

func (tc *TogetherClient) Name() string { return "together/" + tc.model }

func (tc *TogetherClient) Stream(ctx context.Context, req CompletionRequest) (<-chan Delta, error) {
	if err := tc.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: tc.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, err
	}

	result, err := tc.breaker.Execute(func() (interface{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.apiBase+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Authorization", "Bearer "+tc.apiKey)

		resp, err := tc.client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("completion request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, msg)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp := result.(*http.Response)

	out := make(chan Delta)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		if err := readEventStream(ctx, resp.Body, out); err != nil {
			send(ctx, out, Delta{Err: err})
		}
	}()
	return out, nil
}

// readEventStream forwards the content deltas of an SSE chat stream.
func readEventStream(ctx context.Context, r io.Reader, out chan<- Delta) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return nil
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if !send(ctx, out, Delta{Text: chunk.Choices[0].Delta.Content}) {
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
