package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pdfqa/internal/config"
)

// CompletionRequest is a single-turn chat completion.
type CompletionRequest struct {
	System string
	Prompt string
}

// Delta is one streamed fragment. A non-nil Err ends the stream.
type Delta struct {
	Text string
	Err  error
}

// Completer streams a completion as a channel of deltas. The channel is
// closed when the provider finishes, fails, or ctx is cancelled.
type Completer interface {
	Name() string
	Stream(ctx context.Context, req CompletionRequest) (<-chan Delta, error)
}

// NewCompleter returns the completion provider selected by LLM_PROVIDER.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	limiter := newRateLimiter(cfg.LLMRequestsPerMinute)

	switch cfg.LLMProvider {
	case config.LLMGemini, "":
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, limiter)
	case config.LLMTogether:
		return NewTogetherClient(cfg.TogetherAPIBase, cfg.TogetherAPIKey, cfg.TogetherModel, limiter), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}
}

// newRateLimiter allows rpm requests per minute with a small burst.
func newRateLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := max(rpm/10, 1)
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// newBreaker trips after repeated provider failures. It never retries;
// while open, calls fail fast with gobreaker.ErrOpenState.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// countsAsSuccess treats caller cancellation as a non-failure.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// send delivers d unless ctx is done. It reports whether the consumer is
// still listening.
func send(ctx context.Context, out chan<- Delta, d Delta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
