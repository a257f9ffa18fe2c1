package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, ch <-chan Delta) (string, error) {
	t.Helper()
	var b strings.Builder
	for d := range ch {
		if d.Err != nil {
			return b.String(), d.Err
		}
		b.WriteString(d.Text)
	}
	return b.String(), nil
}

func TestTogetherClientStreamsDeltas(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer tg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Office ", "", "hours are ", "Monday 3-5pm."} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewTogetherClient(srv.URL+"/", "tg-key", "test-model", newRateLimiter(0))
	ch, err := client.Stream(context.Background(), CompletionRequest{System: "sys", Prompt: "question"})
	require.NoError(t, err)

	text, err := collect(t, ch)
	require.NoError(t, err)
	assert.Equal(t, "Office hours are Monday 3-5pm.", text)

	assert.True(t, got.Stream)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "question", got.Messages[1].Content)
}

func TestTogetherClientReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewTogetherClient(srv.URL, "bad", "m", newRateLimiter(0))
	_, err := client.Stream(context.Background(), CompletionRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestReadEventStreamMalformedChunk(t *testing.T) {
	out := make(chan Delta, 4)
	err := readEventStream(context.Background(), strings.NewReader("data: {not json}\n"), out)
	assert.ErrorContains(t, err, "decode stream chunk")
}

func TestNewRateLimiter(t *testing.T) {
	assert.Equal(t, 1, newRateLimiter(0).Burst())
	assert.Equal(t, 6, newRateLimiter(60).Burst())
	assert.Equal(t, 1, newRateLimiter(5).Burst())
}
