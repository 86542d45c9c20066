package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubicleally/ai-gateway/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOpenAIClient(config.AIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL + "/v1",
	})
}

func TestComplete_ReturnsUpstreamUsageCounters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 17, "total_tokens": 59}
		}`))
	})

	completion, err := client.Complete(context.Background(), Request{
		System:    "You are a coach.",
		User:      "Help me.",
		MaxTokens: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", completion.Text)
	assert.Equal(t, 42, completion.InputTokens)
	assert.Equal(t, 17, completion.OutputTokens)
}

func TestComplete_MissingKeyFailsBeforeDialing(t *testing.T) {
	client := NewOpenAIClient(config.AIConfig{Model: "gpt-4o-mini"})

	_, err := client.Complete(context.Background(), Request{User: "hi"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestComplete_NonSuccessIsUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	})

	_, err := client.Complete(context.Background(), Request{User: "hi"})
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
}

func TestComplete_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "down", "type": "server_error"}}`))
	})
	client.breaker = NewBreaker(2, time.Minute)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.Complete(ctx, Request{User: "hi"})
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
	}

	_, err := client.Complete(ctx, Request{User: "hi"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestClassify_ContextDeadlineIsTransport(t *testing.T) {
	err := classify(context.DeadlineExceeded)

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.ErrorIs(t, transport.Err, context.DeadlineExceeded)
}

func TestBreaker_HalfOpenProbeRecovers(t *testing.T) {
	breaker := NewBreaker(1, 10*time.Millisecond)

	breaker.Record(&TransportError{Err: context.DeadlineExceeded})
	assert.ErrorIs(t, breaker.Allow(), ErrCircuitOpen)

	time.Sleep(15 * time.Millisecond)

	// Cooldown elapsed: one probe allowed, success closes the circuit.
	require.NoError(t, breaker.Allow())
	breaker.Record(nil)
	assert.NoError(t, breaker.Allow())
}
