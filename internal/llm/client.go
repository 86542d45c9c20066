package llm

import (
	"context"
	"errors"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cubicleally/ai-gateway/internal/config"
)

// Request is one stateless (system instructions, user message) exchange.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Completion carries the raw response text and the token usage counters
// exactly as reported by the upstream service. Token counts are never
// estimated locally; they are the unit quota protection and usage records
// are denominated in.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client is the protocol boundary to the external model service.
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Model() string
}

// OpenAIClient sends chat completions through the OpenAI-compatible API.
// One synchronous request per call, no internal retry: retry policy belongs
// to the caller.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	apiKey  string
	breaker *Breaker
}

func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	if cfg.APIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set, AI calls will fail")
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		breaker: NewBreaker(5, 30*time.Second),
	}
}

func (c *OpenAIClient) Model() string {
	return c.model
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	})
	if err != nil {
		classified := classify(err)
		if countsAsOutage(classified) {
			c.breaker.Record(classified)
		}
		return nil, classified
	}
	c.breaker.Record(nil)

	if len(resp.Choices) == 0 {
		return nil, &UpstreamError{StatusCode: 200, Message: "response contained no choices"}
	}

	return &Completion{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// classify maps SDK errors onto the gateway error taxonomy: a response from
// the service is an upstream error, anything before that is transport.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}

	return &TransportError{Err: err}
}

// countsAsOutage reports whether a failure should trip the breaker. Client
// mistakes (4xx other than 429) say nothing about upstream health.
func countsAsOutage(err error) bool {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode >= 500 || upstream.StatusCode == 429
	}

	var transport *TransportError
	return errors.As(err, &transport)
}
