// Package gateway composes rate limiting, the model protocol client,
// response extraction, and usage recording into the per-call AI pipeline:
// check limit → dispatch → extract → record → return.
package gateway

import (
	"context"

	"github.com/cubicleally/ai-gateway/internal/extract"
	"github.com/cubicleally/ai-gateway/internal/identity"
	"github.com/cubicleally/ai-gateway/internal/llm"
	"github.com/cubicleally/ai-gateway/internal/ratelimit"
)

// Recorder is the fire-and-forget audit sink. Implementations must never
// block or fail the caller.
type Recorder interface {
	Record(id identity.Identity, category, inputText string, inputTokens, outputTokens int, model string)
}

type Gateway struct {
	limiter  *ratelimit.Limiter
	client   llm.Client
	recorder Recorder
}

func New(limiter *ratelimit.Limiter, client llm.Client, recorder Recorder) *Gateway {
	return &Gateway{
		limiter:  limiter,
		client:   client,
		recorder: recorder,
	}
}

// Call is one AI invocation on behalf of a caller.
type Call struct {
	Identity    identity.Identity
	Category    string
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Result of a gateway call. A denied call is reported through Decision with
// a nil error; nothing was sent upstream and nothing was recorded.
type Result struct {
	Decision     ratelimit.Decision
	Text         string
	InputTokens  int
	OutputTokens int
}

func (r *Result) Denied() bool {
	return !r.Decision.Allowed
}

// Text runs the pipeline for a plain-text response (e.g. document
// generation). The usage record is written only once the model call is known
// to have happened.
func (g *Gateway) Text(ctx context.Context, call Call) (*Result, error) {
	result, completion, err := g.dispatch(ctx, call)
	if err != nil || result.Denied() {
		return result, err
	}

	g.recorder.Record(call.Identity, result.Decision.Category, call.User,
		completion.InputTokens, completion.OutputTokens, g.client.Model())

	return result, nil
}

// JSONResult additionally carries the parsed document.
type JSONResult struct {
	Result
	Document map[string]any
}

// JSON runs the pipeline for a structured response. Extraction failures
// still produce a usage record: the upstream call happened and its tokens
// were consumed regardless of whether the response parsed.
func (g *Gateway) JSON(ctx context.Context, call Call) (*JSONResult, error) {
	result, completion, err := g.dispatch(ctx, call)
	if err != nil || result.Denied() {
		return &JSONResult{Result: *result}, err
	}

	doc, extractErr := extract.Document(completion.Text)

	g.recorder.Record(call.Identity, result.Decision.Category, call.User,
		completion.InputTokens, completion.OutputTokens, g.client.Model())

	if extractErr != nil {
		return &JSONResult{Result: *result}, extractErr
	}

	return &JSONResult{Result: *result, Document: doc}, nil
}

// dispatch performs the limit check and the upstream call shared by both
// pipelines.
func (g *Gateway) dispatch(ctx context.Context, call Call) (*Result, *llm.Completion, error) {
	decision, err := g.limiter.CheckAndConsume(ctx, call.Identity, call.Category)
	if err != nil {
		return &Result{}, nil, err
	}

	result := &Result{Decision: decision}
	if !decision.Allowed {
		// Denied is a normal outcome, not an error; no model call was made
		// so there is nothing to record.
		return result, nil, nil
	}

	completion, err := g.client.Complete(ctx, llm.Request{
		System:      call.System,
		User:        call.User,
		MaxTokens:   call.MaxTokens,
		Temperature: call.Temperature,
	})
	if err != nil {
		// No token counts are known for protocol failures, so nothing is
		// recorded here either.
		return result, nil, err
	}

	result.Text = completion.Text
	result.InputTokens = completion.InputTokens
	result.OutputTokens = completion.OutputTokens
	return result, completion, nil
}
