// Package extract turns raw model responses into structured payloads.
// Responses are untrusted free-form text: they may wrap the JSON document in
// a markdown code fence, and they may not contain valid JSON at all.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

const snippetLimit = 500

// ErrMalformed means no structured payload could be parsed from a response.
// Snippet holds at most the first 500 characters of the offending text; the
// full response is never attached to the error or logged.
type ErrMalformed struct {
	Snippet string
	Err     error
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("extract: response is not valid JSON: %v (starts with: %q)", e.Err, e.Snippet)
}

func (e *ErrMalformed) Unwrap() error {
	return e.Err
}

// StripFence removes exactly one markdown code fence wrapping, tolerating a
// language hint after the opening fence and the case where no fence is
// present.
func StripFence(text string) string {
	trimmed := strings.TrimSpace(text)

	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line, language hint included.
	rest := trimmed[3:]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[idx+1:]
	} else {
		// Opening fence with no newline: "```json{...}```" style.
		rest = strings.TrimPrefix(rest, "json")
	}

	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")

	return strings.TrimSpace(rest)
}

// Document parses a response as one JSON object, unwrapping a markdown fence
// first if present. There is no best-guess recovery: anything unparsable is
// an ErrMalformed.
func Document(text string) (map[string]any, error) {
	content := StripFence(text)

	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, &ErrMalformed{Snippet: snippet(content), Err: err}
	}

	return doc, nil
}

func snippet(text string) string {
	if len(text) > snippetLimit {
		return text[:snippetLimit]
	}
	return text
}
