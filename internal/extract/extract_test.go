package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_FencedAndBareAreEquivalent(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"bare json", `{"a": 1}`},
		{"fence with language hint", "```json\n{\"a\": 1}\n```"},
		{"fence without hint", "```\n{\"a\": 1}\n```"},
		{"surrounding whitespace", "\n\n  {\"a\": 1}  \n"},
		{"fence without newline", "```json{\"a\": 1}```"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Document(tc.text)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"a": float64(1)}, doc)
		})
	}
}

func TestDocument_MalformedTextFails(t *testing.T) {
	_, err := Document("not json at all")
	require.Error(t, err)

	var malformed *ErrMalformed
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "not json at all", malformed.Snippet)
}

func TestDocument_SnippetIsTruncated(t *testing.T) {
	long := "garbage " + strings.Repeat("x", 2000)

	_, err := Document(long)

	var malformed *ErrMalformed
	require.ErrorAs(t, err, &malformed)
	assert.Len(t, malformed.Snippet, 500)
}

func TestStripFence_OnlyOneLayerRemoved(t *testing.T) {
	nested := "```json\n```json\n{\"a\":1}\n```\n```"
	inner := StripFence(nested)
	assert.True(t, strings.HasPrefix(inner, "```json"), "inner fence must survive")
}

func TestCandidates_ListAndSiblings(t *testing.T) {
	doc, err := Document(`{
		"needs_clarification": false,
		"clarifying_question": null,
		"matches": [
			{"code": "11-1011.00", "title": "Chief Executives", "confidence": 85},
			{"code": "11-1021.00", "title": "General Managers", "confidence": 60}
		]
	}`)
	require.NoError(t, err)

	list := Candidates(doc, "matches", "code")

	require.Len(t, list.Entries, 2)
	assert.Equal(t, "11-1011.00", list.Entries[0].Ref)
	assert.Equal(t, "Chief Executives", list.Entries[0].Fields["title"])
	assert.Equal(t, false, list.Extra["needs_clarification"])
	assert.NotContains(t, list.Extra, "matches")
}

func TestCandidates_MissingListIsEmptyNotError(t *testing.T) {
	doc := map[string]any{
		"needs_clarification": true,
		"clarifying_question": "What do you do day to day?",
	}

	list := Candidates(doc, "matches", "code")

	assert.Empty(t, list.Entries)
	assert.Equal(t, true, list.Extra["needs_clarification"])
}

func TestCandidates_EntryWithoutRefKeptWithEmptyRef(t *testing.T) {
	doc := map[string]any{
		"matches": []any{
			map[string]any{"title": "no code here"},
		},
	}

	list := Candidates(doc, "matches", "code")

	require.Len(t, list.Entries, 1)
	assert.Empty(t, list.Entries[0].Ref)
}
