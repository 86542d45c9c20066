package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubicleally/ai-gateway/internal/extract"
)

func entries(refs ...string) []extract.Entry {
	out := make([]extract.Entry, 0, len(refs))
	for _, ref := range refs {
		out = append(out, extract.Entry{Ref: ref, Fields: map[string]any{"code": ref}})
	}
	return out
}

func TestFilterList_DropsUnknownRefsPreservingOrder(t *testing.T) {
	whitelist := Whitelist{"X1": "one", "X3": "three"}

	kept := FilterList(entries("X1", "X2", "X3"), whitelist)

	require.Len(t, kept, 2)
	assert.Equal(t, "X1", kept[0].Ref)
	assert.Equal(t, "X3", kept[1].Ref)
}

func TestFilterList_AllHallucinatedYieldsEmpty(t *testing.T) {
	kept := FilterList(entries("A", "B"), Whitelist{"X": nil})
	assert.Empty(t, kept)
}

func TestFilterList_EmptyRefNeverMatches(t *testing.T) {
	kept := FilterList(entries(""), Whitelist{"X": nil})
	assert.Empty(t, kept)
}

func TestFilterAndEnrich_AttachesCatalogRecord(t *testing.T) {
	type occupation struct{ Title string }
	whitelist := Whitelist{"11-1011.00": occupation{Title: "Chief Executives"}}

	input := []extract.Entry{{
		Ref:    "11-1011.00",
		Fields: map[string]any{"occupation_code": "11-1011.00", "title": "Made Up Title"},
	}}

	kept := FilterAndEnrich(input, whitelist, "occupation")

	require.Len(t, kept, 1)
	assert.Equal(t, occupation{Title: "Chief Executives"}, kept[0].Fields["occupation"])
	// Model-supplied fields survive but the input entry was not mutated.
	assert.Equal(t, "Made Up Title", kept[0].Fields["title"])
	assert.NotContains(t, input[0].Fields, "occupation")
}

func TestContains(t *testing.T) {
	whitelist := Whitelist{"X1": nil}
	assert.True(t, whitelist.Contains("X1"))
	assert.False(t, whitelist.Contains("X2"))
}
