package extract

// Payload shapes are a small closed set rather than one untyped map, so the
// guardrail can match on them exhaustively. A response is either a single
// object (e.g. an enhanced accomplishment) or a named list of candidate
// entries, each claiming a reference identifier (e.g. occupation matches).

// Entry is one candidate from a list-shaped response. Ref is the reference
// identifier the model claims; only the guardrail decides whether to trust
// it. Fields keeps the entry's other attributes as returned.
type Entry struct {
	Ref    string
	Fields map[string]any
}

// CandidateList is the list-shaped payload variant. Extra carries sibling
// fields outside the list, such as a clarifying question or a
// needs-more-input flag.
type CandidateList struct {
	Entries []Entry
	Extra   map[string]any
}

// Candidates reshapes a parsed document into a CandidateList, reading the
// list from listField and each entry's reference identifier from refField.
// A missing or empty list yields zero entries, not an error: the sibling
// fields may be the whole answer (e.g. needs_clarification=true).
func Candidates(doc map[string]any, listField, refField string) *CandidateList {
	result := &CandidateList{Extra: make(map[string]any)}

	for key, value := range doc {
		if key != listField {
			result.Extra[key] = value
		}
	}

	raw, ok := doc[listField].([]any)
	if !ok {
		return result
	}

	for _, item := range raw {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ref, _ := fields[refField].(string)
		result.Entries = append(result.Entries, Entry{Ref: ref, Fields: fields})
	}

	return result
}
