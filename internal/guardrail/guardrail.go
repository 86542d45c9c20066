// Package guardrail keeps model output grounded in the system's own
// reference data. The model is free to invent occupations, codes, and
// descriptions; anything not present in the caller-supplied whitelist is
// discarded before it reaches a user.
package guardrail

import (
	"github.com/cubicleally/ai-gateway/internal/extract"
)

// Whitelist maps valid reference identifiers to their full records. It is
// supplied fresh per call by the business layer and never cached here.
type Whitelist map[string]any

func (w Whitelist) Contains(ref string) bool {
	_, ok := w[ref]
	return ok
}

// FilterList retains only entries whose claimed reference identifier is a
// whitelist key, preserving their relative order. Dropped entries are an
// expected occurrence, not an error; an empty result is a legitimate value.
func FilterList(entries []extract.Entry, whitelist Whitelist) []extract.Entry {
	kept := make([]extract.Entry, 0, len(entries))
	for _, entry := range entries {
		if whitelist.Contains(entry.Ref) {
			kept = append(kept, entry)
		}
	}
	return kept
}

// FilterAndEnrich filters like FilterList and additionally attaches the
// whitelist's full record to each survivor under field, so downstream
// consumers read descriptive data from our catalog rather than trusting
// whatever the model wrote. Input entries are not mutated.
func FilterAndEnrich(entries []extract.Entry, whitelist Whitelist, field string) []extract.Entry {
	kept := make([]extract.Entry, 0, len(entries))
	for _, entry := range entries {
		record, ok := whitelist[entry.Ref]
		if !ok {
			continue
		}

		fields := make(map[string]any, len(entry.Fields)+1)
		for k, v := range entry.Fields {
			fields[k] = v
		}
		fields[field] = record

		kept = append(kept, extract.Entry{Ref: entry.Ref, Fields: fields})
	}
	return kept
}
