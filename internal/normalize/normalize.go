package normalize

import (
	"bytes"
	"encoding/json"
)

// nameFields is the preference order of object fields that may carry the
// name. The first field holding a non-empty string wins.
var nameFields = []string{"name", "text", "value", "suggestion"}

// Page is the normalized view of one autocomplete response.
type Page struct {
	// Names are the name strings extracted from the payload, in response
	// order. Duplicates within a page are possible; the explorer owns
	// cross-page deduplication.
	Names []string

	// Candidates is the raw candidate count before extraction. The
	// truncation heuristic compares this count, not len(Names), against
	// the page limit: an item we fail to extract still occupied a slot.
	Candidates int

	// Full reports whether the page reached the configured limit, the
	// completeness heuristic. A page at the cap may or may not hide more
	// data; the crawl assumes it does and keeps expanding.
	Full bool
}

// Normalize maps a heterogeneous response payload into a flat list of name
// strings and reports whether the page was full.
//
// The endpoint has been observed answering in several shapes:
//
//	["alice", "bob"]
//	[{"name": "alice"}, {"text": "bob"}]
//	{"results": ["alice", "bob"]}
//	{"results": [{"value": "alice"}]}
//
// Unrecognized items are skipped defensively rather than failing the whole
// prefix. Normalize holds no cross-call state.
func Normalize(payload json.RawMessage, limit int) Page {
	candidates := candidateList(payload)

	page := Page{
		Names:      make([]string, 0, len(candidates)),
		Candidates: len(candidates),
		Full:       limit > 0 && len(candidates) >= limit,
	}

	for _, item := range candidates {
		if name, ok := extractName(item); ok {
			page.Names = append(page.Names, name)
		}
	}

	return page
}

// Count extracts the result count used by version discovery: an explicit
// "count" field when present and non-zero, otherwise the candidate-list
// length.
func Count(payload json.RawMessage) int {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return 0
	}

	if trimmed[0] == '{' {
		var env struct {
			Count   int               `json:"count"`
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return 0
		}
		if env.Count != 0 {
			return env.Count
		}
		return len(env.Results)
	}

	return len(candidateList(trimmed))
}

// candidateList pulls the raw candidate items out of the payload: the
// "results" field of an object (default empty), or the payload itself
// when it is an array. Anything else yields no candidates.
func candidateList(payload json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var env struct {
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil
		}
		return env.Results
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
		return items
	default:
		return nil
	}
}

// extractName pulls a name out of one candidate item: a plain string is
// taken verbatim, an object yields the first populated field in the
// preference order. Everything else is skipped.
func extractName(item json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) == 0 {
		return "", false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return "", false
		}
		for _, field := range nameFields {
			raw, ok := fields[field]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil || s == "" {
				continue
			}
			return s, true
		}
		return "", false
	default:
		return "", false
	}
}
