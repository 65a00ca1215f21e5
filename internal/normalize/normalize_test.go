package normalize

import (
	"encoding/json"
	"reflect"
	"testing"
)

// TestNormalize_PayloadShapes covers the response shapes the endpoint has
// been observed to produce.
func TestNormalize_PayloadShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		payload   string
		limit     int
		wantNames []string
		wantFull  bool
	}{
		{
			name:      "bare string array",
			payload:   `["alice","bob"]`,
			limit:     100,
			wantNames: []string{"alice", "bob"},
			wantFull:  false,
		},
		{
			name:      "object wrapping results",
			payload:   `{"results":["alice","bob"]}`,
			limit:     100,
			wantNames: []string{"alice", "bob"},
			wantFull:  false,
		},
		{
			name:      "object items with name field",
			payload:   `{"results":[{"name":"alice"},{"name":"bob"}]}`,
			limit:     100,
			wantNames: []string{"alice", "bob"},
			wantFull:  false,
		},
		{
			name:      "field preference order name over text",
			payload:   `[{"text":"second","name":"first"}]`,
			limit:     100,
			wantNames: []string{"first"},
			wantFull:  false,
		},
		{
			name:      "falls through empty name to text",
			payload:   `[{"name":"","text":"fallback"}]`,
			limit:     100,
			wantNames: []string{"fallback"},
			wantFull:  false,
		},
		{
			name:      "value and suggestion fields",
			payload:   `[{"value":"alice"},{"suggestion":"bob"}]`,
			limit:     100,
			wantNames: []string{"alice", "bob"},
			wantFull:  false,
		},
		{
			name:      "unrecognized items are skipped",
			payload:   `[42, null, {"id": 7}, "alice"]`,
			limit:     100,
			wantNames: []string{"alice"},
			wantFull:  false,
		},
		{
			name:      "object without results field",
			payload:   `{"count": 3}`,
			limit:     100,
			wantNames: []string{},
			wantFull:  false,
		},
		{
			name:      "malformed payload yields empty page",
			payload:   `{"results": [truncated`,
			limit:     100,
			wantNames: []string{},
			wantFull:  false,
		},
		{
			name:      "page at the limit is full",
			payload:   `["a","b","c"]`,
			limit:     3,
			wantNames: []string{"a", "b", "c"},
			wantFull:  true,
		},
		{
			name:      "skipped items still count toward fullness",
			payload:   `["a", 1, 2]`,
			limit:     3,
			wantNames: []string{"a"},
			wantFull:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := Normalize(json.RawMessage(tt.payload), tt.limit)
			if !reflect.DeepEqual(page.Names, tt.wantNames) {
				t.Errorf("expected names %v, got %v", tt.wantNames, page.Names)
			}
			if page.Full != tt.wantFull {
				t.Errorf("expected full=%v, got %v", tt.wantFull, page.Full)
			}
		})
	}
}

// TestNormalize_FullPageBoundary pins the truncation heuristic: at the
// limit means full, one below means not full.
func TestNormalize_FullPageBoundary(t *testing.T) {
	t.Parallel()

	at := Normalize(json.RawMessage(`["a","b"]`), 2)
	if !at.Full {
		t.Error("expected page at the limit to be full")
	}

	below := Normalize(json.RawMessage(`["a"]`), 2)
	if below.Full {
		t.Error("expected page below the limit to not be full")
	}
}

// TestCount verifies result-count extraction for version discovery.
func TestCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{
			name:    "explicit count field wins",
			payload: `{"count": 42, "results": ["a"]}`,
			want:    42,
		},
		{
			name:    "zero count falls back to results length",
			payload: `{"count": 0, "results": ["a","b"]}`,
			want:    2,
		},
		{
			name:    "missing count uses results length",
			payload: `{"results": ["a","b","c"]}`,
			want:    3,
		},
		{
			name:    "bare array uses its length",
			payload: `["a","b"]`,
			want:    2,
		},
		{
			name:    "malformed payload counts zero",
			payload: `not json`,
			want:    0,
		},
		{
			name:    "empty payload counts zero",
			payload: ``,
			want:    0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Count(json.RawMessage(tt.payload)); got != tt.want {
				t.Errorf("expected count %d, got %d", tt.want, got)
			}
		})
	}
}
