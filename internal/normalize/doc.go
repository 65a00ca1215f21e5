// Package normalize flattens heterogeneous autocomplete payloads into name
// strings and applies the full-page completeness heuristic.
//
// The backing service's response shape is not documented anywhere; the
// decoder accepts every shape observed in the wild (bare arrays, wrapped
// arrays, string items, object items with varying field names) and skips
// anything it does not recognize instead of failing the prefix.
package normalize
