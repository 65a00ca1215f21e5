// Package explorer implements the breadth-first traversal engine over the
// prefix space of an autocomplete endpoint.
//
// # Architecture
//
// The Explorer owns a FIFO frontier queue seeded with every single-character
// prefix, a seen-prefix set checked on dequeue, and the discovered-name set.
// Each prefix is fetched once through a Fetcher (the resilient requester);
// its names are merged and it is expanded into child prefixes when the page
// reached the configured limit (the truncation heuristic) or the prefix is
// shorter than the forced minimum expansion depth.
//
// # Termination
//
// The full-page heuristic alone cannot guarantee termination: an endpoint
// that always reports full pages would expand forever. Two safety valves
// bound the traversal: a maximum prefix length and a maximum total request
// count. Hitting either marks the result truncated instead of erroring.
//
// # Failure absorption
//
// No request failure aborts the crawl. A prefix whose retries were
// exhausted contributes no names and no children, and the traversal moves
// on; reduced completeness shows up only in the final counters.
package explorer
