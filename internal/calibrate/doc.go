// Package calibrate implements the pre-flight discovery procedures run
// against an endpoint before the crawl starts.
//
// Two independent probes are provided. Version discovery tries every
// candidate API version once with a trivial prefix and keeps the one
// reporting the most results, so the crawl explores the richest vocabulary
// the endpoint exposes. Rate discovery fires a short burst of back-to-back
// requests and derives a steady-state pause from the observed throughput,
// backing off to a conservative fixed pause when the burst trips the
// endpoint's rate limiter.
//
// Probes are deliberately un-retried and un-paced, which is why the package
// talks to the raw transport client rather than the resilient requester.
package calibrate
