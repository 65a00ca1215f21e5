// Package client provides HTTP access to the autocomplete endpoint.
//
// It is split into two layers:
//
//   - Client: the thin transport. One GET per call against
//     {baseURL}/v1/autocomplete?query=&version=&limit=, returning raw
//     status and body. Supports per-request timeouts, custom headers,
//     and an optional SOCKS5 proxy.
//   - Requester: the resilience policy. Retry with linear backoff on
//     rate limits and transport failures, immediate failure on other
//     non-200 responses, steady-state pacing between attempts, and the
//     process-wide request counter.
//
// The split keeps retry policy testable against a mock endpoint without
// touching transport concerns, and keeps the transport reusable by the
// calibration probes which deliberately bypass the retry ladder.
package client
