package client

import "errors"

// Sentinel errors for the transport and retry layers.
// Callers use errors.Is() to distinguish failure classes; the explorer
// treats all of them as "no data for this prefix" and keeps crawling.
var (
	// ErrInvalidBaseURL is returned when the endpoint base URL cannot be
	// parsed or lacks an http(s) scheme and host.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is
	// not in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

	// ErrRateLimited indicates the endpoint answered 429 on every attempt
	// within the retry budget.
	ErrRateLimited = errors.New("rate limited by endpoint")

	// ErrUnexpectedStatus indicates a non-200, non-429 response. This
	// class is not retried: the endpoint answered, it just said no.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrRetriesExhausted indicates the attempt budget ran out without a
	// successful response.
	ErrRetriesExhausted = errors.New("retries exhausted")
)
