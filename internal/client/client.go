package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// maxBodySize limits the response body size read from the endpoint.
// Autocomplete pages are small; anything near this limit is garbage.
const maxBodySize = 4 * 1024 * 1024 // 4MB

// defaultUserAgent identifies lexharvest in HTTP requests. A descriptive
// User-Agent is good practice and lets operators identify probe traffic.
const defaultUserAgent = "lexharvest/1.0"

// Client issues single GET requests against one autocomplete endpoint.
// It knows nothing about retries, pacing, or rate limits; that policy
// lives in Requester.
//
// Design decision: We keep the transport layer this thin on purpose. The
// retry ladder needs to see raw status codes (429 versus other non-200),
// so the client reports status and body verbatim instead of interpreting
// them.
type Client struct {
	// baseURL is the endpoint root, e.g. "http://35.200.185.69:8000".
	baseURL string

	// httpClient performs the actual requests.
	httpClient *http.Client

	// headers are extra headers set on every request (e.g. API keys from
	// the endpoint config).
	headers map[string]string

	// userAgent is the User-Agent header sent with every request.
	userAgent string

	// timeout is the per-request transport timeout.
	timeout time.Duration

	// proxyAddress is an optional SOCKS5 proxy in "host:port" format.
	proxyAddress string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHeaders sets extra headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithProxy routes all requests through a SOCKS5 proxy at the given
// "host:port" address.
//
// Design decision: We support SOCKS5 rather than HTTP CONNECT proxies
// because SOCKS5 is what local tunnels (ssh -D, Tor) expose, and the
// golang.org/x/net/proxy dialer plugs directly into http.Transport.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// New creates a Client for the given endpoint base URL.
//
// The base URL must carry an http or https scheme and a host. This function
// does not contact the endpoint; the first probe does.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		timeout:   5 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		httpClient, err := c.newHTTPClient()
		if err != nil {
			return nil, err
		}
		c.httpClient = httpClient
	}

	return c, nil
}

// newHTTPClient builds the underlying http.Client, wiring in the SOCKS5
// dialer when a proxy address is configured.
func (c *Client) newHTTPClient() (*http.Client, error) {
	transport := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: c.timeout}).DialContext,
		MaxIdleConns:        4,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: c.timeout,
	}

	if c.proxyAddress != "" {
		if !isValidProxyAddress(c.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		// nil auth: local SOCKS5 tunnels typically don't require it
		dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
	}, nil
}

// BaseURL returns the endpoint root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is the raw result of one autocomplete request.
type Response struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Body is the raw response body. For 200 responses this is the JSON
	// payload handed to the normalizer.
	Body json.RawMessage
}

// Autocomplete issues one GET against the autocomplete endpoint for the
// given (prefix, version, limit) triple and returns the raw status and body.
// A transport-level failure (connect error, timeout) returns a non-nil error
// and no Response.
func (c *Client) Autocomplete(ctx context.Context, prefix, version string, limit int) (*Response, error) {
	q := url.Values{}
	q.Set("query", prefix)
	if version != "" {
		q.Set("version", version)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	// The path is fixed at /v1/autocomplete; the dataset version travels
	// in the version query parameter, not the path.
	reqURL := c.baseURL + "/v1/autocomplete?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
// We use a simple check rather than a full URL parser because the format
// is very specific (no scheme, no path, just host and port).
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}
