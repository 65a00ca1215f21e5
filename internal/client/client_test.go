package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestNew verifies base URL validation.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("valid http base URL", func(t *testing.T) {
		t.Parallel()
		c, err := New("http://example.com:8000")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.BaseURL() != "http://example.com:8000" {
			t.Errorf("unexpected base URL: %s", c.BaseURL())
		}
	})

	t.Run("trailing slash is trimmed", func(t *testing.T) {
		t.Parallel()
		c, err := New("http://example.com:8000/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.BaseURL() != "http://example.com:8000" {
			t.Errorf("expected trailing slash trimmed, got %s", c.BaseURL())
		}
	})

	t.Run("missing scheme is rejected", func(t *testing.T) {
		t.Parallel()
		if _, err := New("example.com:8000"); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("expected ErrInvalidBaseURL, got %v", err)
		}
	})

	t.Run("non-http scheme is rejected", func(t *testing.T) {
		t.Parallel()
		if _, err := New("ftp://example.com"); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("expected ErrInvalidBaseURL, got %v", err)
		}
	})

	t.Run("invalid proxy address is rejected", func(t *testing.T) {
		t.Parallel()
		if _, err := New("http://example.com", WithProxy("not-an-address")); !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

// TestClientAutocomplete verifies request construction and raw response handling.
func TestClientAutocomplete(t *testing.T) {
	t.Parallel()

	t.Run("sends expected query parameters", func(t *testing.T) {
		t.Parallel()

		var gotPath, gotQuery, gotVersion, gotLimit string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.Query().Get("query")
			gotVersion = r.URL.Query().Get("version")
			gotLimit = r.URL.Query().Get("limit")
			w.Write([]byte(`{"results":[]}`))
		}))
		defer server.Close()

		c, err := New(server.URL)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		resp, err := c.Autocomplete(context.Background(), "ab", "v3", 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotPath != "/v1/autocomplete" {
			t.Errorf("expected path /v1/autocomplete, got %s", gotPath)
		}
		if gotQuery != "ab" || gotVersion != "v3" || gotLimit != "100" {
			t.Errorf("unexpected query parameters: query=%s version=%s limit=%s", gotQuery, gotVersion, gotLimit)
		}
		if resp.StatusCode != 200 {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		if string(resp.Body) != `{"results":[]}` {
			t.Errorf("unexpected body: %s", resp.Body)
		}
	})

	t.Run("omits version and limit when unset", func(t *testing.T) {
		t.Parallel()

		var rawQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawQuery = r.URL.RawQuery
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c, err := New(server.URL)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if _, err := c.Autocomplete(context.Background(), "a", "", 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rawQuery != "query=a" {
			t.Errorf("expected only the query parameter, got %q", rawQuery)
		}
	})

	t.Run("applies custom headers", func(t *testing.T) {
		t.Parallel()

		var gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("X-Api-Key")
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c, err := New(server.URL, WithHeaders(map[string]string{"X-Api-Key": "secret"}))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if _, err := c.Autocomplete(context.Background(), "a", "v1", 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotKey != "secret" {
			t.Errorf("expected X-Api-Key header, got %q", gotKey)
		}
	})

	t.Run("reports non-200 status without error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c, err := New(server.URL)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		resp, err := c.Autocomplete(context.Background(), "a", "v1", 10)
		if err != nil {
			t.Fatalf("status codes are data, not errors: %v", err)
		}
		if resp.StatusCode != 429 {
			t.Errorf("expected status 429, got %d", resp.StatusCode)
		}
	})

	t.Run("transport failure returns error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`[]`))
		}))
		url := server.URL
		server.Close()

		c, err := New(url)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if _, err := c.Autocomplete(context.Background(), "a", "v1", 10); err == nil {
			t.Error("expected transport error against closed server")
		}
	})
}
