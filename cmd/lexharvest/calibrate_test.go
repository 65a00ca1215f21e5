package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestNewCalibrateCmd tests the calibrate command creation.
func TestNewCalibrateCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCalibrateCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "calibrate [base-url]" {
			t.Errorf("expected use 'calibrate [base-url]', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"versions", "timeout", "burst", "proxy", "json"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})
}

// calibrationTestServer serves fabricated version counts: v1 yields 5
// results, v2 yields 12, every other version yields none.
func calibrationTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version := r.URL.Query().Get("version")

		n := 0
		switch version {
		case "v1":
			n = 5
		case "v2":
			n = 12
		}

		names := make([]string, 0, n)
		for i := 0; i < n; i++ {
			names = append(names, fmt.Sprintf("name%02d", i))
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"results": names}); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	t.Cleanup(ts.Close)

	return ts
}

// TestRunCalibrateCmd tests calibrate against a stub endpoint.
func TestRunCalibrateCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints findings", func(t *testing.T) {
		t.Parallel()

		ts := calibrationTestServer(t)

		var buf bytes.Buffer
		cmd := NewCalibrateCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--versions", "v1,v2,v3", "--burst", "5", ts.URL})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Chosen version:    v2") {
			t.Errorf("expected v2 to win, got output:\n%s", output)
		}
		if !strings.Contains(output, "* v2") {
			t.Errorf("expected v2 marked as chosen, got output:\n%s", output)
		}
		if !strings.Contains(output, "Safe interval:") {
			t.Errorf("expected safe interval line, got output:\n%s", output)
		}
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		ts := calibrationTestServer(t)

		var buf bytes.Buffer
		cmd := NewCalibrateCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--versions", "v1,v2,v3", "--burst", "5", "--json", ts.URL})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var findings calibrationFindings
		if err := json.Unmarshal(buf.Bytes(), &findings); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if findings.Version != "v2" {
			t.Errorf("expected version 'v2', got %q", findings.Version)
		}
		if findings.VersionCounts["v2"] != 12 {
			t.Errorf("expected v2 count 12, got %d", findings.VersionCounts["v2"])
		}
		if findings.Interval <= 0 {
			t.Errorf("expected positive interval, got %v", findings.Interval)
		}
	})

	t.Run("unreachable endpoint fails", func(t *testing.T) {
		t.Parallel()

		// Closed immediately so every probe fails at the transport.
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		ts.Close()

		var buf bytes.Buffer
		cmd := NewCalibrateCmd()
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"--versions", "v1", "--burst", "2", ts.URL})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for unreachable endpoint")
		}
	})
}
