package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"lexharvest/internal/calibrate"
	"lexharvest/internal/client"
	"lexharvest/internal/database"
	"lexharvest/internal/explorer"
	"lexharvest/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *client.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestVersionStep(t *testing.T) {
	t.Parallel()

	counts := map[string]int{"v1": 5, "v2": 12, "v3": 12}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version := r.URL.Query().Get("version")
		fmt.Fprintf(w, `{"count":%d,"results":[]}`, counts[version])
	})

	c := newTestClient(t, handler)
	calibrator := calibrate.New(c, calibrate.WithVersions([]string{"v1", "v2", "v3"}))

	report := model.NewRunReport("http://example.com:8000")
	step := NewVersionStep(calibrator, nil)

	if step.Name() != "version-calibration" {
		t.Errorf("unexpected step name: %q", step.Name())
	}
	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Version != "v2" {
		t.Errorf("expected v2 chosen, got %q", report.Version)
	}
	if report.VersionCounts["v1"] != 5 {
		t.Errorf("expected probe counts recorded, got %v", report.VersionCounts)
	}
}

// fakePacer records the interval pushed by the rate step.
type fakePacer struct {
	interval time.Duration
}

func (p *fakePacer) SetInterval(d time.Duration) { p.interval = d }

func TestRateStep(t *testing.T) {
	t.Parallel()

	// Third probe trips the rate limiter.
	var requests atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) >= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results":[]}`)
	})

	c := newTestClient(t, handler)
	calibrator := calibrate.New(c)
	pacer := &fakePacer{}

	report := model.NewRunReport("http://example.com:8000")
	report.Version = "v2"

	step := NewRateStep(calibrator, pacer, nil)
	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.RateLimited {
		t.Error("expected rate limiting recorded")
	}
	if report.RequestInterval != time.Second {
		t.Errorf("expected conservative 1s interval, got %v", report.RequestInterval)
	}
	if pacer.interval != time.Second {
		t.Errorf("expected interval pushed to the pacer, got %v", pacer.interval)
	}
}

func TestExploreStep(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "a" {
			fmt.Fprint(w, `{"results":["alice","amber"]}`)
			return
		}
		fmt.Fprint(w, `{"results":[]}`)
	})

	c := newTestClient(t, handler)
	requester := client.NewRequester(c, client.WithInterval(0), client.WithRetryDelay(0))

	report := model.NewRunReport("http://example.com:8000")
	report.Version = "v1"

	step := NewExploreStep(requester, 2, nil,
		explorer.WithAlphabet("ab"),
		explorer.WithMinExpandDepth(0),
	)
	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// "a" is a full page of 2, expanding into "aa" and "ab"; "b" and the
	// children are empty.
	if report.NameCount() != 2 {
		t.Errorf("expected 2 names, got %v", report.Names)
	}
	if report.PrefixesExplored != 4 {
		t.Errorf("expected 4 prefixes explored, got %d", report.PrefixesExplored)
	}
	if report.RequestCount != 4 {
		t.Errorf("expected 4 requests, got %d", report.RequestCount)
	}
	if report.ElapsedTime <= 0 {
		t.Error("expected elapsed time recorded")
	}
}

func TestPersistStep(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	report := model.NewRunReport("http://example.com:8000")
	report.Version = "v2"
	report.SetNames([]string{"alice"})

	step := NewPersistStep(db, nil)
	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := db.LatestRun(context.Background(), "http://example.com:8000")
	if err != nil {
		t.Fatalf("failed to read back run: %v", err)
	}
	if stored == nil || stored.NameCount() != 1 {
		t.Fatalf("expected stored run with 1 name, got %+v", stored)
	}
}
