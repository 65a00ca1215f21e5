package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"lexharvest/internal/client"
	"lexharvest/internal/model"
)

// fakeFetcher is a scripted Fetcher for explorer tests. Prefixes without a
// scripted payload yield an empty results page; prefixes in failures yield
// a failed outcome.
type fakeFetcher struct {
	responses map[string]string
	failures  map[string]bool
	order     []string
	requests  int
}

func (f *fakeFetcher) Fetch(_ context.Context, prefix string) client.Outcome {
	f.order = append(f.order, prefix)
	f.requests++

	if f.failures[prefix] {
		return client.Outcome{Attempts: 3, Err: client.ErrRetriesExhausted}
	}
	if payload, ok := f.responses[prefix]; ok {
		return client.Outcome{Payload: json.RawMessage(payload), Attempts: 1}
	}
	return client.Outcome{Payload: json.RawMessage(`{"results":[]}`), Attempts: 1}
}

func (f *fakeFetcher) Requests() int { return f.requests }

// fullPage builds a results payload with n generated names, used to script
// pages exactly at the limit.
func fullPage(prefix string, n int) string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s-name-%03d", prefix, i)
	}
	data, _ := json.Marshal(map[string][]string{"results": names})
	return string(data)
}

// TestExplorerEndToEnd exercises the reference scenario: prefix "a" returns
// a full page of 100 names, every other prefix returns nothing. "a" must be
// expanded into all 62 children, none of which expand further, and the
// final vocabulary must be exactly the 100 names.
func TestExplorerEndToEnd(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		responses: map[string]string{"a": fullPage("a", 100)},
	}

	// Forced-depth expansion disabled so only the full-page heuristic
	// drives the traversal.
	e := New(fetcher,
		WithPageLimit(100),
		WithMinExpandDepth(0),
	)

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Names) != 100 {
		t.Errorf("expected 100 unique names, got %d", len(result.Names))
	}
	// 62 seeds plus 62 children of "a"
	if result.PrefixesExplored != 124 {
		t.Errorf("expected 124 prefixes explored, got %d", result.PrefixesExplored)
	}
	if result.Truncated {
		t.Error("expected crawl to drain without hitting safety valves")
	}

	// No grandchildren: every fetched prefix is length 1 or 2.
	for _, p := range fetcher.order {
		if len(p) > 2 {
			t.Errorf("unexpected deep prefix fetched: %q", p)
		}
	}
}

// TestExplorerExpansionPolicy pins the three expansion rules.
func TestExplorerExpansionPolicy(t *testing.T) {
	t.Parallel()

	t.Run("page at the limit is expanded", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{
			responses: map[string]string{"aaa": fullPage("aaa", 5)},
		}
		e := New(fetcher,
			WithAlphabet("a"),
			WithPageLimit(5),
			WithMinExpandDepth(3),
			WithMaxPrefixLength(4),
		)

		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// a, aa forced by depth; aaa full page; aaaa from the expansion.
		want := []string{"a", "aa", "aaa", "aaaa"}
		if len(fetcher.order) != len(want) {
			t.Fatalf("expected fetch order %v, got %v", want, fetcher.order)
		}
		for i, p := range want {
			if fetcher.order[i] != p {
				t.Errorf("fetch %d: expected %q, got %q", i, p, fetcher.order[i])
			}
		}
	})

	t.Run("partial page at depth is not expanded", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{
			responses: map[string]string{"aaa": `{"results":["one","two"]}`},
		}
		e := New(fetcher,
			WithAlphabet("a"),
			WithPageLimit(5),
			WithMinExpandDepth(3),
		)

		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, p := range fetcher.order {
			if len(p) > 3 {
				t.Errorf("expected no expansion past depth 3, fetched %q", p)
			}
		}
	})

	t.Run("short prefix expands regardless of page fullness", func(t *testing.T) {
		t.Parallel()

		// Every page is empty, yet depth 1 and 2 must still expand.
		fetcher := &fakeFetcher{}
		e := New(fetcher,
			WithAlphabet("ab"),
			WithPageLimit(5),
			WithMinExpandDepth(3),
		)

		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Depths 1..3 fully enumerated over a 2-letter alphabet:
		// 2 + 4 + 8 fetches, nothing deeper.
		if len(fetcher.order) != 14 {
			t.Errorf("expected 14 fetches, got %d: %v", len(fetcher.order), fetcher.order)
		}
		for _, p := range fetcher.order {
			if len(p) > 3 {
				t.Errorf("expected no prefix past depth 3, fetched %q", p)
			}
		}
	})
}

// TestExplorerBFSOrdering verifies all shorter prefixes are dequeued before
// any longer one.
func TestExplorerBFSOrdering(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	e := New(fetcher,
		WithAlphabet("ab"),
		WithPageLimit(5),
		WithMinExpandDepth(2),
	)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lastLen := 0
	for _, p := range fetcher.order {
		if len(p) < lastLen {
			t.Fatalf("BFS ordering violated: fetched %q after a length-%d prefix (order: %v)",
				p, lastLen, fetcher.order)
		}
		lastLen = len(p)
	}
}

// TestExplorerNameDedup verifies the vocabulary is a set: names repeated
// across prefixes appear once.
func TestExplorerNameDedup(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		responses: map[string]string{
			"a": `{"results":["alice","amber"]}`,
			"b": `{"results":["alice","bob"]}`,
		},
	}
	e := New(fetcher,
		WithAlphabet("ab"),
		WithPageLimit(100),
		WithMinExpandDepth(0),
	)

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"alice", "amber", "bob"}
	if len(result.Names) != len(want) {
		t.Fatalf("expected %v, got %v", want, result.Names)
	}
	for i, name := range want {
		if result.Names[i] != name {
			t.Errorf("expected sorted names %v, got %v", want, result.Names)
			break
		}
	}
}

// TestExplorerFailureAbsorption verifies failed prefixes yield no names and
// no expansion but never abort the crawl.
func TestExplorerFailureAbsorption(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		responses: map[string]string{"b": `{"results":["bob"]}`},
		failures:  map[string]bool{"a": true},
	}
	e := New(fetcher,
		WithAlphabet("ab"),
		WithPageLimit(100),
		WithMinExpandDepth(0),
	)

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("expected failure absorption, got error: %v", err)
	}

	if len(result.Names) != 1 || result.Names[0] != "bob" {
		t.Errorf("expected only bob, got %v", result.Names)
	}
	if result.PrefixesExplored != 2 {
		t.Errorf("expected both seeds explored, got %d", result.PrefixesExplored)
	}
}

// TestExplorerSafetyValves verifies the two hardening ceilings.
func TestExplorerSafetyValves(t *testing.T) {
	t.Parallel()

	t.Run("depth ceiling suppresses expansion and marks truncation", func(t *testing.T) {
		t.Parallel()

		// Forced-depth expansion would walk to depth 10 without the cap.
		fetcher := &fakeFetcher{}
		e := New(fetcher,
			WithAlphabet("a"),
			WithMinExpandDepth(10),
			WithMaxPrefixLength(3),
		)

		result, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.Truncated {
			t.Error("expected truncation when depth ceiling suppresses forced expansion")
		}
		if result.PrefixesExplored != 3 {
			t.Errorf("expected 3 prefixes (a, aa, aaa), got %d", result.PrefixesExplored)
		}
	})

	t.Run("request ceiling stops the crawl", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{}
		e := New(fetcher,
			WithAlphabet("abcdef"),
			WithPageLimit(5),
			WithMinExpandDepth(3),
			WithMaxRequests(4),
		)

		result, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.Truncated {
			t.Error("expected truncation at the request ceiling")
		}
		if result.Requests != 4 {
			t.Errorf("expected 4 requests at the ceiling, got %d", result.Requests)
		}
	})
}

// TestExplorerProgressCadence verifies observations fire every N dequeues.
func TestExplorerProgressCadence(t *testing.T) {
	t.Parallel()

	var observations []model.Progress
	fetcher := &fakeFetcher{}
	e := New(fetcher,
		WithAlphabet("abcde"),
		WithPageLimit(5),
		WithMinExpandDepth(2),
		WithProgressEvery(10),
		WithProgressFunc(func(p model.Progress) {
			observations = append(observations, p)
		}),
	)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 5 seeds + 25 children = 30 dequeues, so observations at 10, 20, 30.
	if len(observations) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(observations))
	}
	for i, obs := range observations {
		if want := (i + 1) * 10; obs.PrefixesExplored != want {
			t.Errorf("observation %d: expected %d prefixes explored, got %d", i, want, obs.PrefixesExplored)
		}
	}
}

// TestExplorerContextCancellation verifies a cancelled context returns the
// partial result with ctx.Err().
func TestExplorerContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	e := New(fetcher, WithAlphabet("ab"), WithMinExpandDepth(0))

	result, err := e.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil {
		t.Fatal("expected partial result on cancellation")
	}
	if result.PrefixesExplored != 0 {
		t.Errorf("expected no prefixes explored, got %d", result.PrefixesExplored)
	}
}
