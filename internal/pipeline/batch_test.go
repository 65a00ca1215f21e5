package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"lexharvest/internal/model"
)

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("extracts every endpoint and preserves order", func(t *testing.T) {
		t.Parallel()

		var factoryCalls atomic.Int64
		factory := func(_ string) (*Pipeline, error) {
			factoryCalls.Add(1)
			p := New()
			p.AddStep(&mockStep{name: "noop"})
			return p, nil
		}

		bp := NewBatchProcessor(factory, WithConcurrency(2))

		endpoints := []string{"http://a:8000", "http://b:8000", "http://c:8000"}
		reports, err := bp.ProcessBatch(context.Background(), endpoints)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if factoryCalls.Load() != 3 {
			t.Errorf("expected 3 factory calls, got %d", factoryCalls.Load())
		}
		if len(reports) != 3 {
			t.Fatalf("expected 3 reports, got %d", len(reports))
		}
		for i, endpoint := range endpoints {
			if reports[i] == nil || reports[i].BaseURL != endpoint {
				t.Errorf("report %d: expected endpoint %q, got %+v", i, endpoint, reports[i])
			}
		}
	})

	t.Run("factory failure is recorded, not fatal", func(t *testing.T) {
		t.Parallel()

		factory := func(baseURL string) (*Pipeline, error) {
			if baseURL == "http://bad:8000" {
				return nil, errors.New("bad endpoint")
			}
			p := New()
			p.AddStep(&mockStep{name: "noop"})
			return p, nil
		}

		bp := NewBatchProcessor(factory)

		reports, err := bp.ProcessBatch(context.Background(), []string{"http://bad:8000", "http://good:8000"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if reports[0].ErrorMessage != "bad endpoint" {
			t.Errorf("expected setup error recorded, got %q", reports[0].ErrorMessage)
		}
		if reports[1].ErrorMessage != "" {
			t.Errorf("expected second endpoint to succeed, got %q", reports[1].ErrorMessage)
		}
	})

	t.Run("step failure is recorded per endpoint", func(t *testing.T) {
		t.Parallel()

		factory := func(_ string) (*Pipeline, error) {
			p := New()
			p.AddStep(&mockStep{name: "failing", err: errors.New("boom")})
			return p, nil
		}

		bp := NewBatchProcessor(factory)

		reports, err := bp.ProcessBatch(context.Background(), []string{"http://a:8000"})
		if err != nil {
			t.Fatalf("expected per-endpoint failure to be absorbed, got %v", err)
		}
		if reports[0].ErrorMessage != "boom" {
			t.Errorf("expected step error in report, got %q", reports[0].ErrorMessage)
		}
	})

	t.Run("cancelled batch returns context error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		factory := func(_ string) (*Pipeline, error) {
			return New(), nil
		}
		bp := NewBatchProcessor(factory)

		_, err := bp.ProcessBatch(ctx, []string{"http://a:8000", "http://b:8000"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestBatchReportsAreIndependent(t *testing.T) {
	t.Parallel()

	factory := func(_ string) (*Pipeline, error) {
		p := New()
		p.AddStep(&mockStep{name: "noop"})
		return p, nil
	}
	bp := NewBatchProcessor(factory, WithConcurrency(3))

	endpoints := []string{"http://a:8000", "http://b:8000", "http://c:8000"}
	reports, err := bp.ProcessBatch(context.Background(), endpoints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[*model.RunReport]bool)
	for _, r := range reports {
		if seen[r] {
			t.Fatal("expected each endpoint to get its own report instance")
		}
		seen[r] = true
	}
}
