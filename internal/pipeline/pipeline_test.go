package pipeline

import (
	"context"
	"errors"
	"testing"

	"lexharvest/internal/model"
)

// mockStep records whether it ran and can be scripted to fail.
type mockStep struct {
	name   string
	err    error
	called bool
}

func (s *mockStep) Do(_ context.Context, _ *model.RunReport) error {
	s.called = true
	return s.err
}

func (s *mockStep) Name() string { return s.name }

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		a := &mockStep{name: "a"}
		b := &mockStep{name: "b"}

		p := New()
		p.AddSteps(a, b)

		report := model.NewRunReport("http://example.com:8000")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !a.called || !b.called {
			t.Error("expected both steps to run")
		}
		if len(report.PerformedSteps) != 2 || report.PerformedSteps[0] != "a" || report.PerformedSteps[1] != "b" {
			t.Errorf("unexpected performed steps: %v", report.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		a := &mockStep{name: "a", err: boom}
		b := &mockStep{name: "b"}

		p := New()
		p.AddSteps(a, b)

		report := model.NewRunReport("http://example.com:8000")
		if err := p.Execute(context.Background(), report); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		if b.called {
			t.Error("expected pipeline to stop before the second step")
		}
		if report.ErrorMessage != "boom" {
			t.Errorf("expected error recorded in report, got %q", report.ErrorMessage)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		a := &mockStep{name: "a", err: errors.New("boom")}
		b := &mockStep{name: "b"}

		p := New(WithContinueOnError(true))
		p.AddSteps(a, b)

		report := model.NewRunReport("http://example.com:8000")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !b.called {
			t.Error("expected pipeline to continue past the failure")
		}
	})

	t.Run("respects cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		a := &mockStep{name: "a"}
		p := New()
		p.AddStep(a)

		report := model.NewRunReport("http://example.com:8000")
		if err := p.Execute(ctx, report); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if a.called {
			t.Error("expected no step to run after cancellation")
		}
	})
}

func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddSteps(&mockStep{name: "one"}, &mockStep{name: "two"})

	if p.StepCount() != 2 {
		t.Errorf("expected 2 steps, got %d", p.StepCount())
	}

	names := p.StepNames()
	if names[0] != "one" || names[1] != "two" {
		t.Errorf("unexpected step names: %v", names)
	}
}
