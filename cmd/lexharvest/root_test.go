package main

import (
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "lexharvest" {
			t.Errorf("expected use 'lexharvest', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		wantUses := []string{
			"extract [base-url...]",
			"calibrate [base-url]",
			"history [base-url]",
			"init",
			"version",
		}
		for _, want := range wantUses {
			found := false
			for _, sub := range cmd.Commands() {
				if sub.Use == want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected subcommand %q", want)
			}
		}
	})
}
