package cli

import (
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("help flag shows usage", func(t *testing.T) {
		t.Parallel()

		exit, stdout, _ := runCLI(t, t.TempDir(), nil, "--help")
		if exit != 0 {
			t.Fatalf("exit = %d", exit)
		}

		for _, want := range []string{"create", "ls", "extract", "append", "rm", "update", "pack", "shell"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("usage missing %q: %q", want, stdout)
			}
		}
	})

	t.Run("flags without command error", func(t *testing.T) {
		t.Parallel()

		exit, _, stderr := runCLI(t, t.TempDir(), nil)
		if exit != 1 {
			t.Fatalf("exit = %d, want 1", exit)
		}

		if !strings.Contains(stderr, "no command provided") {
			t.Errorf("stderr = %q", stderr)
		}
	})

	t.Run("unknown command errors with usage", func(t *testing.T) {
		t.Parallel()

		exit, _, stderr := runCLI(t, t.TempDir(), nil, "explode")
		if exit != 1 {
			t.Fatalf("exit = %d, want 1", exit)
		}

		if !strings.Contains(stderr, "unknown command: explode") {
			t.Errorf("stderr = %q", stderr)
		}
	})

	t.Run("command help via flag", func(t *testing.T) {
		t.Parallel()

		exit, stdout, _ := runCLI(t, t.TempDir(), nil, "create", "--help")
		if exit != 0 {
			t.Fatalf("exit = %d", exit)
		}

		if !strings.Contains(stdout, "Usage: star create") {
			t.Errorf("stdout = %q", stdout)
		}
	})

	t.Run("unknown flag errors", func(t *testing.T) {
		t.Parallel()

		exit, _, stderr := runCLI(t, t.TempDir(), nil, "ls", "--bogus")
		if exit != 1 {
			t.Fatalf("exit = %d, want 1", exit)
		}

		if !strings.Contains(stderr, "error:") {
			t.Errorf("stderr = %q", stderr)
		}
	})
}
