package cli

import (
	"strings"
	"testing"
)

func TestAppendCommand(t *testing.T) {
	t.Parallel()

	t.Run("adds file to existing archive", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "a.txt", "aaa")
		writeFile(t, dir, "b.txt", "bbb")

		runCLI(t, dir, nil, "create", "x.star", "a.txt")

		exit, _, stderr := runCLI(t, dir, nil, "append", "x.star", "b.txt")
		if exit != 0 {
			t.Fatalf("append exit = %d, stderr = %q", exit, stderr)
		}

		_, stdout, _ := runCLI(t, dir, nil, "ls", "x.star")
		if !strings.Contains(stdout, "a.txt") || !strings.Contains(stdout, "b.txt") {
			t.Errorf("listing = %q", stdout)
		}
	})

	t.Run("appends stdin when no files given", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "a.txt", "aaa")

		runCLI(t, dir, nil, "create", "x.star", "a.txt")

		exit, _, stderr := runCLI(t, dir, strings.NewReader("from a pipe"), "append", "x.star")
		if exit != 0 {
			t.Fatalf("append exit = %d, stderr = %q", exit, stderr)
		}

		_, stdout, _ := runCLI(t, dir, nil, "ls", "x.star")
		if !strings.Contains(stdout, "stdin") {
			t.Errorf("listing = %q", stdout)
		}
	})

	t.Run("append to missing archive errors", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "a.txt", "aaa")

		exit, _, stderr := runCLI(t, dir, nil, "append", "missing.star", "a.txt")
		if exit != 1 {
			t.Fatalf("exit = %d, want 1", exit)
		}

		if !strings.Contains(stderr, "error:") {
			t.Errorf("stderr = %q", stderr)
		}
	})
}
