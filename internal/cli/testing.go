package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// runCLI invokes Run with captured output. The HOME of the provided
// env is pointed at a temp dir so a developer's real global config can
// never leak into tests.
func runCLI(t *testing.T, workDir string, stdin io.Reader, args ...string) (int, string, string) {
	t.Helper()

	if stdin == nil {
		stdin = strings.NewReader("")
	}

	var out, errOut bytes.Buffer

	env := map[string]string{"HOME": t.TempDir()}

	argv := append([]string{"star", "--cwd", workDir}, args...)
	exit := Run(stdin, &out, &errOut, argv, env, nil)

	return exit, out.String(), errOut.String()
}
