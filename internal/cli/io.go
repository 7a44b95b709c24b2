package cli

import (
	"fmt"
	"io"
)

// IO handles command output and collects per-member warnings.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	verbose  bool
	warnings []string
	started  bool
}

// NewIO creates a new IO instance.
func NewIO(out, errOut io.Writer, verbose bool) *IO {
	return &IO{out: out, errOut: errOut, verbose: verbose}
}

// Warn records a non-fatal per-member diagnostic.
//
// Warnings are printed to stderr at both the START and END of output,
// ensuring visibility regardless of truncation or piping (head/tail).
// Any warnings cause exit code 1 to signal attention is needed.
//
// Output to stdout still occurs - warnings don't suppress normal
// output. This allows partial results with issues flagged.
func (o *IO) Warn(a ...any) {
	o.warnings = append(o.warnings, fmt.Sprintln(a...))
}

// Println writes to stdout. On first call, any collected warnings
// are printed to stderr first.
func (o *IO) Println(a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout. On first call, any collected
// warnings are printed to stderr first.
func (o *IO) Printf(format string, a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Verbosef writes op narration to stdout when verbose mode is on.
func (o *IO) Verbosef(format string, a ...any) {
	if o.verbose {
		o.Printf(format+"\n", a...)
	}
}

// Finish prints warnings to stderr and returns the exit code:
// 1 if any warnings were collected, 0 otherwise.
func (o *IO) Finish() int {
	// If no output happened but we have warnings, print them at "start"
	// position.
	o.flushWarningsStart()

	for _, w := range o.warnings {
		_, _ = fmt.Fprint(o.errOut, "warning: "+w)
	}

	if len(o.warnings) > 0 {
		return 1
	}

	return 0
}

func (o *IO) flushWarningsStart() {
	if !o.started && len(o.warnings) > 0 {
		for _, w := range o.warnings {
			_, _ = fmt.Fprint(o.errOut, "warning: "+w)
		}

		o.started = true
	}
}
