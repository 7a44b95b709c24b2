package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"star/internal/fs"

	flag "github.com/spf13/pflag"
)

// app carries the dependencies every command closure needs.
type app struct {
	fsys    fs.FS
	cfg     Config
	workDir string
	stdin   io.Reader
	debug   bool
}

// Run is the main entry point. Returns exit code.
// sigCh can be nil if signal handling is not needed (e.g., in tests).
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	// Create fresh global flags for this invocation
	globalFlags := flag.NewFlagSet("star", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})
	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	flagVerbose := globalFlags.BoolP("verbose", "v", false, "Narrate operations")
	flagDebug := globalFlags.Bool("debug", false, "Print block-level placement detail")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	workDir := *flagCwd
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}

		workDir = wd
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDir:    workDir,
		ConfigPath: *flagConfig,
		Env:        env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	if globalFlags.Changed("verbose") {
		cfg.Verbose = *flagVerbose
	}

	if globalFlags.Changed("debug") {
		cfg.Debug = *flagDebug
	}

	application := &app{
		fsys:    fs.NewReal(),
		cfg:     cfg,
		workDir: workDir,
		stdin:   stdin,
		debug:   cfg.Debug,
	}

	commands := allCommands(application)

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()

	// Show help: explicit --help or bare `star` with no args
	if *flagHelp || (len(commandAndArgs) == 0 && globalFlags.NFlag() == 0) {
		printUsage(out, commands)

		return 0
	}

	// Flags provided but no command: `star --cwd /tmp`
	if len(commandAndArgs) == 0 {
		fprintln(errOut, "error: no command provided")
		printUsage(errOut, commands)

		return 1
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	cmdIO := NewIO(out, errOut, cfg.Verbose)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run command in goroutine so we can handle signals
	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, cmdIO, commandAndArgs[1:])
	}()

	// Wait for completion or first signal (nil channel never fires)
	select {
	case exitCode := <-done:
		if exitCode != 0 {
			return exitCode
		}

		return cmdIO.Finish()
	case <-sigCh:
		fprintln(errOut, "shutting down with 5s timeout...")
		cancel()
	}

	// Wait for completion, timeout, or second signal
	select {
	case <-done:
		fprintln(errOut, "graceful shutdown ok (130)")

		return 130
	case <-time.After(5 * time.Second):
		fprintln(errOut, "graceful shutdown timed out, forced exit (130)")

		return 130
	case <-sigCh:
		fprintln(errOut, "graceful shutdown interrupted, forced exit (130)")

		return 130
	}
}

// allCommands returns all commands in display order.
// Dependencies are captured via closures in each command constructor.
func allCommands(a *app) []*Command {
	return []*Command{
		newCreateCommand(a),
		newLsCommand(a),
		newExtractCommand(a),
		newAppendCommand(a),
		newRmCommand(a),
		newUpdateCommand(a),
		newPackCommand(a),
		newShellCommand(a),
	}
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "star - block archive tool")
	fprintln(w, "")
	fprintln(w, "Usage: star [global flags] <command> [args]")
	fprintln(w, "")
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}

	fprintln(w, "")
	printGlobalOptions(w)
}

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Global flags:")
	fprintln(w, "  -C, --cwd dir       Run as if started in dir")
	fprintln(w, "  -c, --config file   Use specified config file")
	fprintln(w, "  -v, --verbose       Narrate operations")
	fprintln(w, "      --debug         Print block-level placement detail")
	fprintln(w, "  -h, --help          Show help")
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
