package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"star/pkg/blockfile"
)

const shellHelp = `Commands:
  ls                    List members
  add <file...>         Add files
  rm <name...>          Delete members
  update <name...>      Replace members from disk
  extract [dir]         Extract all members
  pack                  Defragment and shrink
  info                  Show archive counters
  help                  Show this help
  exit / quit / q       Exit`

var shellCommands = []string{"ls", "add", "rm", "update", "extract", "pack", "info", "help", "exit", "quit"}

func newShellCommand(a *app) *Command {
	flags := flag.NewFlagSet("shell", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "shell <archive>",
		Short: "Interactive session on an archive",
		Long: "Open an archive and run commands against it interactively.\n" +
			"The archive stays locked for the whole session.\n\n" + shellHelp,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errArchiveRequired
			}

			return a.withArchive(o, args[0], false, func(arch *blockfile.Archive) error {
				return a.runShell(ctx, o, arch)
			})
		},
	}
}

func (a *app) runShell(ctx context.Context, o *IO, arch *blockfile.Archive) error {
	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(l string) []string {
		var out []string

		for _, c := range shellCommands {
			if strings.HasPrefix(c, strings.ToLower(l)) {
				out = append(out, c)
			}
		}

		return out
	})

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := line.Prompt("star> ")
		if err != nil {
			// Ctrl-C or Ctrl-D ends the session.
			if errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}

			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		fields := strings.Fields(input)
		cmd, rest := fields[0], fields[1:]

		if cmd == "exit" || cmd == "quit" || cmd == "q" {
			return nil
		}

		if err := a.shellDispatch(o, arch, cmd, rest); err != nil {
			o.ErrPrintln("error:", err)
		}
	}
}

func (a *app) shellDispatch(o *IO, arch *blockfile.Archive, cmd string, args []string) error {
	switch cmd {
	case "ls":
		infos, err := arch.List()
		if err != nil {
			return err
		}

		for _, info := range infos {
			o.Printf("%-32s %12d %8d\n", info.Name, info.Size, info.Blocks)
		}

		return nil

	case "add":
		if len(args) == 0 {
			return errNamesRequired
		}

		results, err := arch.Append(a.fileSources(args))
		printShellResults(o, results)

		return err

	case "rm":
		if len(args) == 0 {
			return errNamesRequired
		}

		results, err := arch.Delete(args)
		printShellResults(o, results)

		return err

	case "update":
		if len(args) == 0 {
			return errNamesRequired
		}

		results, err := arch.Update(a.fileSources(args))
		printShellResults(o, results)

		return err

	case "extract":
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		results, err := arch.Extract(newSinkOpener(a.resolvePath(dir)))
		printShellResults(o, results)

		return err

	case "pack":
		return arch.Pack()

	case "info":
		stats, err := arch.Stats()
		if err != nil {
			return err
		}

		o.Printf("members:    %d\n", stats.Members)
		o.Printf("free slots: %d\n", stats.FreeSlots)
		o.Printf("file size:  %d\n", stats.FileSize)

		return nil

	case "help":
		o.Println(shellHelp)

		return nil

	default:
		return errors.New("unknown command: " + cmd + " (try help)")
	}
}

func printShellResults(o *IO, results []blockfile.Result) {
	for _, res := range results {
		if res.Err != nil {
			o.ErrPrintln("warning:", res.Name+":", res.Err)
		}
	}
}
