package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"star/pkg/blockfile"
)

func newAppendCommand(a *app) *Command {
	flags := flag.NewFlagSet("append", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "append <archive> [file...]",
		Short: "Add files to an existing archive",
		Long: "Add the named files to the archive. A file whose name is already\n" +
			"archived is added onto that member, starting at a fresh block; the\n" +
			"result is an exact concatenation only when the member ended on a\n" +
			"block boundary. With no files, content is read from stdin into a\n" +
			"member named \"stdin\".",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errArchiveRequired
			}

			archivePath, files := args[0], args[1:]

			return a.withArchive(o, archivePath, false, func(arch *blockfile.Archive) error {
				sources := a.fileSources(files)
				if len(sources) == 0 {
					o.Verbosef("reading from stdin")

					sources = []blockfile.Source{a.stdinSource()}
				}

				results, err := arch.Append(sources)
				if err != nil {
					return err
				}

				reportResults(o, "added", results)

				return nil
			})
		},
	}
}
