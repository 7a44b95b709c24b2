package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"star/pkg/blockfile"
)

func newCreateCommand(a *app) *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "create <archive> [file...]",
		Short: "Create an archive from files",
		Long: "Create (or truncate) an archive and add the named files.\n" +
			"With no files, content is read from stdin into a member named \"stdin\".\n" +
			"Unreadable files are skipped with a warning.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errArchiveRequired
			}

			archivePath, files := args[0], args[1:]

			o.Verbosef("creating archive %s", archivePath)

			return a.withArchive(o, archivePath, true, func(arch *blockfile.Archive) error {
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
