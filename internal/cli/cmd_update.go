package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"star/pkg/blockfile"
)

func newUpdateCommand(a *app) *Command {
	flags := flag.NewFlagSet("update", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "update <archive> <name...>",
		Short: "Replace members with their on-disk files",
		Long: "Replace the content of each named member with the current content\n" +
			"of the same-named file on disk. The member keeps its position in\n" +
			"the directory.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errArchiveRequired
			}

			if len(args) < 2 {
				return errNamesRequired
			}

			return a.withArchive(o, args[0], false, func(arch *blockfile.Archive) error {
				results, err := arch.Update(a.fileSources(args[1:]))
				if err != nil {
					return err
				}

				reportResults(o, "updated", results)

				return nil
			})
		},
	}
}
