package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"star/pkg/blockfile"
)

var errNamesRequired = errors.New("at least one member name is required")

func newRmCommand(a *app) *Command {
	flags := flag.NewFlagSet("rm", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "rm <archive> <name...>",
		Short: "Delete members from an archive",
		Long: "Delete the named members. Their blocks return to the free list\n" +
			"and can be reused by later appends; run pack to reclaim the space.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errArchiveRequired
			}

			if len(args) < 2 {
				return errNamesRequired
			}

			return a.withArchive(o, args[0], false, func(arch *blockfile.Archive) error {
				results, err := arch.Delete(args[1:])
				if err != nil {
					return err
				}

				reportResults(o, "deleted", results)

				return nil
			})
		},
	}
}
