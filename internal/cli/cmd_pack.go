package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"star/pkg/blockfile"
)

func newPackCommand(a *app) *Command {
	flags := flag.NewFlagSet("pack", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "pack <archive>",
		Short: "Defragment and shrink an archive",
		Long: "Move live blocks to a contiguous prefix of the block region,\n" +
			"empty the free list, and truncate the archive. Pack is not\n" +
			"atomic; do not interrupt it.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errArchiveRequired
			}

			return a.withArchive(o, args[0], false, func(arch *blockfile.Archive) error {
				before, err := arch.Stats()
				if err != nil {
					return err
				}

				if err := arch.Pack(); err != nil {
					return err
				}

				after, err := arch.Stats()
				if err != nil {
					return err
				}

				o.Verbosef("packed %s: %d -> %d bytes", args[0], before.FileSize, after.FileSize)

				return nil
			})
		},
	}
}
