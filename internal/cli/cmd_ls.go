package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"star/pkg/blockfile"
)

func newLsCommand(a *app) *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "ls <archive>",
		Short: "List archive members",
		Long: "List every member with its size in bytes and block count.\n" +
			"With --verbose, also show each member's block offsets.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errArchiveRequired
			}

			return a.withArchive(o, args[0], false, func(arch *blockfile.Archive) error {
				infos, err := arch.List()
				if err != nil {
					return err
				}

				if len(infos) == 0 {
					return nil
				}

				o.Printf("%-32s %12s %8s\n", "NAME", "SIZE", "BLOCKS")

				for _, info := range infos {
					o.Printf("%-32s %12d %8d", info.Name, info.Size, info.Blocks)

					if a.cfg.Verbose {
						o.Printf("  %s", formatOffsets(info.Offsets))
					}

					o.Printf("\n")
				}

				return nil
			})
		},
	}
}

func formatOffsets(offsets []uint64) string {
	parts := make([]string, len(offsets))
	for i, off := range offsets {
		parts[i] = fmt.Sprintf("%d", off)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}
