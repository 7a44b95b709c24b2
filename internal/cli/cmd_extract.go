package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"star/pkg/blockfile"
)

func newExtractCommand(a *app) *Command {
	flags := flag.NewFlagSet("extract", flag.ContinueOnError)
	output := flags.StringP("output", "o", "", "Write members into `dir`")

	return &Command{
		Flags: flags,
		Usage: "extract <archive>",
		Short: "Extract all members to files",
		Long: "Extract every member into the output directory (default: the\n" +
			"working directory, or extract_dir from config). Each member is\n" +
			"written to a temp file and renamed into place.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errArchiveRequired
			}

			dir := a.cfg.ExtractDir
			if *output != "" {
				dir = *output
			}

			if dir == "" {
				dir = "."
			}

			dir = a.resolvePath(dir)

			return a.withArchive(o, args[0], false, func(arch *blockfile.Archive) error {
				results, err := arch.Extract(newSinkOpener(dir))
				if err != nil {
					return err
				}

				reportResults(o, "extracted", results)

				return nil
			})
		},
	}
}
