package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/decktools/internal/alpha"
	"github.com/hupe1980/decktools/internal/config"
)

func newAlphaCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "alpha [paths...]",
		Short: "Report whether images actually use transparency",
		Long: `Alpha decodes each image and reports its pixel mode, the minimum and
maximum alpha value, and one of three verdicts: the image has actual
transparency, it has an alpha channel whose pixels are all opaque, or it
has no alpha channel at all.

Without arguments the project's alpha.paths are inspected. Unreadable
images are reported and do not stop the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				paths = config.ProjectFromContext(cmd.Context()).Alpha.Paths
			}

			formatter, err := newFormatter(cmd, format)
			if err != nil {
				return err
			}

			result, _ := alpha.Run(paths)

			return writeReport(cmd, formatter, result)
		},
	}

	registerFormatFlag(cmd, &format)

	return cmd
}
