package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/decktools/internal/config"
	"github.com/hupe1980/decktools/internal/logging"
	"github.com/hupe1980/decktools/internal/mask"
	"github.com/hupe1980/decktools/internal/output"
)

func newMaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mask [path]",
		Short: "Paint over fixed regions of an image",
		Long: `Mask samples the colour at mask.sample and fills every rectangle in
mask.rects with it, hiding logos or watermarks. The image is rewritten in
place in its original format.

Without a path the project's mask.path is used. A sample point or
rectangle outside the image is an error and leaves the file untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}

			spec, err := mask.FromConfig(config.ProjectFromContext(cmd.Context()).Mask, path)
			if err != nil {
				return usageError(err)
			}

			if err := mask.File(spec, output.WithLogger(logging.With(cmd.Context(), "mask"))); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logo masked in %s\n", spec.Path)

			return err
		},
	}

	return cmd
}
