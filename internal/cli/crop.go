package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/decktools/internal/crop"
	"github.com/hupe1980/decktools/internal/logging"
)

type cropOptions struct {
	output    string
	threshold int
	padding   int
}

func newCropCommand() *cobra.Command {
	opts := &cropOptions{}

	cmd := &cobra.Command{
		Use:   "crop <input>",
		Short: "Crop white borders and make the background transparent",
		Long: `Crop trims the near-white margin around an image, keeping a small
padding, and then turns every remaining near-white pixel fully
transparent. A pixel is near-white when all of its red, green, and blue
channels exceed the threshold.

The result is always written as PNG, by default next to the input as
<name>_processed.png.`,
		Example: `  decktools crop assets/images/diagram.jpg
  decktools crop logo.png -o logo-clean.png -t 230`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrop(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output path (default: <input>_processed.png)")
	f.IntVarP(&opts.threshold, "threshold", "t", int(crop.DefaultThreshold), "near-white threshold (0-255)")
	f.IntVar(&opts.padding, "padding", crop.DefaultPadding, "pixels kept around the content")

	return cmd
}

func runCrop(cmd *cobra.Command, input string, opts *cropOptions) error {
	if opts.threshold < 0 || opts.threshold > 255 {
		return usageError(fmt.Errorf("threshold must be between 0 and 255, got %d", opts.threshold))
	}

	if opts.padding < 0 {
		return usageError(fmt.Errorf("padding must not be negative, got %d", opts.padding))
	}

	logger := logging.With(cmd.Context(), "crop")

	out, err := crop.ProcessFile(input, opts.output, crop.Options{
		Threshold: uint8(opts.threshold), //nolint:gosec // range checked above
		Padding:   opts.padding,
	})
	if err != nil {
		return err
	}

	logger.Debug("image processed", slog.String("input", input), slog.String("output", out))

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", out)

	return err
}
