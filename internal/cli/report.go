package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/decktools/internal/config"
	"github.com/hupe1980/decktools/internal/report"
)

// registerFormatFlag adds the --format flag of the batch commands.
func registerFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, "format", "table", "report format: table, json, yaml")
}

// newFormatter validates the requested report format before any work is
// done, so a typo does not leave files half-processed.
func newFormatter(cmd *cobra.Command, format string) (report.Formatter, error) {
	cfg := config.FromContext(cmd.Context())

	f, err := report.NewFormatter(format, cfg.NoColor)
	if err != nil {
		return nil, usageError(err)
	}

	return f, nil
}

// writeReport prints result to the command's stdout.
func writeReport(cmd *cobra.Command, f report.Formatter, result *report.Result) error {
	return f.Format(cmd.OutOrStdout(), result)
}

// notesWriter returns where human-oriented extras such as diffs go. With a
// machine-readable report format they move to stderr so stdout stays
// parseable.
func notesWriter(cmd *cobra.Command, format string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return cmd.OutOrStdout()
	default:
		return cmd.ErrOrStderr()
	}
}
