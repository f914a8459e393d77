package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/decktools/internal/config"
	"github.com/hupe1980/decktools/internal/logging"
	"github.com/hupe1980/decktools/internal/textdiff"
	"github.com/hupe1980/decktools/internal/titles"
)

type stripTitlesOptions struct {
	dryRun bool
	diff   bool
	format string
}

func newStripTitlesCommand() *cobra.Command {
	opts := &stripTitlesOptions{}

	cmd := &cobra.Command{
		Use:   "strip-titles",
		Short: "Remove the title line from the configured slides",
		Long: `Strip-titles removes the first line of <titles.dir>/<slide>/<titles.file>
for every slide in titles.slides, provided that line starts with
titles.marker. Everything after the first line is kept byte for byte.

Missing files and files without a title line are reported as skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStripTitles(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.dryRun, "dry-run", "n", false, "report changes without writing files")
	f.BoolVar(&opts.diff, "diff", false, "show a unified diff of every changed file")
	registerFormatFlag(cmd, &opts.format)

	return cmd
}

func runStripTitles(cmd *cobra.Command, opts *stripTitlesOptions) error {
	cfg := config.FromContext(cmd.Context())
	project := config.ProjectFromContext(cmd.Context())

	formatter, err := newFormatter(cmd, opts.format)
	if err != nil {
		return err
	}

	result, outcomes := titles.Run(titles.FromConfig(project.Titles), titles.Options{
		DryRun: opts.dryRun,
		Diff:   opts.diff,
		Logger: logging.With(cmd.Context(), "strip-titles"),
	})

	w := notesWriter(cmd, opts.format)

	for _, o := range outcomes {
		if !o.Stripped {
			continue
		}

		if opts.dryRun {
			fmt.Fprintf(w, "[DRY RUN] would remove %q from %s\n", o.Title, o.Path)
		}

		if o.Diff != nil {
			textdiff.Write(w, o.Diff, cfg.NoColor)
		}
	}

	return writeReport(cmd, formatter, result)
}
