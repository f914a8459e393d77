package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/decktools/internal/config"
	"github.com/hupe1980/decktools/internal/logging"
	"github.com/hupe1980/decktools/internal/punct"
	"github.com/hupe1980/decktools/internal/textdiff"
)

type punctOptions struct {
	dryRun bool
	diff   bool
	ext    string
	format string
}

func newPunctCommand() *cobra.Command {
	opts := &punctOptions{}

	cmd := &cobra.Command{
		Use:   "punct [path]",
		Short: "Replace full-width punctuation with ASCII equivalents",
		Long: `Punct rewrites full-width punctuation such as ， 。 ： “ ” （ ） and …
as its plain ASCII form.

The path may be a single file or a directory; directories are searched
recursively for files ending in --ext. Files without a match are left
untouched. Without a path the project's punct.path is used.`,
		Example: `  decktools punct
  decktools punct slides/intro/index.md --dry-run --diff`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := config.ProjectFromContext(cmd.Context())

			target := project.Punct.Path
			if len(args) == 1 {
				target = args[0]
			}

			if opts.ext == "" {
				opts.ext = project.Punct.Extension
			}

			return runPunct(cmd, target, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.dryRun, "dry-run", "n", false, "report changes without writing files")
	f.BoolVar(&opts.diff, "diff", false, "show a unified diff of every changed file")
	f.StringVar(&opts.ext, "ext", "", "file extension to process in directories (default: punct.extension)")
	registerFormatFlag(cmd, &opts.format)

	return cmd
}

func runPunct(cmd *cobra.Command, target string, opts *punctOptions) error {
	cfg := config.FromContext(cmd.Context())
	logger := logging.With(cmd.Context(), "punct")

	formatter, err := newFormatter(cmd, opts.format)
	if err != nil {
		return err
	}

	result, changed, err := punct.Run(target, punct.Options{
		DryRun:    opts.dryRun,
		Diff:      opts.diff,
		Extension: opts.ext,
		Logger:    logger,
	})
	if err != nil {
		if errors.Is(err, punct.ErrNotFound) {
			return usageError(err)
		}

		return err
	}

	logger.Debug("conversion finished", slog.String("target", target), slog.Int("changed", len(changed)))

	w := notesWriter(cmd, opts.format)

	if opts.dryRun {
		for _, fr := range changed {
			fmt.Fprintf(w, "[DRY RUN] would update %s\n", fr.Path)
		}
	}

	for _, fr := range changed {
		if fr.Diff != nil {
			textdiff.Write(w, fr.Diff, cfg.NoColor)
		}
	}

	return writeReport(cmd, formatter, result)
}
