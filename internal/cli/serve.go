package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/decktools/internal/config"
	"github.com/hupe1980/decktools/internal/logging"
	"github.com/hupe1980/decktools/internal/serve"
)

type serveOptions struct {
	host     string
	port     int
	root     string
	noOpen   bool
	debounce time.Duration
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Render the deck on change and serve it with live reload",
		Long: `Serve renders the deck once, serves the project root over HTTP, and
keeps both in sync with the sources.

Changes to source files trigger a re-render through serve.render.command;
bursts of saves are debounced into one render, and renders never overlap.
Changes to rendered output reload every connected browser tab, but only
after the render that produced them has succeeded.

Responses are never cached. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	registerServeFlags(cmd, opts)

	return cmd
}

func registerServeFlags(cmd *cobra.Command, opts *serveOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "listen host (default: serve.host)")
	f.IntVarP(&opts.port, "port", "p", 0, "listen port (default: serve.port)")
	f.StringVar(&opts.root, "root", "", "directory to watch and serve (default: serve.root)")
	f.BoolVar(&opts.noOpen, "no-open", false, "do not open the browser")
	f.DurationVar(&opts.debounce, "debounce", 0, "quiet period before a rebuild (default: serve.debounce)")
}

// applyServeFlags overlays the explicitly set flags onto the configured
// serve section.
func applyServeFlags(cmd *cobra.Command, sc config.ServeConfig, opts *serveOptions) (config.ServeConfig, error) {
	f := cmd.Flags()

	if f.Changed("host") {
		sc.Host = opts.host
	}

	if f.Changed("port") {
		if opts.port < 1 || opts.port > 65535 {
			return sc, fmt.Errorf("port %d out of range 1-65535", opts.port)
		}

		sc.Port = opts.port
	}

	if f.Changed("root") {
		sc.Root = opts.root
	}

	if f.Changed("debounce") {
		if opts.debounce < 0 {
			return sc, fmt.Errorf("debounce must not be negative, got %s", opts.debounce)
		}

		sc.Debounce = opts.debounce.String()
	}

	if opts.noOpen {
		sc.Open = false
	}

	return sc, nil
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	project := config.ProjectFromContext(cmd.Context())
	logger := logging.With(cmd.Context(), "serve")

	sc, err := applyServeFlags(cmd, project.Serve, opts)
	if err != nil {
		return usageError(err)
	}

	serveOpts, err := serve.OptionsFromConfig(sc, cmd.OutOrStdout(), logger)
	if err != nil {
		return usageError(err)
	}

	srv, err := serve.New(serveOpts)
	if err != nil {
		return usageError(err)
	}

	return srv.Run(cmd.Context())
}
