package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/decktools/internal/config"
)

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective project configuration",
		Long: `Config prints the project sections after defaults, the config file and
DECKTOOLS_* environment variables have been merged. The output is valid
.decktools.yaml content.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.ProjectFromContext(cmd.Context()).YAML()
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}
}
