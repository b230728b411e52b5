package main

import (
	"os"

	"github.com/aretw0/dataflow"
	"github.com/aretw0/dataflow/internal/cli"
	"github.com/aretw0/dataflow/internal/presentation/tui"
	"github.com/aretw0/dataflow/pkg/plugins/basic"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the registered node kinds",
	Long:  `Prints the node kinds installed by the bundled plugins, grouped by their label path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := dataflow.New(dataflow.WithPlugins(basic.New()), dataflow.WithLogger(logger))
		if err != nil {
			return err
		}
		tui.PrintCatalog(cmd.OutOrStdout(), engine.Catalog(), cli.ColorProfile(os.Stdout))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
