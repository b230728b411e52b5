package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/dataflow/internal/cli"
	"github.com/spf13/cobra"
)

var (
	cfg    *cli.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dataflow",
	Short: "Dataflow is a node graph engine with typed slots and pluggable node kinds",
	Long: `Dataflow builds graphs of processing nodes whose typed output slots feed
input slots. Graphs can be inspected, served over HTTP or MCP, and saved to
files or Redis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")

		loaded, err := cli.LoadConfig(path, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("store") {
			loaded.Store.Backend, _ = cmd.Flags().GetString("store")
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded
		logger = cli.CreateLogger(cfg.LogLevel, debug)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", cli.DefaultConfigFile, "Path to the config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "", "Override the graph store backend: memory, file, redis")
}
