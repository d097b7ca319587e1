package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rahul/campaigner/pkg/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "campaigner",
	Short: "Campaigner - email and SMS nurture campaign generator",
	Long: `Campaigner plans multi-step email and SMS nurture campaigns, writes the
copy with a language model and checks it against format and compliance
rules before anyone sends it.

Without a configured provider it still plans campaigns from its built-in
cadence tables and validates copy written elsewhere.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.json", "Path to config file (JSON or YAML)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(toneCmd)
}

// loadConfig reads the --config file. A missing file means defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(configFile)
}
