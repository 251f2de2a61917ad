// Package cmd holds the process entry commands.
package cmd

import (
	"fmt"
	"os"

	"food-ordering-api/config"
	"food-ordering-api/logging"

	"github.com/spf13/cobra"
)

var Version = "dev"

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd := &cobra.Command{
		Use:           "food-ordering-api",
		Short:         "Food ordering REST and WebSocket API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and configures logging for every command.
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
