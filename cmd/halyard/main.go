// Package main is the entry point for the Halyard site API.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/halyard-group/halyard-web/internal/config"
	"github.com/halyard-group/halyard-web/pkg/logger"
	"github.com/halyard-group/halyard-web/pkg/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "halyard",
		Short:         "Halyard site API",
		Long:          "Serves the Halyard site API: authentication, domain checks and the inquiry form.",
		SilenceUsage:  true,
	}

	// Running without a subcommand serves the API.
	serveCmd := newServeCommand()
	root.RunE = serveCmd.RunE
	root.Flags().AddFlagSet(serveCmd.Flags())

	root.AddCommand(serveCmd, newMigrateCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// loadConfig reads the configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := "info"
	if cfg.LogLevel >= 5 {
		logLevel = "debug"
	}
	if err := logger.Initialize(logLevel, cfg.Environment == config.EnvDevelopment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Log configuration (without sensitive data)
	logger.Info("Database config: Host=%s, Port=%d, User=%s, Database=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Database)
	return cfg, nil
}
