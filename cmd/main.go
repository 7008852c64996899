package main

import (
	"fmt"
	"os"

	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	serve := serveCmd()
	rootCmd := &cobra.Command{
		Use:     "restaurant",
		Short:   "Restaurant ordering and inventory API",
		Version: Version,
		// Running without a subcommand starts the API server
		RunE: serve.RunE,
	}
	rootCmd.Flags().AddFlagSet(serve.Flags())

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(createSuperuserCmd())
	rootCmd.AddCommand(copyStoreCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and initializes the global logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.InitLogger(&cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
