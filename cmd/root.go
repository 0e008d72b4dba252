package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safetyscope/safetyscope-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "safetyscope",
	Short: "NYC location safety prediction pipeline",
	Long:  "Resolves coordinates to NYPD precincts and boroughs, then runs a two-stage classifier: a binary safety gate followed by crime-type prediction.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
