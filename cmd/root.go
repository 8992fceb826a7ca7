package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/caresched/config"
	"github.com/kilianp07/caresched/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "caresched",
	Short:         "Caretaker schedule generator and optimizer",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}
