package main

import (
	"fmt"
	"os"

	"github.com/entrhq/uirunner/pkg/config"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	configFile string
	envFiles   []string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "uirunner",
		Short: "uirunner - resilient browser command runner",
		Long: `uirunner drives a browser through scripted probes. Every step runs as a
recorded command with its think, transition and execution time, and waits
tolerate elements that render late or re-render mid-interaction.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				os.Setenv("UIRUNNER_LOG_LEVEL", "debug")
			}
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON, default ~/.uirunner/config.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "Environment files to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func loadConfig() (config.Browser, config.Timing, error) {
	manager, err := config.Load(configFile, envFiles...)
	if err != nil {
		return config.Browser{}, config.Timing{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config.BrowserSettings(manager), config.TimingSettings(manager), nil
}
