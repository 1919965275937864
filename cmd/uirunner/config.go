package main

import (
	"fmt"

	"github.com/entrhq/uirunner/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the uirunner configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Example: `  uirunner config init
  uirunner config init --config ./uirunner.yaml --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		manager, err := config.Init(configFile, forceInit)
		if err != nil {
			return err
		}
		path := configFile
		if fs, ok := manager.Store().(*config.FileStore); ok {
			path = fs.Path()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings after file and environment overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		manager, err := config.Load(configFile, envFiles...)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return printSections(cmd, manager)
	},
}

func printSections(cmd *cobra.Command, manager *config.Manager) error {
	out := make(map[string]map[string]interface{})
	for _, section := range manager.GetSections() {
		out[section.ID()] = section.Data()
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(map[string]interface{}{"sections": out})
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Replace an existing configuration file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
