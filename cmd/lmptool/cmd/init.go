/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/lmptool/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Write a default configuration file with a freshly generated API key.

This command will:
- Create the configuration directory
- Generate a random API key for the REST API
- Record the data directory for the library

Examples:
  lmptool init
  lmptool init --config ./lmptool.yaml --data-dir ./demos --print-key`,
	Args: cobra.NoArgs,
	// The config file may not exist yet, so skip the root's loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")
		printKey, _ := cmd.Flags().GetBool("print-key")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", configPath)
			return nil
		}

		created, err := config.BootstrapConfig(configPath, dataDir)
		if err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}

		cmd.Printf("Configuration created at %s\n", configPath)
		cmd.Printf("Data directory: %s\n", created.DataDir)
		if printKey {
			cmd.Printf("API key: %s\n", created.Security.APIKey)
		}
		cmd.Printf("\nYou can now start the server with:\n")
		cmd.Printf("  lmptool serve --config %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("data-dir", "d", "", "Data directory for the library (default ./data)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
}
