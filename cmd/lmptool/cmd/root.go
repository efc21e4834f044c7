/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/lmptool/pkg/config"
	"github.com/ssargent/lmptool/pkg/di"
	"github.com/ssargent/lmptool/pkg/logger"
)

var (
	container *di.Container
	cfg       = config.DefaultConfig()
	log       = zap.NewNop()
)

// SetContainer sets the dependency injection container
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lmptool",
	Short: "lmptool - Doom demo recording converter",
	Long: `lmptool converts Doom .lmp demo recordings to editable JSON, YAML or CBOR
documents and back, byte for byte. It can also keep a library of recordings
and serve conversions over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			container = di.NewContainer()
		}

		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Logging.Level
		if env := strings.TrimSpace(os.Getenv(logger.EnvLevel)); env != "" {
			level = env
		}
		if cmd.Flags().Changed("log-level") {
			level, _ = cmd.Flags().GetString("log-level")
		}
		l, err := logger.New(level, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		log = l
		return nil
	},
}

// loadConfig reads --config when given, otherwise the default path if a file
// exists there, otherwise the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		return config.LoadConfig(configPath)
	}
	if defaultPath := config.GetDefaultConfigPath(); config.ConfigExists(defaultPath) {
		return config.LoadConfig(defaultPath)
	}
	return config.DefaultConfig(), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (default ~/.config/lmptool/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
