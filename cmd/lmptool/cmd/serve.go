/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/lmptool/pkg/api"
	"github.com/ssargent/lmptool/pkg/interchange"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the lmptool REST API server. It converts recordings on request and
serves the library. All /api/v1 routes require the X-API-Key header;
Prometheus metrics are served unauthenticated at /metrics.

Flags override the configuration file.

Examples:
  lmptool serve
  lmptool serve --api-key=mysecretkey --port=9000 --bind=0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverConfig, err := serverConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		if serverConfig.APIKey == "" {
			return fmt.Errorf("%w: pass --api-key or run 'lmptool init'", api.ErrMissingAPIKey)
		}

		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cmd.Printf("Starting lmptool REST API server on %s:%d\n", serverConfig.Bind, serverConfig.Port)
		cmd.Printf("Metrics available at: http://%s:%d/metrics\n", serverConfig.Bind, serverConfig.Port)
		return container.GetServerStarter().StartServer(ctx, lib, serverConfig, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config)")
	serveCmd.Flags().String("bind", "", "Address to bind to (default from config)")
	serveCmd.Flags().String("api-key", "", "API key for authentication (default from config)")
	serveCmd.Flags().StringP("data-dir", "d", "", "Data directory (default from config)")
	serveCmd.Flags().Bool("strict", false, "Reject recordings that only produce warnings")
}

func serverConfigFromFlags(cmd *cobra.Command) (api.ServerConfig, error) {
	format, err := interchange.ParseFormat(cfg.Conversion.DefaultFormat)
	if err != nil {
		return api.ServerConfig{}, err
	}

	serverConfig := api.ServerConfig{
		Port:          cfg.Port,
		Bind:          cfg.Bind,
		APIKey:        cfg.Security.APIKey,
		DefaultFormat: format,
		Strict:        strictMode(cmd),
	}
	if cmd.Flags().Changed("port") {
		serverConfig.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("bind") {
		serverConfig.Bind, _ = cmd.Flags().GetString("bind")
	}
	if cmd.Flags().Changed("api-key") {
		serverConfig.APIKey, _ = cmd.Flags().GetString("api-key")
	}
	return serverConfig, nil
}
