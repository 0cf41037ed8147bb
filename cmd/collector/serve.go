package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerops/statement-collector/internal/config"
	"github.com/brokerops/statement-collector/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collection API server",
	Long:  `Start an HTTP server that accepts statement-collection jobs and runs them in the background.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rt, err := buildRuntime(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to build collector: %w", err)
	}
	defer rt.close()

	srv := server.New(server.Config{Port: cfg.Port, APIKey: cfg.APIKey}, rt.orchestrator, rt.store)
	return srv.Start()
}
