package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/izzy/internal/config"
	"github.com/jonathan/izzy/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the resume, strategy, interview and evaluation endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	serverConfig, err := config.NewServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}
	if servePort != 0 {
		serverConfig.Port = servePort
	}

	assistantConfig, err := config.NewAssistantConfig()
	if err != nil {
		return fmt.Errorf("failed to load assistant config: %w", err)
	}

	logger := newLogger(os.Stderr, serverConfig.LogLevel)
	ctx := context.Background()

	if serveMigrate {
		if err := migrateUp(ctx, serverConfig.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	srv, err := server.New(ctx, server.Config{
		Server:    serverConfig,
		Assistant: assistantConfig,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
