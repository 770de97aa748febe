package main

import (
	"fmt"
	"os"

	"github.com/jonathan/autofill-agent/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for profile import and field resolution.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	// Database URL is optional; without it the server runs on in-memory storage
	databaseURL := os.Getenv("DATABASE_URL")

	// API key is optional; without it the AI fallback is disabled
	apiKey := os.Getenv("GEMINI_API_KEY")

	cfg := server.Config{
		Addr:        serveAddr,
		DatabaseURL: databaseURL,
		APIKey:      apiKey,
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
