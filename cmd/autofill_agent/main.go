// Package main provides the entry point for the Autofill Agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autofill_agent",
	Short: "Autofill Agent form resolution engine",
	Long:  "Autofill Agent scans job application forms, classifies every field, and resolves values from a candidate profile, learned memory, and an AI fallback - via CLI or REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
