package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/autofill-agent/internal/profile"
	"github.com/jonathan/autofill-agent/internal/storage"
	"github.com/spf13/cobra"
)

var importProfileCommand = &cobra.Command{
	Use:   "import-profile",
	Short: "Validate a candidate profile and persist it to storage",
	Long:  `Validates a profile JSON file against the profile schema and writes it to the configured database so later resolve runs can load it.`,
	RunE:  runImportProfile,
}

var (
	importProfilePath string
	importDatabaseURL string
)

func init() {
	importProfileCommand.Flags().StringVarP(&importProfilePath, "profile", "p", "", "Path to candidate profile JSON file")
	importProfileCommand.Flags().StringVar(&importDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	_ = importProfileCommand.MarkFlagRequired("profile")

	rootCmd.AddCommand(importProfileCommand)
}

func runImportProfile(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	databaseURL := importDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	prof, err := loadProfile(importProfilePath)
	if err != nil {
		return err
	}

	pg, err := storage.ConnectPostgres(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pg.Close()

	if err := profile.NewStore(pg, prof).Flush(ctx); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}

	fmt.Printf("Imported profile for %s %s\n", prof.FirstName, prof.LastName)
	return nil
}
