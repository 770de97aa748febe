package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/autofill-agent/internal/ai"
	"github.com/jonathan/autofill-agent/internal/classify"
	"github.com/jonathan/autofill-agent/internal/config"
	"github.com/jonathan/autofill-agent/internal/execution"
	"github.com/jonathan/autofill-agent/internal/extract"
	"github.com/jonathan/autofill-agent/internal/fetch"
	"github.com/jonathan/autofill-agent/internal/llm"
	"github.com/jonathan/autofill-agent/internal/memory"
	"github.com/jonathan/autofill-agent/internal/observability"
	"github.com/jonathan/autofill-agent/internal/pipeline"
	"github.com/jonathan/autofill-agent/internal/profile"
	"github.com/jonathan/autofill-agent/internal/schemas"
	"github.com/jonathan/autofill-agent/internal/storage"
	"github.com/jonathan/autofill-agent/internal/types"
)

var resolveCommand = &cobra.Command{
	Use:   "resolve",
	Short: "Scan a form and resolve every field from the candidate profile",
	Long: `Runs the full resolution pipeline: extraction -> classification -> instance indexing -> cache/rules/memory resolution -> AI fallback -> fill.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runResolveCmd,
}

var (
	resolveConfigPath  string
	resolveForm        string
	resolveFormURL     string
	resolveProfile     string
	resolveAPIKey      string
	resolveDatabaseURL string
	resolveUseBrowser  bool
	resolveVerbose     bool
	resolveJitterMin   int
	resolveJitterMax   int
)

func init() {
	// Config file flag (processed first)
	resolveCommand.Flags().StringVar(&resolveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	resolveCommand.Flags().StringVarP(&resolveForm, "form", "f", "", "Path to form HTML file (mutually exclusive with --form-url)")
	resolveCommand.Flags().StringVar(&resolveFormURL, "form-url", "", "URL to fetch the form from (mutually exclusive with --form)")
	resolveCommand.Flags().StringVarP(&resolveProfile, "profile", "p", "", "Path to candidate profile JSON file")
	resolveCommand.Flags().BoolVar(&resolveUseBrowser, "use-browser", false, "Drive a headless browser to fill the live page (requires Chrome)")
	resolveCommand.Flags().BoolVarP(&resolveVerbose, "verbose", "v", false, "Print detailed debug information")
	resolveCommand.Flags().IntVar(&resolveJitterMin, "jitter-min-ms", 0, "Minimum pause between fills in milliseconds")
	resolveCommand.Flags().IntVar(&resolveJitterMax, "jitter-max-ms", 0, "Maximum pause between fills in milliseconds")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	resolveCommand.Flags().StringVar(&resolveAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for persistent memory
	resolveCommand.Flags().StringVar(&resolveDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(resolveCommand)
}

func runResolveCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if resolveConfigPath != "" {
		loadedCfg, err := config.LoadConfig(resolveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg = *loadedCfg
		if resolveVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", resolveConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("form") {
		cfg.Form = resolveForm
	}
	if cmd.Flags().Changed("form-url") {
		cfg.FormURL = resolveFormURL
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profile = resolveProfile
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = resolveAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = resolveDatabaseURL
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = resolveUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = resolveVerbose
	}
	if cmd.Flags().Changed("jitter-min-ms") {
		cfg.JitterMinMs = resolveJitterMin
	}
	if cmd.Flags().Changed("jitter-max-ms") {
		cfg.JitterMaxMs = resolveJitterMax
	}

	// Step 3: Apply defaults for unset values
	defaults := config.Config{
		JitterMinMs: 30,
		JitterMaxMs: 150,
	}
	cfg = cfg.MergeWithDefaults(defaults)

	// Step 4: Validate required fields
	if cfg.Form == "" && cfg.FormURL == "" {
		return fmt.Errorf("either --form or --form-url must be provided (via flag or config)")
	}
	if cfg.Profile == "" {
		return fmt.Errorf("--profile is required (via flag or config)")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 5: API key handling (optional; without it the AI fallback is disabled)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	// Step 6: Database URL handling (optional; without it memory is per-run)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	// Load and validate the candidate profile
	prof, err := loadProfile(cfg.Profile)
	if err != nil {
		return err
	}

	// Storage backend
	var kv storage.Store = storage.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pg, err := storage.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pg.Close()
		kv = pg
	}

	// Fetch or read the form HTML
	html, err := formHTML(ctx, cfg, kv)
	if err != nil {
		return err
	}

	fields, err := extract.Fields(html)
	if err != nil {
		return fmt.Errorf("failed to extract fields: %w", err)
	}

	entities := profile.NewStore(kv, prof)
	if err := entities.Flush(ctx); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}

	global, err := memory.LoadGlobal(ctx, kv)
	if err != nil {
		return fmt.Errorf("failed to load global memory: %w", err)
	}
	interactions, err := memory.LoadInteractions(ctx, kv)
	if err != nil {
		return fmt.Errorf("failed to load interaction cache: %w", err)
	}

	// AI fallback (optional)
	var resolver *ai.Resolver
	if cfg.APIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = client.Close() }()
		resolver = ai.NewResolver(client)
	}

	// Executor: live browser fill or dry-run recording
	var exec execution.Executor = execution.NewRecorder()
	if cfg.UseBrowser && cfg.FormURL != "" {
		browser, err := execution.NewBrowserExecutor(ctx, cfg.FormURL, cfg.Verbose)
		if err != nil {
			return fmt.Errorf("failed to start browser executor: %w", err)
		}
		defer browser.Close()
		exec = browser
	}

	orchestrator := pipeline.New(pipeline.Config{
		Classifier:   classify.NewHeuristicClassifier(),
		Entities:     entities,
		Global:       global,
		Interactions: interactions,
		AI:           resolver,
		Exec:         exec,
		Verbose:      cfg.Verbose,
		JitterMin:    time.Duration(cfg.JitterMinMs) * time.Millisecond,
		JitterMax:    time.Duration(cfg.JitterMaxMs) * time.Millisecond,
	})

	results := orchestrator.ExecutePipeline(ctx, fields)

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		printer.PrintProfileSummary(prof)
	}
	printer.PrintScanSummary(fields)
	printer.PrintResolutions(fields, results)
	printer.PrintSourceBreakdown(results)

	return nil
}

// loadProfile reads a profile JSON file, validates it against the profile
// schema, and unmarshals it.
func loadProfile(path string) (*types.Profile, error) {
	schemaPath := schemas.ResolveSchemaPath(schemas.ProfileSchemaFile)
	if schemaPath != "" {
		if err := schemas.ValidateJSON(schemaPath, path); err != nil {
			return nil, fmt.Errorf("profile rejected: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var prof types.Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &prof, nil
}

// formHTML returns the form HTML from the configured source: a local file,
// a cached HTTP fetch, or a headless browser render for SPA platforms.
func formHTML(ctx context.Context, cfg config.Config, kv storage.Store) (string, error) {
	if cfg.Form != "" {
		data, err := os.ReadFile(cfg.Form)
		if err != nil {
			return "", fmt.Errorf("failed to read form file: %w", err)
		}
		return string(data), nil
	}

	platform := fetch.DetectPlatform(cfg.FormURL)
	if cfg.Verbose {
		_, _ = fmt.Fprintf(os.Stdout, "Detected platform: %s\n", platform)
	}

	// Known SPA platforms skip straight to the browser
	if fetch.PlatformNeedsBrowser(platform) || cfg.UseBrowser {
		return fetch.BrowserSimple(ctx, cfg.FormURL, cfg.Verbose)
	}

	result, err := fetch.NewCachedFetcher(kv, nil).Fetch(ctx, cfg.FormURL)
	if err != nil {
		return "", err
	}

	// Fall back to the browser when the static HTML has no form to fill
	if fetch.ShouldUseBrowser(result.HTML) {
		if cfg.Verbose {
			_, _ = fmt.Fprintln(os.Stdout, "Static fetch returned no form controls, retrying with browser")
		}
		return fetch.BrowserSimple(ctx, cfg.FormURL, cfg.Verbose)
	}

	return result.HTML, nil
}
