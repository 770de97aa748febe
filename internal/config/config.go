// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Form    string `json:"form,omitempty"`    // Path to form HTML file
	FormURL string `json:"form_url,omitempty"` // URL to fetch the form from
	Profile string `json:"profile,omitempty"` // Path to profile JSON file

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key for the AI fallback
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for persistent memory
	UseBrowser  bool   `json:"use_browser,omitempty"`  // Drive a headless browser instead of dry-run output
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information

	// Timing
	JitterMinMs int `json:"jitter_min_ms,omitempty"` // Minimum pause between fills
	JitterMaxMs int `json:"jitter_max_ms,omitempty"`  // Maximum pause between fills

	// Server
	Addr string `json:"addr,omitempty"` // Listen address for serve mode
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	// Validate mutually exclusive fields
	if c.Form != "" && c.FormURL != "" {
		return fmt.Errorf("config error: 'form' and 'form_url' are mutually exclusive")
	}

	// Validate numeric ranges
	if c.JitterMinMs < 0 {
		return fmt.Errorf("config error: 'jitter_min_ms' must be non-negative")
	}
	if c.JitterMaxMs < 0 {
		return fmt.Errorf("config error: 'jitter_max_ms' must be non-negative")
	}
	if c.JitterMaxMs > 0 && c.JitterMinMs > c.JitterMaxMs {
		return fmt.Errorf("config error: 'jitter_min_ms' must not exceed 'jitter_max_ms'")
	}

	// Validate file paths exist (if specified)
	if c.Form != "" {
		if _, err := os.Stat(c.Form); os.IsNotExist(err) {
			return fmt.Errorf("config error: form file not found: %s", c.Form)
		}
	}

	if c.Profile != "" {
		if _, err := os.Stat(c.Profile); os.IsNotExist(err) {
			return fmt.Errorf("config error: profile file not found: %s", c.Profile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Form == "" {
		result.Form = defaults.Form
	}
	if result.FormURL == "" {
		result.FormURL = defaults.FormURL
	}
	if result.Profile == "" {
		result.Profile = defaults.Profile
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Addr == "" {
		if defaults.Addr != "" {
			result.Addr = defaults.Addr
		} else {
			result.Addr = ":8080"
		}
	}

	// Int fields: use default if zero
	if result.JitterMinMs == 0 {
		result.JitterMinMs = defaults.JitterMinMs
	}
	if result.JitterMaxMs == 0 {
		result.JitterMaxMs = defaults.JitterMaxMs
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
