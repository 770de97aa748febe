package main

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImportProfileCommand_MissingProfile(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "import-profile")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "profile")
}

func TestImportProfileCommand_MissingDatabaseURL(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tmpDir := t.TempDir()
	profileFile := filepath.Join(tmpDir, "profile.json")

	cmd := exec.Command(binaryPath, "import-profile", "--profile", profileFile)

	// Filter out DATABASE_URL so the command must fail on it
	var env []string
	for _, e := range cmd.Environ() {
		if !strings.HasPrefix(e, "DATABASE_URL=") {
			env = append(env, e)
		}
	}
	cmd.Env = env

	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "DATABASE_URL environment variable or --db-url flag is required")
}
