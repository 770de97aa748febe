package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/autofill-agent/internal/config"
	"github.com/jonathan/autofill-agent/internal/storage"
)

func TestResolveCommand_MissingFlags(t *testing.T) {
	binaryPath := getBinaryPath(t)

	// Missing all required flags for 'resolve'
	cmd := exec.Command(binaryPath, "resolve")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "either --form or --form-url must be provided")
}

func TestResolveCommand_MissingProfile(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tmpDir := t.TempDir()
	formFile := filepath.Join(tmpDir, "form.html")
	_ = os.WriteFile(formFile, []byte("<form><input name='first_name'></form>"), 0644)

	cmd := exec.Command(binaryPath, "resolve", "--form", formFile)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "--profile is required")
}

func TestResolveCommand_DryRun(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tmpDir := t.TempDir()
	formFile := filepath.Join(tmpDir, "form.html")
	formHTML := `<form>
		<label for="fn">First Name</label><input id="fn" name="first_name" type="text">
		<label for="em">Email</label><input id="em" name="email" type="email">
	</form>`
	_ = os.WriteFile(formFile, []byte(formHTML), 0644)

	profileFile := filepath.Join(tmpDir, "profile.json")
	profileJSON := `{
  "first_name": "Jane",
  "last_name": "Doe",
  "email": "jane@example.com"
}`
	_ = os.WriteFile(profileFile, []byte(profileJSON), 0644)

	cmd := exec.Command(binaryPath, "resolve", "--form", formFile, "--profile", profileFile)
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, string(output), "FORM SCAN")
	assert.Contains(t, string(output), "Jane")
	assert.Contains(t, string(output), "jane@example.com")
}

func TestLoadProfile_Valid(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "profile.json")
	_ = os.WriteFile(path, []byte(`{
  "first_name": "Jane",
  "last_name": "Doe",
  "email": "jane@example.com",
  "skills": ["Go"]
}`), 0644)

	prof, err := loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane", prof.FirstName)
	assert.Equal(t, []string{"Go"}, prof.Skills)
}

func TestLoadProfile_SchemaRejection(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "profile.json")

	// Missing required last_name and email
	_ = os.WriteFile(path, []byte(`{"first_name": "Jane"}`), 0644)

	_, err := loadProfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile rejected")
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := loadProfile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestFormHTML_LocalFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "form.html")
	_ = os.WriteFile(path, []byte("<form><input name='email'></form>"), 0644)

	html, err := formHTML(context.Background(), config.Config{Form: path}, storage.NewMemoryStore())
	require.NoError(t, err)
	assert.Contains(t, html, "name='email'")
}

func TestFormHTML_StaticFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><form>
			<input type="text" name="first_name">
			<input type="email" name="email">
		</form></body></html>`))
	}))
	defer server.Close()

	html, err := formHTML(context.Background(), config.Config{FormURL: server.URL}, storage.NewMemoryStore())
	require.NoError(t, err)
	assert.Contains(t, html, `name="first_name"`)
}
