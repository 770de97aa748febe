package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/autofill-agent/internal/schemas"
)

func TestProfileSchema_ValidJSON(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(".", "profile.schema.json"))
	require.NoError(t, err, "should be able to read schema file")

	var v interface{}
	err = json.Unmarshal(data, &v)
	assert.NoError(t, err, "schema file should be valid JSON")
}

func TestProfileSchema_Compiles(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(".", "profile.schema.json"))
	require.NoError(t, err)

	loader := gojsonschema.NewBytesLoader(data)
	_, err = gojsonschema.NewSchema(loader)
	assert.NoError(t, err, "schema should compile as draft-07 JSON Schema")
}

func TestProfileSchema_AcceptsMinimalProfile(t *testing.T) {
	profile := `{
		"first_name": "Jane",
		"last_name": "Doe",
		"email": "jane@example.com"
	}`

	err := schemas.ValidateJSON(filepath.Join(".", "profile.schema.json"), writeTemp(t, profile))
	assert.NoError(t, err)
}

func TestProfileSchema_RejectsMissingName(t *testing.T) {
	profile := `{"email": "jane@example.com"}`

	err := schemas.ValidateJSON(filepath.Join(".", "profile.schema.json"), writeTemp(t, profile))
	require.Error(t, err)

	validationErr, ok := err.(*schemas.ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestProfileSchema_RejectsBadEntityValue(t *testing.T) {
	profile := `{
		"first_name": "Jane",
		"last_name": "Doe",
		"email": "jane@example.com",
		"work": [{"company": 42}]
	}`

	err := schemas.ValidateJSON(filepath.Join(".", "profile.schema.json"), writeTemp(t, profile))
	require.Error(t, err)
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
