package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	out, _, err := executeCommand(t, "validate", "--catalog", catalogDir, queriesDir)
	require.NoError(t, err)
	assertGolden(t, "validate_text", out)
}

func TestValidate_ValidJSON(t *testing.T) {
	out, _, err := executeCommand(t, "validate", "--format", "json", "--catalog", catalogDir, queriesDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"dated", "keys", "per_code"}, resp.Data.Queries)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	out, _, err := executeCommand(t, "validate", "--format", "json", "--catalog", catalogDir, invalidDir, queriesDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, []string{"dated", "keys", "per_code"}, resp.Data.Queries)

	require.Len(t, resp.Data.Errors, 3)
	byFile := map[string]ValidationError{}
	for _, e := range resp.Data.Errors {
		byFile[filepath.Base(e.File)] = e
	}
	assert.Equal(t, ErrCodeCompile, byFile["bad_property.yaml"].Code)
	assert.Equal(t, `select: unknown property "nope" of Test`, byFile["bad_property.yaml"].Message)
	assert.Equal(t, ErrCodeDefinition, byFile["broken.yaml"].Code)
	assert.Contains(t, byFile["broken.yaml"].Message, "limt")
	assert.Equal(t, ErrCodeResolve, byFile["unjoined.yaml"].Code)
	assert.Contains(t, byFile["unjoined.yaml"].Message, "JOIN_LOOKUP")

	require.NotNil(t, resp.Error)
	assert.Equal(t, resp.Data.Errors[0].Code, resp.Error.Code)
}

func TestValidate_Text(t *testing.T) {
	out, _, err := executeCommand(t, "validate", "--catalog", catalogDir, filepath.Join(invalidDir, "bad_property.yaml"))
	require.Error(t, err)
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E021: select: unknown property")
}

func TestValidate_MissingCatalog(t *testing.T) {
	out, _, err := executeCommand(t, "validate", queriesDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidate_Verbose(t *testing.T) {
	_, stderr, err := executeCommand(t, "validate", "-v", "--catalog", catalogDir, filepath.Join(queriesDir, "keys.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "Validating 1 query definition(s)")
}
