package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordAll evaluates every asset of the shared assets file, writing
// provenance records to dir.
func recordAll(t *testing.T, dir string) EvaluateResult {
	t.Helper()
	out, _, err := executeWithProvenance(t, dir, "--format", "json",
		"evaluate", "--profile", conservativeProfile, "--assets", assetsFile)
	require.NoError(t, err)
	return decodeEvaluate(t, out)
}

func TestProvenanceVerify_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "records")
	result := recordAll(t, dir)
	require.Len(t, result.Decisions, 4)

	out, _, err := execute(t, "provenance", "verify", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "4 verified, 0 failed")
	for _, d := range result.Decisions {
		require.NotNil(t, d.Provenance)
		assert.Contains(t, out, "✓ "+d.Provenance.Path)
	}
}

func TestProvenanceVerify_Tampered(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "records")
	result := recordAll(t, dir)

	var target string
	for _, d := range result.Decisions {
		if d.Asset == "ABC" {
			target = d.Provenance.Path
		}
	}
	require.NotEmpty(t, target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["raw"].(map[string]any)["percent_change"] = -9
	data, err = json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(target, data, 0644))

	out, _, err := execute(t, "--format", "json", "provenance", "verify", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)

	failed := 0
	for _, check := range resp.Data.Records {
		if !check.Valid {
			failed++
			assert.Equal(t, target, check.Path)
			assert.Contains(t, check.Error, "hash mismatch")
		}
	}
	assert.Equal(t, 1, failed)
}

func TestProvenanceVerify_MissingPath(t *testing.T) {
	out, _, err := execute(t, "provenance", "verify", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
