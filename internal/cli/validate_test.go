package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eain/internal/profile"
)

func writeProfile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_ValidProfiles(t *testing.T) {
	out, _, err := execute(t, "validate",
		conservativeProfile,
		growthProfile,
		filepath.Join("..", "profile", "testdata", "balanced.cue"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ "+conservativeProfile)
	assert.Contains(t, out, "✓ "+growthProfile)
	assert.NotContains(t, out, "✗")
}

func TestValidate_ReportsEveryFile(t *testing.T) {
	dup := writeProfile(t, "dup.yaml", "risk_tolerance: low\nexcluded_industries: [Tobacco, tobacco]\n")
	blank := writeProfile(t, "blank.yaml", "risk_tolerance: high\nexcluded_industries: [\"  \"]\n")
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	badRisk := filepath.Join("..", "profile", "testdata", "bad_risk.yaml")

	out, _, err := execute(t, "--format", "json", "validate", conservativeProfile, dup, blank, badRisk, missing)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeProfile, resp.Error.Code)

	require.Len(t, resp.Data.Files, 5)
	assert.True(t, resp.Data.Files[0].Valid)

	codes := func(fv FileValidation) []string {
		var out []string
		for _, e := range fv.Errors {
			out = append(out, e.Code)
		}
		return out
	}
	assert.Equal(t, []string{profile.ErrDuplicateIndustry}, codes(resp.Data.Files[1]))
	assert.Equal(t, []string{profile.ErrBlankIndustry}, codes(resp.Data.Files[2]))
	assert.Equal(t, []string{profile.ErrSchemaMismatch}, codes(resp.Data.Files[3]))
	assert.Equal(t, []string{profile.ErrLoadFailed}, codes(resp.Data.Files[4]))
}

func TestValidate_TextFailure(t *testing.T) {
	dup := writeProfile(t, "dup.yaml", "excluded_industries: [Gambling, Gambling]\n")

	out, _, err := execute(t, "validate", dup)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+dup)
	assert.Contains(t, out, "E104 excluded_industries[1]")
}

func TestValidate_RequiresArgs(t *testing.T) {
	_, _, err := execute(t, "validate")
	require.Error(t, err)
}
