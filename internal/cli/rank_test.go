package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeComparisons(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comparisons.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRank_TotalOrder(t *testing.T) {
	path := writeComparisons(t, `
items: [deploy, docs, refactor]
comparisons:
  - better: deploy
    worse: docs
  - better: docs
    worse: refactor
`)

	out, _, err := execute(t, "rank", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1. deploy")
	assert.Contains(t, out, "2. docs")
	assert.Contains(t, out, "3. refactor")
	assert.NotContains(t, out, "Undetermined")
}

func TestRank_EqualItemsShareScore(t *testing.T) {
	path := writeComparisons(t, `
items: [a, b, c]
comparisons:
  - better: a
    worse: b
  - equal: [b, c]
`)

	out, _, err := execute(t, "--format", "json", "rank", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	scores := data["scores"].(map[string]any)
	assert.Equal(t, scores["b"], scores["c"])
	assert.Greater(t, scores["a"], scores["b"])
}

func TestRank_ReportsMissingPairs(t *testing.T) {
	path := writeComparisons(t, `
items: [a, b, c]
comparisons:
  - better: a
    worse: b
`)

	out, _, err := execute(t, "rank", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Undetermined pairs")
	assert.Contains(t, out, "a vs c")
	assert.Contains(t, out, "b vs c")
}

func TestRank_ContradictionFails(t *testing.T) {
	path := writeComparisons(t, `
items: [a, b]
comparisons:
  - better: a
    worse: b
  - better: b
    worse: a
`)

	_, _, err := execute(t, "rank", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRank_MalformedComparison(t *testing.T) {
	path := writeComparisons(t, `
items: [a, b]
comparisons:
  - better: a
`)

	_, _, err := execute(t, "rank", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRank_MissingFile(t *testing.T) {
	_, _, err := execute(t, "rank", "/no/such/file.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
