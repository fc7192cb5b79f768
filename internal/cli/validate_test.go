package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidPlan(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": basicPlan})

	out, _, err := execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "plan is valid")
}

func TestValidate_CycleRejected(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan

task: "a": {duration: 30, depends_on: ["b"]}
task: "b": {duration: 30, depends_on: ["a"]}
`})

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "CYCLE_DETECTED")
}

func TestValidate_MissingDirectoryIsCommandError(t *testing.T) {
	_, _, err := execute(t, "validate", "/no/such/plan")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_JSONOutput(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": basicPlan})

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(2), data["items"])
}

func TestValidate_JSONReportsErrors(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan

task: "a": {duration: -5}
`})

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["valid"])
}

func TestValidate_WarnsOnDanglingDependency(t *testing.T) {
	dir := writePlanDir(t, map[string]string{"plan.cue": `
package plan

task: "a": {duration: 30, depends_on: ["deleted"]}
`})

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.NoError(t, err, "dangling references warn, they do not fail validation")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.NotEmpty(t, data["warnings"])
}
