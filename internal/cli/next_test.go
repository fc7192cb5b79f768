package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/planora/internal/testutil"
)

func scheduleWeekPlan(t *testing.T) string {
	t.Helper()
	dir := writePlanDir(t, map[string]string{"plan.cue": weekPlan})
	dbPath := filepath.Join(t.TempDir(), "planora.db")
	_, _, err := execute(t, "schedule", dir, "--start", "2026-03-02", "--db", dbPath)
	require.NoError(t, err)
	return dbPath
}

func TestNext_ReturnsFirstSlot(t *testing.T) {
	dbPath := scheduleWeekPlan(t)

	out, _, err := execute(t, "next", "--db", dbPath, "--at", "2026-03-02T00:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "write-report")
}

func TestNext_AdvancesPastFinishedSlots(t *testing.T) {
	dbPath := scheduleWeekPlan(t)

	// The 90-minute report slot ends at 10:30; after that the admin
	// follow-up is next.
	out, _, err := execute(t, "next", "--db", dbPath, "--at", "2026-03-02T10:30:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "send-report")
}

func TestNext_JSONOutput(t *testing.T) {
	dbPath := scheduleWeekPlan(t)

	out, _, err := execute(t, "--format", "json", "next", "--db", dbPath, "--at", "2026-03-02T00:00:00Z")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "write-report", data["item_id"])
	assert.NotEmpty(t, data["run_id"])
}

func TestNext_EmptyScheduleAfterHorizon(t *testing.T) {
	dbPath := scheduleWeekPlan(t)

	_, _, err := execute(t, "next", "--db", dbPath, "--at", "2026-04-01T00:00:00Z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestNext_NoRunsStored(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	_, _, err := execute(t, "next", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestNext_ClockOverride(t *testing.T) {
	dbPath := scheduleWeekPlan(t)
	clock := testutil.NewFixedClock(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	runAt := func() (string, error) {
		var out, errOut bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		opts := &NextOptions{
			RootOptions: &RootOptions{Format: "text"},
			Database:    dbPath,
			Now:         clock.Now,
		}
		err := runNext(opts, cmd)
		return out.String(), err
	}

	out, err := runAt()
	require.NoError(t, err)
	assert.Contains(t, out, "write-report")

	// Past the report's 10:30 end, the admin follow-up is next.
	clock.Advance(11 * time.Hour)
	out, err = runAt()
	require.NoError(t, err)
	assert.Contains(t, out, "send-report")
}

func TestNext_BadAtInstant(t *testing.T) {
	dbPath := scheduleWeekPlan(t)

	_, _, err := execute(t, "next", "--db", dbPath, "--at", "yesterday")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
