package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/planora/planora/internal/avail"
	"github.com/planora/planora/internal/scheduler"
	"github.com/planora/planora/internal/store"
)

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	*RootOptions
	Database string
	Mode     string
	Start    string
	Days     int
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schedule <plan-dir>",
		Short: "Compute a schedule for a plan",
		Long: `Load a CUE plan, run the scheduling engine, and print the schedule.

With --db, the input snapshot and the run result are persisted: the
snapshot content-addressed by hash, the run under a fresh UUID.

Example:
  planora schedule ./plan
  planora schedule ./plan --mode balanced --days 14 --db ~/.planora.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (optional; persists the run)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "optimal", "scheduling mode (optimal|balanced)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "horizon start date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&opts.Days, "days", 7, "planning horizon in days")

	return cmd
}

func runSchedule(opts *ScheduleOptions, planDir string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if opts.Start != "" {
		parsed, err := time.Parse("2006-01-02", opts.Start)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --start date", err)
		}
		start = parsed
	}

	loadResult, loadErrors := LoadPlan(planDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		formatter.Error(ErrCodeLoadFailed, loadErrors[0].Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load plan", loadErrors[0])
	}

	slog.Info("plan loaded", "items", len(loadResult.Snapshot.Items), "files", loadResult.FileCount)

	req := scheduler.Request{
		Snapshot:     loadResult.Snapshot,
		Availability: loadResult.Availability,
		Mode:         scheduler.Mode(opts.Mode),
		Horizon:      avail.Horizon{Start: start, Days: opts.Days},
	}

	result, err := scheduler.Run(req, scheduler.DefaultConfig())
	if err != nil {
		formatter.Error(ErrCodeBadPlan, err.Error(), nil)
		return WrapExitError(ExitFailure, "scheduling failed", err)
	}

	if opts.Database != "" {
		if err := persistRun(cmd.Context(), opts, &req, result); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist run", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderSchedule(result))
	return nil
}

func persistRun(ctx context.Context, opts *ScheduleOptions, req *scheduler.Request, result *scheduler.Result) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	hash, err := st.SaveSnapshot(ctx, &req.Snapshot)
	if err != nil {
		return err
	}

	runID := uuid.Must(uuid.NewV7()).String()
	rec := store.RunRecord{
		ID:           runID,
		SnapshotHash: hash,
		Mode:         req.Mode,
		HorizonStart: req.Horizon.Start,
		HorizonDays:  req.Horizon.Days,
		Result:       result,
	}
	if err := st.SaveRun(ctx, rec); err != nil {
		return err
	}

	slog.Info("run persisted", "run_id", runID, "snapshot", hash[:12])
	return nil
}

// renderSchedule formats a schedule result for human consumption,
// grouped by day.
func renderSchedule(result *scheduler.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Schedule (%s mode)\n", result.Mode)

	currentDay := ""
	for _, slot := range sortedSlots(result) {
		if slot.Day != currentDay {
			currentDay = slot.Day
			fmt.Fprintf(&b, "\n%s\n", currentDay)
		}
		fmt.Fprintf(&b, "  %s-%s  %s",
			slot.Start.Format("15:04"), slot.End.Format("15:04"), slot.ItemID)
		if slot.Waiting() {
			fmt.Fprintf(&b, "  (waiting until %s)", slot.WaitUntil.Format("Jan 2 15:04"))
		}
		b.WriteString("\n")
	}

	if len(result.UnscheduledTasks) > 0 {
		b.WriteString("\nUnscheduled:\n")
		for _, u := range result.UnscheduledTasks {
			fmt.Fprintf(&b, "  %s (%s)\n", u.ItemID, u.Reason)
		}
	}
	if len(result.Conflicts) > 0 {
		b.WriteString("\nConflicts:\n")
		for _, c := range result.Conflicts {
			fmt.Fprintf(&b, "  %s\n", c.Description)
		}
	}
	if len(result.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "  [%s] %s\n", w.Code, w.Message)
		}
	}

	return b.String()
}

// sortedSlots returns the scheduled slots in start-time order.
func sortedSlots(result *scheduler.Result) []scheduler.ScheduledSlot {
	slots := make([]scheduler.ScheduledSlot, len(result.ScheduledItems))
	copy(slots, result.ScheduledItems)
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots
}

// configureLogging sets the default slog handler level from the
// verbose flag. Logs go to stderr so JSON output stays parseable.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
