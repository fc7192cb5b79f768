package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/planora/planora/internal/store"
)

// NextOptions holds flags for the next command.
type NextOptions struct {
	*RootOptions
	Database string
	At       string

	// Now allows overriding the clock (for testing). If nil, defaults
	// to time.Now.
	Now func() time.Time
}

// NextResult is the JSON payload of the next command.
type NextResult struct {
	ItemID string    `json:"item_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	RunID  string    `json:"run_id"`
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NextOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next actionable item from the latest run",
		Long: `Look up the most recent persisted scheduling run and print the next
actionable item: the earliest scheduled slot that has not yet ended.

Example:
  planora next --db ~/.planora.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.At, "at", "", "evaluate at this RFC 3339 instant (default now)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runNext(opts *NextOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	now := time.Now().UTC()
	if opts.Now != nil {
		now = opts.Now()
	}
	if opts.At != "" {
		parsed, err := time.Parse(time.RFC3339, opts.At)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --at instant", err)
		}
		now = parsed
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rec, err := st.LatestRun(ctx)
	if errors.Is(err, store.ErrNotFound) {
		formatter.Error(ErrCodeNotFound, "no scheduling runs stored; run `planora schedule` first", nil)
		return NewExitError(ExitCommandError, "no runs stored")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load latest run", err)
	}

	formatter.VerboseLog("latest run %s (%d scheduled items)", rec.ID, len(rec.Result.ScheduledItems))

	itemID, ok := rec.Result.NextScheduledItem(now)
	if !ok {
		formatter.Error(ErrCodeGeneric, "nothing left on the schedule", nil)
		return NewExitError(ExitFailure, "nothing left on the schedule")
	}

	slot, _ := rec.Result.SlotFor(itemID)
	if opts.Format == "json" {
		return formatter.Success(NextResult{
			ItemID: itemID,
			Start:  slot.Start,
			End:    slot.End,
			RunID:  rec.ID,
		})
	}
	return formatter.Success(fmt.Sprintf("%s  %s-%s", itemID,
		slot.Start.Format("Jan 2 15:04"), slot.End.Format("15:04")))
}
