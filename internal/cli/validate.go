package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/planora/planora/internal/graph"
)

// Issue is one validation finding, serialized in JSON output.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Files    int     `json:"files"`
	Items    int     `json:"items"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan-dir>",
		Short: "Validate a plan without scheduling",
		Long: `Validate CUE plan files without running the scheduler.

Checks plan syntax, item fields, dependency structure (self-edges,
cycles), and workflow step indexes. Faster than a full scheduling run
for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, planDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadPlan(planDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, loadErr.Message)
		}
		formatter.Error(ErrCodeGeneric, loadErrors[0].Error(), nil)
		return NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, planDir)

	result := ValidationResult{
		Files: loadResult.FileCount,
		Items: len(loadResult.Snapshot.Items),
	}

	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			result.Errors = append(result.Errors, Issue{Code: loadErr.Code, Message: loadErr.Message})
		} else {
			result.Errors = append(result.Errors, Issue{Code: ErrCodeGeneric, Message: err.Error()})
		}
	}

	// Structural checks only run against a plan that decoded cleanly.
	if len(result.Errors) == 0 {
		if err := loadResult.Snapshot.Validate(); err != nil {
			result.Errors = append(result.Errors, Issue{Code: ErrCodeBadPlan, Message: err.Error()})
		} else {
			g, warnings, err := graph.Build(loadResult.Snapshot.Items, loadResult.Snapshot.Edges)
			if err != nil {
				result.Errors = append(result.Errors, Issue{Code: ErrCodeBadPlan, Message: err.Error()})
			} else if se := g.HasCycle(); se != nil {
				result.Errors = append(result.Errors, Issue{Code: string(se.Code), Message: se.Error()})
			}
			for _, w := range warnings {
				result.Warnings = append(result.Warnings, Issue{Code: w.Code, Message: w.Message})
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	if !result.Valid {
		if opts.Format == "json" {
			formatter.Success(result)
		} else {
			for _, issue := range result.Errors {
				formatter.Error(issue.Code, issue.Message, nil)
			}
		}
		return NewExitError(ExitFailure, "plan is invalid")
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	formatter.VerboseLog("Validated %d item(s)", result.Items)
	for _, w := range result.Warnings {
		formatter.VerboseLog("warning [%s]: %s", w.Code, w.Message)
	}
	return formatter.Success("plan is valid")
}
