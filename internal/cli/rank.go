package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/planora/planora/internal/rank"
)

// rankFile is the YAML shape of a pairwise comparison file:
//
//	items: [deploy, docs, refactor]
//	comparisons:
//	  - better: deploy
//	    worse: docs
//	  - equal: [docs, refactor]
type rankFile struct {
	Items       []string `yaml:"items"`
	Comparisons []struct {
		Better string   `yaml:"better"`
		Worse  string   `yaml:"worse"`
		Equal  []string `yaml:"equal"`
	} `yaml:"comparisons"`
}

// RankResult is the JSON payload of the rank command.
type RankResult struct {
	Order   []string       `json:"order"`
	Scores  map[string]int `json:"scores"`
	Missing [][2]string    `json:"missing,omitempty"`
}

// NewRankCommand creates the rank command.
func NewRankCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank <comparisons-file>",
		Short: "Rank items from pairwise comparisons",
		Long: `Derive a total importance ordering from pairwise comparisons.

Reads a YAML file of "better/worse" and "equal" judgments, checks them
for contradictions, and prints the resulting order with 1-10 scores.
Pairs whose relative order is still undetermined are listed so they can
be compared next.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runRank(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read comparisons file", err)
	}

	var file rankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return WrapExitError(ExitCommandError, "failed to parse comparisons file", err)
	}

	c := rank.New()
	for _, id := range file.Items {
		c.AddItem(id)
	}
	for i, cmp := range file.Comparisons {
		switch {
		case len(cmp.Equal) == 2:
			c.AddEqual(cmp.Equal[0], cmp.Equal[1])
		case cmp.Better != "" && cmp.Worse != "":
			c.Add(cmp.Better, cmp.Worse)
		default:
			return NewExitError(ExitCommandError,
				fmt.Sprintf("comparison %d: need better/worse or a two-element equal list", i))
		}
	}

	order, err := c.TopologicalSort()
	if err != nil {
		formatter.Error(ErrCodeBadPlan, err.Error(), nil)
		return WrapExitError(ExitFailure, "comparisons are contradictory", err)
	}

	scores, err := c.MapToRankings()
	if err != nil {
		return WrapExitError(ExitFailure, "ranking failed", err)
	}

	missing, err := c.MissingComparisons()
	if err != nil {
		return WrapExitError(ExitFailure, "ranking failed", err)
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i][0] != missing[j][0] {
			return missing[i][0] < missing[j][0]
		}
		return missing[i][1] < missing[j][1]
	})

	result := RankResult{Order: order, Scores: scores, Missing: missing}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	var b strings.Builder
	b.WriteString("Ranking:\n")
	for i, id := range order {
		fmt.Fprintf(&b, "  %2d. %s (score %d)\n", i+1, id, scores[id])
	}
	if len(missing) > 0 {
		b.WriteString("\nUndetermined pairs:\n")
		for _, pair := range missing {
			fmt.Fprintf(&b, "  %s vs %s\n", pair[0], pair[1])
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}
