package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan [commit-range|-]",
	Short: "Run the whole pipeline and report (non-interactive)",
	Long: `Rank, budget, rate and split the change set in one pass. When the
change set is complex, boundaries are recomputed with strict options.
Useful for CI, pre-commit hooks and piping into other tools.

Exit codes with --exit-code:
  0 - fits in one commit
  1 - a split is suggested
  2 - error-level complexity warnings found`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	addDiffFlags(planCmd)
	planCmd.Flags().Bool("strict", false, "always use strict boundary options")
	planCmd.Flags().Bool("exit-code", false, "exit non-zero when a split is suggested")
}

func runPlan(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	changes, err := readChanges(cmd, args, e)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return noChanges(cmd)
	}

	p := e.planner
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		opts := p.Options()
		opts.Boundaries = boundary.StrictOptions()
		p = p.With(opts)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	report, err := p.Run(ctx, changes)
	if err != nil {
		return err
	}

	err = emit(cmd, report,
		func(w io.Writer) { planText(w, report) },
		func(w io.Writer) { planMarkdown(w, report) })
	if err != nil {
		return err
	}
	if code, _ := cmd.Flags().GetBool("exit-code"); code {
		return complexityExit(report.Complexity)
	}
	return nil
}

func planText(w io.Writer, r *plan.Report) {
	fmt.Fprintf(w, "%d file(s) changed, %d insertions(+), %d deletions(-)\n",
		r.Stats.Files, r.Stats.Added, r.Stats.Deleted)
	fmt.Fprintf(w, "%s %s, %d of %d tokens available\n",
		titleStyle.Render("Budget"), r.Budget.Model, r.Budget.Available, r.Budget.Total)
	fmt.Fprintf(w, "  %s\n", r.Allocation.CompressionSummary)
	fmt.Fprintf(w, "%s %d/100 (%s)\n",
		titleStyle.Render("Complexity"), r.Complexity.Score, complexityCategoryText(r.Complexity.Category))
	for _, warning := range r.Complexity.Warnings {
		fmt.Fprintf(w, "  %s %s\n", severityIcon(warning.Level), warning.Title)
	}
	if r.Strict {
		fmt.Fprintln(w, warnStyle.Render("Complex change set: boundaries use strict options."))
	}
	fmt.Fprintln(w)
	stagingText(w, r.Staging)
}

func planMarkdown(w io.Writer, r *plan.Report) {
	fmt.Fprintf(w, "## Stagehand report\n\n")
	fmt.Fprintf(w, "**%d file(s)** changed, **+%d** insertions, **-%d** deletions\n\n",
		r.Stats.Files, r.Stats.Added, r.Stats.Deleted)
	fmt.Fprintf(w, "**Model:** `%s` · **Available:** %d tokens · **Compression:** %s\n\n",
		r.Budget.Model, r.Budget.Available, r.Allocation.Level.Level)
	fmt.Fprintf(w, "**Complexity:** %d/100 (%s)", r.Complexity.Score, r.Complexity.Category)
	if r.Strict {
		fmt.Fprint(w, " · strict boundaries")
	}
	fmt.Fprint(w, "\n\n")
	for _, rec := range r.Complexity.Recommendations {
		fmt.Fprintf(w, "- %s\n", rec)
	}
	if len(r.Complexity.Recommendations) > 0 {
		fmt.Fprintln(w)
	}
	stagingMarkdown(w, r.Staging)
}
