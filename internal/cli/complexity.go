package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/stagehand/internal/complexity"
	"github.com/sprite-ai/stagehand/internal/model"
)

var complexityCmd = &cobra.Command{
	Use:   "complexity [commit-range|-]",
	Short: "Rate how hard the change set is to review",
	Long: `Score the change set from 0 to 100 using file count, changed lines,
critical and breaking changes and frameworks touched, then list warnings,
recommendations and a suggested split.

Exit codes with --exit-code:
  0 - simple enough for one commit
  1 - a split is suggested
  2 - error-level warnings found`,
	Args: cobra.MaximumNArgs(1),
	RunE: runComplexity,
}

func init() {
	addDiffFlags(complexityCmd)
	complexityCmd.Flags().Bool("exit-code", false, "exit non-zero when a split is suggested")
}

func runComplexity(cmd *cobra.Command, args []string) error {
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

	ranked := e.planner.Rank(changes)
	b := e.planner.Budget()
	a := complexity.Analyze(changes, ranked, &b)
	e.log.Debug("complexity analyzed", "score", a.Score, "category", a.Category.String())

	err = emit(cmd, a,
		func(w io.Writer) { complexityText(w, changes, a) },
		func(w io.Writer) { complexityMarkdown(w, a) })
	if err != nil {
		return err
	}
	if code, _ := cmd.Flags().GetBool("exit-code"); code {
		return complexityExit(a)
	}
	return nil
}

func complexityExit(a *complexity.Analysis) error {
	switch {
	case a.HasErrors():
		return &ExitError{Code: 2}
	case a.ShouldSplit():
		return &ExitError{Code: 1}
	default:
		return nil
	}
}

func complexityText(w io.Writer, changes []model.Change, a *complexity.Analysis) {
	printStat(w, changes)
	fmt.Fprintf(w, "%s %d/100 (%s)\n", titleStyle.Render("Complexity"), a.Score, complexityCategoryText(a.Category))
	m := a.Metrics
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  %d files · %d lines · %d critical · %d breaking · %.0f%% tests",
		m.FileCount, m.TotalLines, m.CriticalChanges, m.BreakingChanges, m.TestCoverage*100)))
	if len(m.Frameworks) > 0 {
		fmt.Fprintln(w, dimStyle.Render("  frameworks: "+strings.Join(m.Frameworks, ", ")))
	}

	if len(a.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range a.Warnings {
			fmt.Fprintf(w, "  %s %s: %s\n", severityIcon(warning.Level), warning.Title, warning.Message)
			for _, s := range warning.Suggestions {
				fmt.Fprintf(w, "      %s\n", dimStyle.Render("- "+s))
			}
		}
	}

	if len(a.Recommendations) > 0 {
		fmt.Fprintf(w, "\n%s\n", titleStyle.Render("Recommendations"))
		for _, r := range a.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}

	if a.ShouldSplit() {
		fmt.Fprintf(w, "\n%s %s\n", titleStyle.Render("Suggested split:"), a.Split.Reason)
		for i, c := range a.Split.SuggestedCommits {
			fmt.Fprintf(w, "  %d. %s\n", i+1, c.Title)
			for _, f := range c.Files {
				fmt.Fprintf(w, "       %s\n", pathStyle.Render(f))
			}
		}
	}
}

func complexityCategoryText(c complexity.Category) string {
	switch c {
	case complexity.CategoryVeryComplex:
		return errorStyle.Render(c.String())
	case complexity.CategoryComplex:
		return warnStyle.Render(c.String())
	default:
		return okStyle.Render(c.String())
	}
}

func complexityMarkdown(w io.Writer, a *complexity.Analysis) {
	fmt.Fprintf(w, "## Complexity\n\n")
	fmt.Fprintf(w, "**Score:** %d/100 (%s)\n\n", a.Score, a.Category)

	if len(a.Warnings) > 0 {
		fmt.Fprintln(w, "| Level | Warning | Detail |")
		fmt.Fprintln(w, "|-------|---------|--------|")
		for _, warning := range a.Warnings {
			fmt.Fprintf(w, "| %s | %s | %s |\n", warning.Level, mdCell(warning.Title), mdCell(warning.Message))
		}
		fmt.Fprintln(w)
	}

	for _, r := range a.Recommendations {
		fmt.Fprintf(w, "- %s\n", r)
	}

	if a.ShouldSplit() {
		fmt.Fprintf(w, "\n### Suggested split\n\n")
		for i, c := range a.Split.SuggestedCommits {
			fmt.Fprintf(w, "%d. `%s` (%s)\n", i+1, c.Title, strings.Join(c.Files, ", "))
		}
	}
}
