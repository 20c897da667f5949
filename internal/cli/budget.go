package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/plan"
)

var budgetCmd = &cobra.Command{
	Use:   "budget [commit-range|-]",
	Short: "Fit the diff into the model's context window",
	Long: `Compute the token budget for the configured model and prompt type,
then compress and select changes until they fit.

With --prompt the selected changes are printed as diff text ready to be
embedded in a prompt. With --models the known model limits are listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBudget,
}

func init() {
	addDiffFlags(budgetCmd)
	budgetCmd.Flags().Bool("prompt", false, "print the selected changes as prompt text")
	budgetCmd.Flags().Bool("models", false, "list known models and their context limits")
}

type budgetOutput struct {
	Budget         budget.TokenBudget               `json:"budget" yaml:"budget"`
	Allocation     *budget.Allocation               `json:"allocation,omitempty" yaml:"allocation,omitempty"`
	Recommendation *budget.CommitSizeRecommendation `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

type modelLimit struct {
	Model string `json:"model" yaml:"model"`
	Limit int    `json:"limit" yaml:"limit"`
}

func runBudget(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	if list, _ := cmd.Flags().GetBool("models"); list {
		return listModels(cmd, e.planner)
	}

	changes, err := readChanges(cmd, args, e)
	if err != nil {
		return err
	}

	out := budgetOutput{Budget: e.planner.Budget()}
	if len(changes) > 0 {
		ranked := e.planner.Rank(changes)
		_, alloc, err := e.planner.Allocate(ranked)
		if err != nil {
			return err
		}
		rec := budget.AnalyzeCommitSizeRecommendation(ranked, out.Budget)
		out.Allocation = alloc
		out.Recommendation = &rec

		if prompt, _ := cmd.Flags().GetBool("prompt"); prompt {
			fmt.Fprint(cmd.OutOrStdout(), budget.Render(alloc.SelectedChanges))
			return nil
		}
	}

	return emit(cmd, out,
		func(w io.Writer) { budgetText(w, out) },
		func(w io.Writer) { budgetMarkdown(w, out) })
}

func listModels(cmd *cobra.Command, p *plan.Planner) error {
	m := p.Budgets()
	limits := make([]modelLimit, 0)
	for _, name := range m.Models() {
		limits = append(limits, modelLimit{Model: name, Limit: m.ModelLimit(name)})
	}
	current := p.Options().Model

	return emit(cmd, limits,
		func(w io.Writer) {
			for _, l := range limits {
				marker := " "
				if l.Model == current {
					marker = okStyle.Render("*")
				}
				fmt.Fprintf(w, "%s %-24s %9d\n", marker, l.Model, l.Limit)
			}
		},
		func(w io.Writer) {
			fmt.Fprintln(w, "| Model | Context limit |")
			fmt.Fprintln(w, "|-------|---------------|")
			for _, l := range limits {
				fmt.Fprintf(w, "| `%s` | %d |\n", l.Model, l.Limit)
			}
		})
}

func budgetText(w io.Writer, out budgetOutput) {
	b := out.Budget
	fmt.Fprintf(w, "%s %s (%d tokens)\n", titleStyle.Render("Model"), b.Model, b.Total)
	fmt.Fprintf(w, "  system %d · user %d · reserved %d · %s\n",
		b.SystemPrompt, b.UserPrompt, b.Reserved, okStyle.Render(fmt.Sprintf("available %d", b.Available)))

	a := out.Allocation
	if a == nil {
		return
	}
	fmt.Fprintf(w, "\n%s %s\n", titleStyle.Render("Allocation"), a.CompressionSummary)
	fmt.Fprintf(w, "  %d/%d tokens used, %d change(s) selected, %.1f%% of importance kept\n",
		a.TokenUsage.Used, a.TokenUsage.Available, len(a.SelectedChanges), a.TokenUsage.Efficiency)
	for _, warning := range a.Warnings {
		fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("!"), warning)
	}

	rec := out.Recommendation
	if rec == nil || !rec.ShouldSplit {
		return
	}
	fmt.Fprintf(w, "\n%s %s\n", titleStyle.Render("Split recommended:"), strings.Join(rec.Reasons, "; "))
	for _, g := range rec.SuggestedGroups {
		fmt.Fprintf(w, "  %s (%d files) %s\n", g.Name, len(g.Files), dimStyle.Render(g.Rationale))
	}
}

func budgetMarkdown(w io.Writer, out budgetOutput) {
	b := out.Budget
	fmt.Fprintf(w, "## Token budget\n\n")
	fmt.Fprintln(w, "| Model | Total | System | User | Reserved | Available |")
	fmt.Fprintln(w, "|-------|-------|--------|------|----------|-----------|")
	fmt.Fprintf(w, "| `%s` | %d | %d | %d | %d | %d |\n",
		b.Model, b.Total, b.SystemPrompt, b.UserPrompt, b.Reserved, b.Available)

	a := out.Allocation
	if a == nil {
		return
	}
	fmt.Fprintf(w, "\n**Compression:** %s\n\n", a.CompressionSummary)
	for _, warning := range a.Warnings {
		fmt.Fprintf(w, "- %s\n", warning)
	}

	if rec := out.Recommendation; rec != nil && rec.ShouldSplit {
		fmt.Fprintf(w, "\n### Split recommended\n\n")
		for _, r := range rec.Reasons {
			fmt.Fprintf(w, "- %s\n", r)
		}
		for _, g := range rec.SuggestedGroups {
			fmt.Fprintf(w, "- **%s**: %s\n", g.Name, strings.Join(g.Files, ", "))
		}
	}
}
