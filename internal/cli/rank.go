package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/ranking"
)

var rankCmd = &cobra.Command{
	Use:   "rank [commit-range|-]",
	Short: "Score changed files by importance",
	Long: `Score every changed file by file type, change kind, content and size,
and estimate what it costs in model context.

Examples:
  stagehand rank                   # working tree vs HEAD
  stagehand rank HEAD~3..HEAD      # last three commits
  git diff | stagehand rank -      # pipe any diff`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRank,
}

func init() {
	addDiffFlags(rankCmd)
	rankCmd.Flags().IntP("top", "n", 0, "list only the N most important files (totals still cover all)")
	rankCmd.Flags().Bool("reasons", true, "show why each file scored as it did")
}

func runRank(cmd *cobra.Command, args []string) error {
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

	result := e.planner.Rank(changes)
	if top, _ := cmd.Flags().GetInt("top"); top > 0 && top < len(result.RankedChanges) {
		result.RankedChanges = result.RankedChanges[:top]
	}
	showReasons, _ := cmd.Flags().GetBool("reasons")

	return emit(cmd, result,
		func(w io.Writer) { rankText(w, changes, result, showReasons) },
		func(w io.Writer) { rankMarkdown(w, changes, result) })
}

func rankText(w io.Writer, changes []model.Change, r *ranking.Result, showReasons bool) {
	printStat(w, changes)
	b := r.Breakdown
	fmt.Fprintf(w, "Estimated tokens: %d  %s\n\n", r.TotalTokens,
		dimStyle.Render(fmt.Sprintf("critical %d · high %d · medium %d · low %d", b.Critical, b.High, b.Medium, b.Low)))

	for _, rc := range r.RankedChanges {
		imp := rc.Importance
		fmt.Fprintf(w, "  %.2f  %s %6d tok  %s %s\n",
			imp.Score, categoryText(imp.Category), imp.EstimatedTokens,
			rc.Change.Kind.Status(), pathStyle.Render(rc.Change.Path))
		if showReasons {
			for _, reason := range imp.Reasons {
				fmt.Fprintf(w, "        %s\n", dimStyle.Render("- "+reason))
			}
		}
	}
}

func categoryText(c ranking.Category) string {
	s := fmt.Sprintf("%-8s", c)
	switch c {
	case ranking.CategoryCritical:
		return errorStyle.Render(s)
	case ranking.CategoryHigh:
		return warnStyle.Render(s)
	default:
		return s
	}
}

func rankMarkdown(w io.Writer, changes []model.Change, r *ranking.Result) {
	files, added, deleted := model.Stats(changes)
	fmt.Fprintf(w, "## Change ranking\n\n")
	fmt.Fprintf(w, "**%d file(s)** changed, **+%d** insertions, **-%d** deletions, **%d** estimated tokens\n\n",
		files, added, deleted, r.TotalTokens)

	fmt.Fprintln(w, "| Score | Category | Tokens | File | Reasons |")
	fmt.Fprintln(w, "|-------|----------|--------|------|---------|")
	for _, rc := range r.RankedChanges {
		imp := rc.Importance
		fmt.Fprintf(w, "| %.2f | %s | %d | `%s` | %s |\n",
			imp.Score, imp.Category, imp.EstimatedTokens, rc.Change.Path,
			mdCell(strings.Join(imp.Reasons, "; ")))
	}
}
