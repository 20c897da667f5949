package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/diff"
	"github.com/sprite-ai/stagehand/internal/tui"
)

var splitCmd = &cobra.Command{
	Use:   "split [commit-range|-]",
	Short: "Propose atomic commits for the change set",
	Long: `Group changed files into commit boundaries by impact area, theme and
relationships, then order them into a staging plan with drafted commit
messages.

With --interactive the plan opens in a terminal browser where files can be
moved between commits and commits skipped. Accepting prints a shell script
that stages and commits each step.

Examples:
  stagehand split                  # working tree vs HEAD
  stagehand split --strict         # smaller commits
  stagehand split -i               # browse and edit the plan
  stagehand split --script | sh    # commit the plan as proposed`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSplit,
}

func init() {
	addDiffFlags(splitCmd)
	splitCmd.Flags().Bool("strict", false, "split into smaller commits")
	splitCmd.Flags().BoolP("interactive", "i", false, "browse and edit the plan before accepting it")
	splitCmd.Flags().Bool("script", false, "print git commands that commit the plan")
	splitCmd.Flags().StringP("patch-dir", "o", "", "write one patch per commit to this directory")
	splitCmd.Flags().String("style", diff.DefaultStyle, "syntax highlighting style for the browser")
}

type splitOutput struct {
	Options    boundary.Options          `json:"options" yaml:"options"`
	Boundaries []boundary.Boundary       `json:"boundaries" yaml:"boundaries"`
	Staging    *boundary.StagingStrategy `json:"staging" yaml:"staging"`
}

func runSplit(cmd *cobra.Command, args []string) error {
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

	opts := e.planner.Options().Boundaries
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		opts = boundary.StrictOptions()
	}
	bs := e.planner.Boundaries(changes, opts)

	patchDir, _ := cmd.Flags().GetString("patch-dir")
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		style, _ := cmd.Flags().GetString("style")
		result, err := tui.Run(bs, diff.NewHighlighter(style))
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Plan discarded.")
			return nil
		}
		e.log.Info("plan accepted", "commits", len(result.Accepted()), "skipped", len(result.Skipped))
		return finishPlan(cmd, result, patchDir, true)
	}

	out := splitOutput{
		Options:    boundary.NewAnalyzer(opts).Options(),
		Boundaries: bs,
		Staging:    boundary.SuggestStagingStrategy(bs),
	}
	script, _ := cmd.Flags().GetBool("script")
	if script || patchDir != "" {
		return finishPlan(cmd, &tui.Result{Strategy: out.Staging}, patchDir, script)
	}

	return emit(cmd, out,
		func(w io.Writer) { stagingText(w, out.Staging) },
		func(w io.Writer) { stagingMarkdown(w, out.Staging) })
}

// finishPlan writes per-commit patches and prints the commit script.
func finishPlan(cmd *cobra.Command, result *tui.Result, patchDir string, script bool) error {
	if patchDir != "" {
		paths, err := writePatches(result, patchDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d patch(es) to %s\n", len(paths), patchDir)
	}
	if script {
		fmt.Fprint(cmd.OutOrStdout(), result.Script())
	}
	return nil
}

func writePatches(result *tui.Result, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating patch directory: %w", err)
	}
	var paths []string
	for i, c := range result.Accepted() {
		name := fmt.Sprintf("%02d-%s.patch", i+1, c.Boundary.ID)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(result.Patch(c)), 0644); err != nil {
			return paths, fmt.Errorf("writing patch: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func stagingText(w io.Writer, s *boundary.StagingStrategy) {
	fmt.Fprintf(w, "%s %d commit(s), %s, overall risk %s\n",
		titleStyle.Render("Staging plan:"), len(s.Commits), s.Mode, riskText(s.OverallRisk))

	for i, c := range s.Commits {
		b := c.Boundary
		fmt.Fprintf(w, "\n%d. %s\n", i+1, titleStyle.Render(c.Message.Title))
		fmt.Fprintf(w, "   %s\n", dimStyle.Render(fmt.Sprintf("%s · %s priority · complexity %d · ~%d min · risk %s",
			b.ID, b.Priority, b.Complexity, c.EstimatedMinutes, c.Risk)))
		fmt.Fprintf(w, "   %s\n", dimStyle.Render(c.Rationale))
		for _, ch := range b.Changes {
			fmt.Fprintf(w, "     %s %s %s\n", ch.Kind.Status(), pathStyle.Render(ch.Path),
				dimStyle.Render(fmt.Sprintf("+%d -%d", ch.Insertions, ch.Deletions)))
		}
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range s.Warnings {
			fmt.Fprintf(w, "%s %s\n", warnStyle.Render("!"), warning)
		}
	}
}

func stagingMarkdown(w io.Writer, s *boundary.StagingStrategy) {
	fmt.Fprintf(w, "## Commit plan\n\n")
	fmt.Fprintf(w, "**%d commit(s)** · mode **%s** · overall risk **%s**\n\n", len(s.Commits), s.Mode, s.OverallRisk)

	for i, c := range s.Commits {
		fmt.Fprintf(w, "### %d. `%s`\n\n", i+1, c.Message.Title)
		fmt.Fprintf(w, "_%s_ (risk %s, ~%d min)\n\n", c.Rationale, c.Risk, c.EstimatedMinutes)
		for _, ch := range c.Boundary.Changes {
			fmt.Fprintf(w, "- `%s` %s +%d -%d\n", ch.Path, ch.Kind, ch.Insertions, ch.Deletions)
		}
		fmt.Fprintln(w)
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintf(w, "**Warnings**\n\n")
		for _, warning := range s.Warnings {
			fmt.Fprintf(w, "- %s\n", strings.TrimSpace(warning))
		}
	}
}
