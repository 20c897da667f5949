package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/stagehand/internal/diff"
	"github.com/sprite-ai/stagehand/internal/model"
)

// addDiffFlags registers the flags shared by every command that reads a diff.
func addDiffFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("staged", false, "use only changes already in the index")
	cmd.Flags().IntP("context", "C", 3, "lines of context around changes")
}

func getDiff(cmd *cobra.Command, args []string, repo string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	if repo == "" {
		return "", errors.New("not in a git repository (or git not installed); pipe a diff with '-'")
	}

	contextLines, _ := cmd.Flags().GetInt("context")
	staged, _ := cmd.Flags().GetBool("staged")
	switch {
	case len(args) == 1:
		return diff.GitDiffRange(repo, args[0], contextLines)
	case staged:
		return diff.GitDiffStaged(repo, contextLines)
	default:
		return diff.GitDiffWorkingTree(repo, contextLines)
	}
}

// readChanges resolves the diff for a command and parses it. An empty diff
// yields no changes and no error.
func readChanges(cmd *cobra.Command, args []string, e *env) ([]model.Change, error) {
	raw, err := getDiff(cmd, args, e.repo)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	changes, err := diff.ParseChanges(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}
	files, added, deleted := model.Stats(changes)
	e.log.Info("diff loaded", "files", files, "added", added, "deleted", deleted)
	return changes, nil
}

func noChanges(cmd *cobra.Command) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "No changes to plan.")
	return nil
}
