package tui

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/model"
)

// Result holds the plan the user accepted in the browser.
type Result struct {
	Strategy *boundary.StagingStrategy
	Skipped  map[string]bool // boundary ids left out of the plan
}

// Accepted returns the commits that were not skipped, in staging order.
func (r *Result) Accepted() []boundary.StagedCommit {
	var out []boundary.StagedCommit
	for _, c := range r.Strategy.Commits {
		if !r.Skipped[c.Boundary.ID] {
			out = append(out, c)
		}
	}
	return out
}

// Patch creates a unified diff holding only the files of one commit.
func (r *Result) Patch(c boundary.StagedCommit) string {
	var b strings.Builder
	for _, ch := range c.Boundary.Changes {
		b.WriteString(formatChangePatch(ch))
	}
	return b.String()
}

// Script returns shell commands that stage and commit each accepted
// commit in order. The index is reset first so that nothing else rides
// along.
func (r *Result) Script() string {
	accepted := r.Accepted()
	if len(accepted) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("git reset --quiet\n")
	for i, c := range accepted {
		fmt.Fprintf(&b, "\n# %d. %s (%s risk)\n", i+1, c.Message.Title, c.Risk)

		paths := make([]string, 0, len(c.Boundary.Changes))
		for _, ch := range c.Boundary.Changes {
			paths = append(paths, shellQuote(ch.Path))
			if ch.OldPath != "" {
				paths = append(paths, shellQuote(ch.OldPath))
			}
		}
		fmt.Fprintf(&b, "git add -A -- %s\n", strings.Join(paths, " "))

		fmt.Fprintf(&b, "git commit -m %s", shellQuote(c.Message.Title))
		if c.Message.Body != "" {
			fmt.Fprintf(&b, " -m %s", shellQuote(c.Message.Body))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// formatChangePatch reconstructs a unified diff for a single change.
func formatChangePatch(c model.Change) string {
	var b strings.Builder

	oldPath := c.Path
	if c.OldPath != "" {
		oldPath = c.OldPath
	}
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", oldPath, c.Path)

	from, to := "a/"+oldPath, "b/"+c.Path
	switch c.Kind {
	case model.KindAdded:
		b.WriteString("new file mode 100644\n")
		from = "/dev/null"
	case model.KindDeleted:
		b.WriteString("deleted file mode 100644\n")
		to = "/dev/null"
	case model.KindRenamed:
		fmt.Fprintf(&b, "rename from %s\nrename to %s\n", oldPath, c.Path)
	}
	if len(c.Hunks) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "--- %s\n", from)
	fmt.Fprintf(&b, "+++ %s\n", to)
	for _, h := range c.Hunks {
		b.WriteString(h.Header)
		b.WriteByte('\n')
		for _, l := range h.Lines {
			b.WriteString(l.Kind.Prefix())
			b.WriteString(l.Content)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
