// Package diff handles parsing git diffs into structured change records.
package diff

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/sprite-ai/stagehand/internal/model"
)

// File represents a single file in a diff with its parsed fragments.
type File struct {
	OldName      string
	NewName      string
	IsNew        bool
	IsDeleted    bool
	IsRenamed    bool
	IsBinary     bool
	Fragments    []*gitdiff.TextFragment
	AddedLines   int
	DeletedLines int
}

// Name returns the path the file is known by after the change.
func (f *File) Name() string {
	if f.IsDeleted {
		return f.OldName
	}
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

// Kind maps the git flags onto a change kind.
func (f *File) Kind() model.ChangeKind {
	switch {
	case f.IsNew:
		return model.KindAdded
	case f.IsDeleted:
		return model.KindDeleted
	case f.IsRenamed:
		return model.KindRenamed
	default:
		return model.KindModified
	}
}

// Change converts the parsed file into a change record.
func (f *File) Change() model.Change {
	c := model.Change{
		Path:       f.Name(),
		Kind:       f.Kind(),
		Insertions: f.AddedLines,
		Deletions:  f.DeletedLines,
	}
	if f.IsRenamed {
		c.OldPath = f.OldName
	}

	for _, frag := range f.Fragments {
		c.Hunks = append(c.Hunks, convertFragment(frag))
	}
	return c
}

func convertFragment(frag *gitdiff.TextFragment) model.Hunk {
	h := model.Hunk{
		Header:    FormatHunkHeader(frag),
		StartLine: int(frag.NewPosition),
		EndLine:   int(frag.NewPosition + frag.NewLines - 1),
	}
	if frag.NewLines == 0 {
		h.StartLine = int(frag.OldPosition)
		h.EndLine = int(frag.OldPosition + frag.OldLines - 1)
	}
	if h.EndLine < h.StartLine {
		h.EndLine = h.StartLine
	}

	oldLine := int(frag.OldPosition)
	newLine := int(frag.NewPosition)
	for _, line := range frag.Lines {
		l := model.Line{Content: strings.TrimRight(line.Line, "\r\n")}
		switch line.Op {
		case gitdiff.OpAdd:
			l.Kind = model.LineAdded
			l.Number = newLine
			newLine++
		case gitdiff.OpDelete:
			l.Kind = model.LineRemoved
			l.Number = oldLine
			oldLine++
		default:
			l.Kind = model.LineContext
			l.Number = newLine
			oldLine++
			newLine++
		}
		h.Lines = append(h.Lines, l)
	}
	return h
}

// FormatHunkHeader renders the @@ header line of a fragment.
func FormatHunkHeader(frag *gitdiff.TextFragment) string {
	old := fmt.Sprintf("-%d", frag.OldPosition)
	if frag.OldLines != 1 {
		old += fmt.Sprintf(",%d", frag.OldLines)
	}
	new := fmt.Sprintf("+%d", frag.NewPosition)
	if frag.NewLines != 1 {
		new += fmt.Sprintf(",%d", frag.NewLines)
	}

	header := fmt.Sprintf("@@ %s %s @@", old, new)
	if frag.Comment != "" {
		header += " " + frag.Comment
	}
	return header
}

// DiffSet holds the parsed diff for all files.
type DiffSet struct {
	Files []*File
	Raw   string // the raw unified diff text
}

// Stats returns aggregate statistics.
func (ds *DiffSet) Stats() (files, added, deleted int) {
	files = len(ds.Files)
	for _, f := range ds.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// Changes returns one change record per file, in diff order. Binary files
// carry no hunks but are still reported so that commit planning sees them.
func (ds *DiffSet) Changes() []model.Change {
	changes := make([]model.Change, 0, len(ds.Files))
	for _, f := range ds.Files {
		changes = append(changes, f.Change())
	}
	return changes
}

// Parse reads a unified diff string and returns a DiffSet.
func Parse(raw string) (*DiffSet, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	ds := &DiffSet{Raw: raw}
	for _, f := range parsed {
		df := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
		}

		for _, frag := range f.TextFragments {
			df.Fragments = append(df.Fragments, frag)
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					df.AddedLines++
				case gitdiff.OpDelete:
					df.DeletedLines++
				}
			}
		}

		ds.Files = append(ds.Files, df)
	}

	return ds, nil
}

// ParseChanges parses a unified diff straight into change records.
func ParseChanges(raw string) ([]model.Change, error) {
	ds, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return ds.Changes(), nil
}

// GitDiff runs `git diff` with the given arguments and returns the raw output.
func GitDiff(repoDir string, args ...string) (string, error) {
	cmdArgs := append([]string{"diff", "--no-color", "--no-ext-diff"}, args...)
	cmd := exec.Command("git", cmdArgs...)
	cmd.Dir = repoDir
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}

	return string(out), nil
}

// GitDiffWorkingTree returns uncommitted changes (staged and unstaged) against HEAD.
func GitDiffWorkingTree(repoDir string, contextLines int) (string, error) {
	return GitDiff(repoDir, fmt.Sprintf("-U%d", contextLines), "HEAD")
}

// GitDiffStaged returns only the changes already in the index.
func GitDiffStaged(repoDir string, contextLines int) (string, error) {
	return GitDiff(repoDir, fmt.Sprintf("-U%d", contextLines), "--cached")
}

// GitDiffRange returns the diff for a commit range like "main...HEAD".
func GitDiffRange(repoDir string, commitRange string, contextLines int) (string, error) {
	return GitDiff(repoDir, fmt.Sprintf("-U%d", contextLines), commitRange)
}

// RepoRoot returns the top-level directory of the enclosing git repository.
func RepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
