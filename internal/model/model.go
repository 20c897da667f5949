// Package model defines the core data types shared across stagehand.
package model

import "fmt"

// RiskLevel categorizes the risk of a change or a proposed commit.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalText renders the level by name in JSON and YAML output.
func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Severity for warnings surfaced to the caller.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Priority orders proposed commits.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalText renders the priority by name.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ChangeKind is how a file changed.
type ChangeKind int

const (
	KindModified ChangeKind = iota
	KindAdded
	KindDeleted
	KindRenamed
)

func (k ChangeKind) String() string {
	switch k {
	case KindModified:
		return "modified"
	case KindAdded:
		return "added"
	case KindDeleted:
		return "deleted"
	case KindRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name.
func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Status returns the single-letter git status for the kind.
func (k ChangeKind) Status() string {
	switch k {
	case KindAdded:
		return "A"
	case KindDeleted:
		return "D"
	case KindRenamed:
		return "R"
	default:
		return "M"
	}
}

// LineKind is the role of a single diff line.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

func (k LineKind) String() string {
	switch k {
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		return "context"
	}
}

// MarshalText renders the line kind by name.
func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Prefix returns the unified diff marker for the line kind.
func (k LineKind) Prefix() string {
	switch k {
	case LineAdded:
		return "+"
	case LineRemoved:
		return "-"
	default:
		return " "
	}
}

// Line is one row of a diff hunk.
type Line struct {
	Kind    LineKind `json:"kind" yaml:"kind"`
	Content string   `json:"content" yaml:"content"`
	Number  int      `json:"number,omitempty" yaml:"number,omitempty"` // 0 if unknown
}

// Hunk is a contiguous region of a diff.
type Hunk struct {
	Header    string `json:"header" yaml:"header"`
	StartLine int    `json:"start_line" yaml:"start_line"`
	EndLine   int    `json:"end_line" yaml:"end_line"`
	Lines     []Line `json:"lines" yaml:"lines"`
}

// Change is one modified file. Values are treated as immutable once built.
type Change struct {
	Path       string     `json:"path" yaml:"path"`
	OldPath    string     `json:"old_path,omitempty" yaml:"old_path,omitempty"`
	Kind       ChangeKind `json:"kind" yaml:"kind"`
	Insertions int        `json:"insertions" yaml:"insertions"`
	Deletions  int        `json:"deletions" yaml:"deletions"`
	Hunks      []Hunk     `json:"hunks" yaml:"hunks"`
}

// TotalLines returns insertions plus deletions.
func (c Change) TotalLines() int {
	return c.Insertions + c.Deletions
}

// AddedContent returns the text of every added line, in order.
func (c Change) AddedContent() []string {
	return c.linesOf(LineAdded)
}

// RemovedContent returns the text of every removed line, in order.
func (c Change) RemovedContent() []string {
	return c.linesOf(LineRemoved)
}

// ChangedContent returns added and removed lines in diff order.
func (c Change) ChangedContent() []string {
	var out []string
	for _, h := range c.Hunks {
		for _, l := range h.Lines {
			if l.Kind != LineContext {
				out = append(out, l.Content)
			}
		}
	}
	return out
}

func (c Change) linesOf(kind LineKind) []string {
	var out []string
	for _, h := range c.Hunks {
		for _, l := range h.Lines {
			if l.Kind == kind {
				out = append(out, l.Content)
			}
		}
	}
	return out
}

// WithHunks returns a copy of the change carrying different hunks.
// Line counts are left as they were: they describe the real change,
// not its (possibly compressed) representation.
func (c Change) WithHunks(hunks []Hunk) Change {
	c.Hunks = hunks
	return c
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s +%d -%d", c.Kind.Status(), c.Path, c.Insertions, c.Deletions)
}

// Stats returns aggregate statistics for a set of changes.
func Stats(changes []Change) (files, added, deleted int) {
	files = len(changes)
	for _, c := range changes {
		added += c.Insertions
		deleted += c.Deletions
	}
	return
}
