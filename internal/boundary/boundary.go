// Package boundary groups changed files into proposed commits and orders
// them into a staging plan.
package boundary

import (
	"fmt"
	"math"
	"strings"

	"github.com/sprite-ai/stagehand/internal/model"
)

// ImpactGroup is the coarse area of the codebase a file belongs to.
type ImpactGroup string

const (
	GroupTests         ImpactGroup = "tests"
	GroupDocumentation ImpactGroup = "documentation"
	GroupConfiguration ImpactGroup = "configuration"
	GroupDatabase      ImpactGroup = "database"
	GroupAPI           ImpactGroup = "api"
	GroupUI            ImpactGroup = "ui"
	GroupBusinessLogic ImpactGroup = "business_logic"
	GroupMixed         ImpactGroup = "mixed"
)

// Synthesis order. Mixed comes last as the catch-all.
var groupOrder = []ImpactGroup{
	GroupTests,
	GroupDocumentation,
	GroupConfiguration,
	GroupDatabase,
	GroupAPI,
	GroupUI,
	GroupBusinessLogic,
	GroupMixed,
}

// Priority returns how early a group's commit should be considered.
func (g ImpactGroup) Priority() model.Priority {
	switch g {
	case GroupBusinessLogic, GroupAPI, GroupDatabase:
		return model.PriorityHigh
	case GroupUI, GroupConfiguration:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// Boundary is one proposed atomic commit.
type Boundary struct {
	ID           string         `json:"id" yaml:"id"`
	Changes      []model.Change `json:"changes" yaml:"changes"`
	Reasoning    string         `json:"reasoning" yaml:"reasoning"`
	Priority     model.Priority `json:"priority" yaml:"priority"`
	Complexity   int            `json:"complexity" yaml:"complexity"`
	Dependencies []string       `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Theme        string         `json:"theme" yaml:"theme"`
	Group        ImpactGroup    `json:"group" yaml:"group"`
}

// Files returns the paths in the boundary, in order.
func (b Boundary) Files() []string {
	paths := make([]string, len(b.Changes))
	for i, c := range b.Changes {
		paths[i] = c.Path
	}
	return paths
}

// WithChanges returns a copy of the boundary holding changes, with its
// complexity recomputed. The theme, priority and reasoning are kept.
func (b Boundary) WithChanges(changes []model.Change) Boundary {
	b.Changes = changes
	b.Complexity = complexityOf(changes)
	return b
}

// Options tune boundary optimization.
type Options struct {
	// Boundaries with more files than this are split.
	SplitThreshold int `json:"split_threshold" yaml:"split_threshold" mapstructure:"split_threshold"`
	// Files per part when splitting.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`
	// Single-file boundaries merge only into same-theme boundaries with
	// fewer files than this.
	MergeLimit int `json:"merge_limit" yaml:"merge_limit" mapstructure:"merge_limit"`
}

// DefaultOptions split above 8 files into parts of 4 and merge singletons
// into boundaries of fewer than 4 files.
func DefaultOptions() Options {
	return Options{SplitThreshold: 8, ChunkSize: 4, MergeLimit: 4}
}

// StrictOptions produce smaller commits, for change sets already flagged
// as complex.
func StrictOptions() Options {
	return Options{SplitThreshold: 4, ChunkSize: 2, MergeLimit: 2}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.SplitThreshold <= 0 {
		o.SplitThreshold = d.SplitThreshold
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.MergeLimit <= 0 {
		o.MergeLimit = d.MergeLimit
	}
	return o
}

// smallSetSize is the largest change set kept as a single commit.
const smallSetSize = 3

// Analyzer detects commit boundaries. It holds no state between calls and
// is safe for concurrent use.
type Analyzer struct {
	opts Options
}

// NewAnalyzer returns an analyzer using opts; zero fields take defaults.
func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{opts: opts.normalized()}
}

// Options returns the effective options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// AnalyzeCommitBoundaries runs boundary detection with default options.
func AnalyzeCommitBoundaries(changes []model.Change) []Boundary {
	return NewAnalyzer(DefaultOptions()).Analyze(changes)
}

// Analyze partitions changes into boundaries. Every input file ends up in
// exactly one boundary.
func (a *Analyzer) Analyze(changes []model.Change) []Boundary {
	if len(changes) == 0 {
		return []Boundary{}
	}
	if len(changes) <= smallSetSize {
		return []Boundary{singleBoundary(changes)}
	}

	rels := FindRelationships(changes)
	graph := BuildDependencyGraph(changes)

	work := synthesize(changes)
	work = a.split(work)
	work = a.merge(work)
	return freeze(work, rels, graph)
}

func singleBoundary(changes []model.Change) Boundary {
	group := groupOf(changes[0].Path)
	priority := model.PriorityLow
	for _, c := range changes {
		g := groupOf(c.Path)
		if g != group {
			group = GroupMixed
		}
		if p := g.Priority(); p > priority {
			priority = p
		}
	}
	b := Boundary{
		ID:         "changes",
		Changes:    append([]model.Change(nil), changes...),
		Priority:   priority,
		Complexity: complexityOf(changes),
		Theme:      DetectTheme(changes),
		Group:      group,
	}
	b.Reasoning = fmt.Sprintf("small change set (%d files) kept as one commit", len(changes))
	if s := summarizeRelationships(FindRelationships(changes), pathSet(changes)); s != "" {
		b.Reasoning += "; " + s
	}
	return b
}

// draft is a boundary under construction. Optimization mutates drafts in
// place; freeze turns them into Boundary values.
type draft struct {
	id      string
	group   ImpactGroup
	theme   string
	changes []model.Change
	part    int // 1-based part number after a split, 0 if not split
	parts   int
	merged  []string // paths absorbed from singleton boundaries
	dead    bool
}

// synthesize creates one draft per non-empty impact group in groupOrder.
func synthesize(changes []model.Change) []*draft {
	byGroup := make(map[ImpactGroup][]model.Change)
	claimed := make(map[string]bool)
	for _, c := range changes {
		if claimed[c.Path] {
			continue
		}
		claimed[c.Path] = true
		g := groupOf(c.Path)
		byGroup[g] = append(byGroup[g], c)
	}

	var work []*draft
	for _, g := range groupOrder {
		cs := byGroup[g]
		if len(cs) == 0 {
			continue
		}
		d := &draft{id: string(g), group: g, changes: cs}
		if g == GroupMixed {
			d.theme = mixedTheme
		} else {
			d.theme = DetectTheme(cs)
		}
		work = append(work, d)
	}
	return work
}

// split breaks drafts above the threshold into fixed-size parts.
func (a *Analyzer) split(work []*draft) []*draft {
	var out []*draft
	for _, d := range work {
		if len(d.changes) <= a.opts.SplitThreshold {
			out = append(out, d)
			continue
		}
		parts := (len(d.changes) + a.opts.ChunkSize - 1) / a.opts.ChunkSize
		for n := 0; n < parts; n++ {
			lo := n * a.opts.ChunkSize
			hi := min(lo+a.opts.ChunkSize, len(d.changes))
			out = append(out, &draft{
				id:      fmt.Sprintf("%s-part%d", d.id, n+1),
				group:   d.group,
				theme:   d.theme,
				changes: append([]model.Change(nil), d.changes[lo:hi]...),
				part:    n + 1,
				parts:   parts,
			})
		}
	}
	return out
}

// merge folds single-file drafts into the first other draft with the same
// theme and fewer than MergeLimit files. Unmatched singletons stay.
func (a *Analyzer) merge(work []*draft) []*draft {
	for _, d := range work {
		if d.dead || len(d.changes) != 1 {
			continue
		}
		for _, target := range work {
			if target == d || target.dead || target.theme != d.theme || len(target.changes) >= a.opts.MergeLimit {
				continue
			}
			target.changes = append(target.changes, d.changes[0])
			target.merged = append(target.merged, d.changes[0].Path)
			d.dead = true
			break
		}
	}

	live := work[:0]
	for _, d := range work {
		if !d.dead {
			live = append(live, d)
		}
	}
	return live
}

// freeze converts drafts into boundaries and computes boundary-level
// dependencies from the file graph.
func freeze(work []*draft, rels []Relationship, graph DependencyGraph) []Boundary {
	owner := make(map[string]string)
	for _, d := range work {
		for _, c := range d.changes {
			owner[c.Path] = d.id
		}
	}

	out := make([]Boundary, 0, len(work))
	for _, d := range work {
		b := Boundary{
			ID:         d.id,
			Changes:    d.changes,
			Priority:   d.group.Priority(),
			Complexity: complexityOf(d.changes),
			Theme:      d.theme,
			Group:      d.group,
		}
		if d.group == GroupMixed {
			b.Priority = model.PriorityLow
		}

		seen := make(map[string]bool)
		for _, c := range d.changes {
			for _, dep := range graph[c.Path] {
				id := owner[dep]
				if id == "" || id == d.id || seen[id] {
					continue
				}
				seen[id] = true
				b.Dependencies = append(b.Dependencies, id)
			}
		}

		b.Reasoning = reasoning(d, rels)
		out = append(out, b)
	}
	return out
}

func reasoning(d *draft, rels []Relationship) string {
	var parts []string
	if d.group == GroupMixed {
		parts = append(parts, fmt.Sprintf("%d files outside any specific area", len(d.changes)))
	} else {
		parts = append(parts, fmt.Sprintf("%d %s files", len(d.changes), strings.ReplaceAll(string(d.group), "_", " ")))
	}
	if d.parts > 0 {
		parts = append(parts, fmt.Sprintf("part %d of %d", d.part, d.parts))
	}
	if len(d.merged) > 0 {
		parts = append(parts, fmt.Sprintf("absorbed %s (same theme)", strings.Join(d.merged, ", ")))
	}
	if s := summarizeRelationships(rels, pathSet(d.changes)); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

func pathSet(changes []model.Change) map[string]bool {
	m := make(map[string]bool, len(changes))
	for _, c := range changes {
		m[c.Path] = true
	}
	return m
}

// complexityOf sums changed lines and adds half a point per hunk.
func complexityOf(changes []model.Change) int {
	var total float64
	for _, c := range changes {
		total += float64(c.TotalLines()) + 0.5*float64(len(c.Hunks))
	}
	return int(math.Round(total))
}

// DetectTheme votes over path words. Each file votes once per theme it
// matches; the most votes win, ties go to the theme seen first.
func DetectTheme(changes []model.Change) string {
	votes := make(map[string]int)
	var order []string
	for _, c := range changes {
		words := pathWords(c.Path)
		for _, t := range themes {
			for _, kw := range t.keywords {
				if matchesKeyword(words, kw) {
					if votes[t.theme] == 0 {
						order = append(order, t.theme)
					}
					votes[t.theme]++
					break
				}
			}
		}
	}

	best, bestVotes := defaultTheme, 0
	for _, t := range order {
		if votes[t] > bestVotes {
			best, bestVotes = t, votes[t]
		}
	}
	return best
}
