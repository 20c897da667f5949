package boundary

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/ranking"
)

// RelationType names the evidence linking two files.
type RelationType int

const (
	RelImport RelationType = iota
	RelSimilarChanges
	RelSharedFunction
	RelTestPair
	RelConfigRelated
)

func (r RelationType) String() string {
	switch r {
	case RelImport:
		return "import"
	case RelSimilarChanges:
		return "similar_changes"
	case RelSharedFunction:
		return "shared_function"
	case RelTestPair:
		return "test_pair"
	case RelConfigRelated:
		return "config_related"
	default:
		return "unknown"
	}
}

// MarshalText renders the relation type by name.
func (r RelationType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Relationship is a scored, undirected edge between two changed files.
type Relationship struct {
	From     string       `json:"from" yaml:"from"`
	To       string       `json:"to" yaml:"to"`
	Type     RelationType `json:"type" yaml:"type"`
	Strength float64      `json:"strength" yaml:"strength"`
}

// Scores and the minimum strength each edge type must exceed to be kept.
const (
	importMention       = 0.6
	importStatement     = 0.8
	importThreshold     = 0.3
	testPairStrength    = 0.9
	similarWeight       = 0.7
	similarThreshold    = 0.4
	sharedFuncStrength  = 0.5
	sharedFuncThreshold = 0.4
	configStrength      = 0.8
)

// fileFacts caches what each change contributes to pairwise scoring.
type fileFacts struct {
	change   model.Change
	name     string // base name without extension, "" for dotfiles like .env
	content  string // changed lines joined by newlines
	relative *regexp.Regexp
	defined  map[string]bool
	isTest   bool
	isConfig bool
}

func newFileFacts(c model.Change) *fileFacts {
	f := &fileFacts{
		change:   c,
		name:     baseName(c.Path),
		content:  strings.Join(c.ChangedContent(), "\n"),
		defined:  extractFunctions(c.AddedContent()),
		isTest:   ranking.IsTestFile(c.Path),
		isConfig: isConfigPath(c.Path),
	}
	if f.name != "" {
		f.relative = regexp.MustCompile(
			`(?:from|import|require\(?|include)\s*['"]\.{1,2}/(?:[^'"]*/)?` +
				regexp.QuoteMeta(f.name) + `(?:\.\w+)?['"]`)
	}
	return f
}

// extractFunctions collects distinct function names defined in lines.
func extractFunctions(lines []string) map[string]bool {
	names := make(map[string]bool)
	for _, line := range lines {
		for _, pat := range funcDefPatterns {
			if m := pat.FindStringSubmatch(line); len(m) > 1 {
				names[m[1]] = true
				break
			}
		}
	}
	return names
}

// FindRelationships scores every unordered pair of changes and returns the
// edges that pass their thresholds, in pair order.
func FindRelationships(changes []model.Change) []Relationship {
	facts := make([]*fileFacts, len(changes))
	for i, c := range changes {
		facts[i] = newFileFacts(c)
	}

	var rels []Relationship
	for i := 0; i < len(facts); i++ {
		for j := i + 1; j < len(facts); j++ {
			rels = append(rels, relate(facts[i], facts[j])...)
		}
	}
	return rels
}

func relate(a, b *fileFacts) []Relationship {
	var rels []Relationship
	add := func(t RelationType, s float64) {
		rels = append(rels, Relationship{From: a.change.Path, To: b.change.Path, Type: t, Strength: s})
	}

	if s := importScore(a, b); s > importThreshold {
		add(RelImport, s)
	}
	if s := testPairScore(a, b); s > 0 {
		add(RelTestPair, s)
	}
	if s := similarScore(a, b); s > similarThreshold {
		add(RelSimilarChanges, s)
	}
	if s := sharedFunctionScore(a, b); s > sharedFuncThreshold {
		add(RelSharedFunction, s)
	}
	if a.isConfig && b.isConfig {
		add(RelConfigRelated, configStrength)
	}
	return rels
}

// importScore: a mention of the other file's name in either file's changed
// lines, boosted by a relative import statement that names it.
func importScore(a, b *fileFacts) float64 {
	var score float64
	if mentions(a, b) || mentions(b, a) {
		score = importMention
	}
	if imports(a, b) || imports(b, a) {
		score += importStatement
	}
	return math.Min(1, score)
}

func mentions(from, to *fileFacts) bool {
	return to.name != "" && strings.Contains(from.content, to.name)
}

func imports(from, to *fileFacts) bool {
	return to.relative != nil && to.relative.MatchString(from.content)
}

func testPairScore(a, b *fileFacts) float64 {
	test, impl := a, b
	if b.isTest && !a.isTest {
		test, impl = b, a
	}
	if !test.isTest || impl.isTest {
		return 0
	}
	if impl.name != "" && strings.Contains(baseName(test.change.Path), impl.name) {
		return testPairStrength
	}
	return 0
}

// similarScore is the Jaccard overlap of the function names each file
// defines, weighted down.
func similarScore(a, b *fileFacts) float64 {
	if len(a.defined) == 0 || len(b.defined) == 0 {
		return 0
	}
	shared := 0
	for name := range a.defined {
		if b.defined[name] {
			shared++
		}
	}
	union := len(a.defined) + len(b.defined) - shared
	return float64(shared) / float64(union) * similarWeight
}

// sharedFunctionScore: one file defines a function the other calls.
func sharedFunctionScore(a, b *fileFacts) float64 {
	if calls(a, b) || calls(b, a) {
		return sharedFuncStrength
	}
	return 0
}

func calls(caller, callee *fileFacts) bool {
	for name := range callee.defined {
		if caller.defined[name] {
			continue
		}
		if strings.Contains(caller.content, name+"(") {
			return true
		}
	}
	return false
}

// DependencyGraph maps a file to the changed files its content names.
type DependencyGraph map[string][]string

// BuildDependencyGraph records a directed edge from each change to every
// other change whose base name appears in its changed lines.
func BuildDependencyGraph(changes []model.Change) DependencyGraph {
	g := make(DependencyGraph, len(changes))
	for _, c := range changes {
		content := strings.Join(c.ChangedContent(), "\n")
		for _, other := range changes {
			if other.Path == c.Path {
				continue
			}
			name := baseName(other.Path)
			if name != "" && strings.Contains(content, name) {
				g[c.Path] = append(g[c.Path], other.Path)
			}
		}
	}
	return g
}

// summarizeRelationships describes the edges with both ends in paths,
// e.g. "3 relationships (import, test_pair)".
func summarizeRelationships(rels []Relationship, paths map[string]bool) string {
	n := 0
	seen := make(map[RelationType]bool)
	var types []string
	for _, r := range rels {
		if !paths[r.From] || !paths[r.To] {
			continue
		}
		n++
		if !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, r.Type.String())
		}
	}
	switch n {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("1 relationship (%s)", types[0])
	default:
		return fmt.Sprintf("%d relationships (%s)", n, strings.Join(types, ", "))
	}
}
