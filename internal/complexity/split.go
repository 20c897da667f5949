package complexity

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/ranking"
)

// SuggestedCommit is one commit of a proposed split.
type SuggestedCommit struct {
	Title     string   `json:"title" yaml:"title"`
	Files     []string `json:"files" yaml:"files"`
	Rationale string   `json:"rationale" yaml:"rationale"`
}

// SplitSuggestion proposes breaking a change set into several commits.
type SplitSuggestion struct {
	Reason           string            `json:"reason" yaml:"reason"`
	SuggestedCommits []SuggestedCommit `json:"suggested_commits" yaml:"suggested_commits"`
}

type bucket int

const (
	bucketBreaking bucket = iota
	bucketConfig
	bucketCore
	bucketTest
	bucketDoc
	numBuckets
)

var bucketCommits = [numBuckets]SuggestedCommit{
	bucketBreaking: {Title: "feat!: breaking changes to public interfaces", Rationale: "lands removals and interface changes first so later commits build on them"},
	bucketConfig:   {Title: "chore(config): update configuration", Rationale: "keeps build and runtime settings reviewable on their own"},
	bucketCore:     {Title: "feat: core implementation changes", Rationale: "the main behavior change"},
	bucketTest:     {Title: "test: update tests", Rationale: "tests follow the code they exercise"},
	bucketDoc:      {Title: "docs: update documentation", Rationale: "documentation last, describing the final state"},
}

var configFiles = map[string]bool{
	"package.json":       true,
	"tsconfig.json":      true,
	"go.mod":             true,
	"go.sum":             true,
	"Cargo.toml":         true,
	"pyproject.toml":     true,
	"requirements.txt":   true,
	"Dockerfile":         true,
	"docker-compose.yml": true,
	"Makefile":           true,
	".env":               true,
}

func isConfigPath(path string) bool {
	base := filepath.Base(path)
	if configFiles[base] || strings.HasPrefix(base, ".env") {
		return true
	}
	p := strings.ToLower(path)
	if strings.Contains(p, "config") || strings.Contains(p, "settings") {
		return true
	}
	switch filepath.Ext(p) {
	case ".yaml", ".yml", ".toml", ".ini":
		return !ranking.IsTestFile(p)
	}
	return false
}

var sourceExts = map[string]bool{
	".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true,
	".py": true, ".rb": true, ".rs": true, ".java": true, ".kt": true, ".scala": true,
	".cs": true, ".php": true, ".swift": true, ".vue": true, ".svelte": true,
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".hpp": true,
}

var testDirs = map[string]bool{
	"test": true, "tests": true, "spec": true, "specs": true, "__tests__": true, "testdata": true,
}

// isCorePath reports whether a path is implementation source: a source
// extension, a file name that is not a test, and no test directory on the
// way. A "test" elsewhere in the path, as in src/testing/util.go, does not
// count.
func isCorePath(path string) bool {
	p := strings.ToLower(filepath.ToSlash(path))
	if !sourceExts[filepath.Ext(p)] || ranking.IsTestFile(filepath.Base(p)) {
		return false
	}
	for _, dir := range strings.Split(filepath.Dir(p), "/") {
		if testDirs[dir] {
			return false
		}
	}
	return true
}

// classify assigns each change to exactly one bucket, first match wins:
// breaking, config, core, test, doc. Anything unmatched is core.
func classify(c model.Change) bucket {
	switch {
	case IsBreakingChange(c):
		return bucketBreaking
	case isConfigPath(c.Path):
		return bucketConfig
	case isCorePath(c.Path):
		return bucketCore
	case ranking.IsTestFile(c.Path):
		return bucketTest
	case ranking.IsDocFile(c.Path):
		return bucketDoc
	default:
		return bucketCore
	}
}

// AnalyzeOptimalSplit proposes one commit per non-empty bucket, in the
// order breaking, config, core, test, doc. Simple and moderate change sets
// get nil.
func AnalyzeOptimalSplit(changes []model.Change, cat Category) *SplitSuggestion {
	if cat < CategoryComplex || len(changes) == 0 {
		return nil
	}

	var files [numBuckets][]string
	for _, c := range changes {
		b := classify(c)
		files[b] = append(files[b], c.Path)
	}

	s := &SplitSuggestion{
		Reason: fmt.Sprintf("%s change set across %d files", cat, len(changes)),
	}
	for b := bucket(0); b < numBuckets; b++ {
		if len(files[b]) == 0 {
			continue
		}
		sc := bucketCommits[b]
		sc.Files = files[b]
		s.SuggestedCommits = append(s.SuggestedCommits, sc)
	}
	return s
}
