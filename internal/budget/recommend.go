package budget

import (
	"fmt"

	"github.com/sprite-ai/stagehand/internal/ranking"
)

// SplitGroup is one suggested slice of an oversized change set.
type SplitGroup struct {
	Name      string   `json:"name" yaml:"name"`
	Files     []string `json:"files" yaml:"files"`
	Rationale string   `json:"rationale" yaml:"rationale"`
}

// CommitSizeRecommendation says whether a change set should become several
// commits and how to cut it.
type CommitSizeRecommendation struct {
	ShouldSplit     bool         `json:"should_split" yaml:"should_split"`
	Reasons         []string     `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	SuggestedGroups []SplitGroup `json:"suggested_groups,omitempty" yaml:"suggested_groups,omitempty"`
}

const (
	maxFilesPerCommit    = 20
	maxCriticalPerCommit = 5
	tokenOverflowFactor  = 2
)

// AnalyzeCommitSizeRecommendation flags change sets with too many files,
// too many tokens or too many critical changes, and proposes a cut into
// critical changes, the remaining features, and tests.
func AnalyzeCommitSizeRecommendation(result *ranking.Result, b TokenBudget) CommitSizeRecommendation {
	var rec CommitSizeRecommendation
	if result == nil || len(result.RankedChanges) == 0 {
		return rec
	}

	if n := len(result.RankedChanges); n > maxFilesPerCommit {
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("%d files changed (more than %d)", n, maxFilesPerCommit))
	}
	if result.TotalTokens > tokenOverflowFactor*b.Available {
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("%d estimated tokens is more than twice the %d available",
			result.TotalTokens, b.Available))
	}
	if n := result.CountCategory(ranking.CategoryCritical); n > maxCriticalPerCommit {
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("%d critical changes (more than %d)", n, maxCriticalPerCommit))
	}

	if len(rec.Reasons) == 0 {
		return rec
	}
	rec.ShouldSplit = true

	var critical, feature, tests []string
	for _, rc := range result.RankedChanges {
		switch {
		case ranking.IsTestFile(rc.Change.Path):
			tests = append(tests, rc.Change.Path)
		case rc.Importance.Category == ranking.CategoryCritical:
			critical = append(critical, rc.Change.Path)
		default:
			feature = append(feature, rc.Change.Path)
		}
	}

	if len(critical) > 0 {
		rec.SuggestedGroups = append(rec.SuggestedGroups, SplitGroup{
			Name: "critical", Files: critical,
			Rationale: "high-impact changes reviewed on their own",
		})
	}
	if len(feature) > 0 {
		rec.SuggestedGroups = append(rec.SuggestedGroups, SplitGroup{
			Name: "feature", Files: feature,
			Rationale: "remaining implementation changes",
		})
	}
	if len(tests) > 0 {
		rec.SuggestedGroups = append(rec.SuggestedGroups, SplitGroup{
			Name: "tests", Files: tests,
			Rationale: "test updates that follow the code they cover",
		})
	}
	return rec
}
