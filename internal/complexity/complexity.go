// Package complexity rates how hard a change set is to review and commit
// as one unit.
package complexity

import (
	"math"
	"regexp"
	"strings"

	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/ranking"
)

// Category buckets a complexity score.
type Category int

const (
	CategorySimple Category = iota
	CategoryModerate
	CategoryComplex
	CategoryVeryComplex
)

func (c Category) String() string {
	switch c {
	case CategorySimple:
		return "simple"
	case CategoryModerate:
		return "moderate"
	case CategoryComplex:
		return "complex"
	case CategoryVeryComplex:
		return "very-complex"
	default:
		return "unknown"
	}
}

// MarshalText renders the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CategoryForScore maps a 0-100 score onto its category.
func CategoryForScore(score int) Category {
	switch {
	case score <= 25:
		return CategorySimple
	case score <= 50:
		return CategoryModerate
	case score <= 75:
		return CategoryComplex
	default:
		return CategoryVeryComplex
	}
}

// Metrics are the raw measurements behind a score.
type Metrics struct {
	FileCount          int      `json:"file_count" yaml:"file_count"`
	TotalLines         int      `json:"total_lines" yaml:"total_lines"`
	CriticalChanges    int      `json:"critical_changes" yaml:"critical_changes"`
	BreakingChanges    int      `json:"breaking_changes" yaml:"breaking_changes"`
	TestCoverage       float64  `json:"test_coverage" yaml:"test_coverage"` // share of files that are tests, 0-1
	FrameworksAffected int      `json:"frameworks_affected" yaml:"frameworks_affected"`
	Frameworks         []string `json:"frameworks,omitempty" yaml:"frameworks,omitempty"`
}

// Analysis is the result of Analyze.
type Analysis struct {
	Score           int              `json:"score" yaml:"score"`
	Category        Category         `json:"category" yaml:"category"`
	Metrics         Metrics          `json:"metrics" yaml:"metrics"`
	Warnings        []Warning        `json:"warnings" yaml:"warnings"`
	Recommendations []string         `json:"recommendations" yaml:"recommendations"`
	Split           *SplitSuggestion `json:"split,omitempty" yaml:"split,omitempty"`
}

// ShouldSplit reports whether a split was suggested.
func (a *Analysis) ShouldSplit() bool {
	return a.Split != nil && len(a.Split.SuggestedCommits) > 0
}

// HasErrors reports whether any warning is error level.
func (a *Analysis) HasErrors() bool {
	for _, w := range a.Warnings {
		if w.Level == model.SeverityError {
			return true
		}
	}
	return false
}

// Sub-score ceilings and the input that saturates each.
const (
	maxFileScore       = 30.0
	fileSaturation     = 30.0
	maxLineScore       = 25.0
	lineSaturation     = 1500.0
	maxCriticalScore   = 20.0
	criticalSaturate   = 15.0
	maxBreakingScore   = 15.0
	breakingSaturate   = 5.0
	maxFrameworkScore  = 10.0
	pointsPerFramework = 3.0
)

var frameworkPattern = regexp.MustCompile(`(?i)\b(react|vue|angular|express|django|spring)\b`)

// Analyze measures a change set and rates its complexity. ranked and b are
// optional: without a ranking no change counts as critical, and without a
// budget no token warning is produced.
func Analyze(changes []model.Change, ranked *ranking.Result, b *budget.TokenBudget) *Analysis {
	m := measure(changes, ranked)

	score := subScore(float64(m.FileCount), fileSaturation, maxFileScore) +
		subScore(float64(m.TotalLines), lineSaturation, maxLineScore) +
		subScore(float64(m.CriticalChanges), criticalSaturate, maxCriticalScore) +
		subScore(float64(m.BreakingChanges), breakingSaturate, maxBreakingScore) +
		math.Min(maxFrameworkScore, pointsPerFramework*float64(m.FrameworksAffected))
	s := int(math.Round(math.Max(0, math.Min(100, score))))

	a := &Analysis{
		Score:    s,
		Category: CategoryForScore(s),
		Metrics:  m,
	}
	a.Warnings = warnings(m, b)
	a.Split = AnalyzeOptimalSplit(changes, a.Category)
	a.Recommendations = recommendations(a, b)
	return a
}

func subScore(v, saturation, ceiling float64) float64 {
	return math.Min(ceiling, v/saturation*ceiling)
}

func measure(changes []model.Change, ranked *ranking.Result) Metrics {
	var m Metrics
	m.FileCount = len(changes)

	tests := 0
	seen := make(map[string]bool)
	for _, c := range changes {
		m.TotalLines += c.TotalLines()
		if IsBreakingChange(c) {
			m.BreakingChanges++
		}
		if ranking.IsTestFile(c.Path) {
			tests++
		}
		for _, line := range c.ChangedContent() {
			for _, match := range frameworkPattern.FindAllString(line, -1) {
				fw := strings.ToLower(match)
				if !seen[fw] {
					seen[fw] = true
					m.Frameworks = append(m.Frameworks, fw)
				}
			}
		}
	}
	m.FrameworksAffected = len(m.Frameworks)

	if ranked != nil {
		m.CriticalChanges = ranked.CountCategory(ranking.CategoryCritical)
	}
	if m.FileCount > 0 {
		m.TestCoverage = float64(tests) / float64(m.FileCount)
	}
	return m
}

// IsBreakingChange reports whether a change likely breaks callers: the file
// was deleted, its path names an interface or API, or a removed line
// touched exported or public surface.
func IsBreakingChange(c model.Change) bool {
	if c.Kind == model.KindDeleted {
		return true
	}
	p := strings.ToLower(c.Path)
	if strings.Contains(p, "interface") || strings.Contains(p, "api") {
		return true
	}
	for _, line := range c.RemovedContent() {
		if strings.Contains(line, "export") || strings.Contains(line, "public") {
			return true
		}
	}
	return false
}

// EstimateTokens is the coarse token cost used for the budget warning:
// 100 per file plus 2 per line, scaled up 10% per critical change.
func EstimateTokens(m Metrics) int {
	base := float64(m.FileCount*100 + m.TotalLines*2)
	return int(math.Ceil(base * (1 + 0.1*float64(m.CriticalChanges))))
}
