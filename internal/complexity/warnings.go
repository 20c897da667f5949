package complexity

import (
	"fmt"

	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/model"
)

// Impact rates a warning's effect on review, on generated message quality,
// and on the chance of breaking something.
type Impact struct {
	Reviewability model.RiskLevel `json:"reviewability" yaml:"reviewability"`
	AIQuality     model.RiskLevel `json:"ai_quality" yaml:"ai_quality"`
	Risk          model.RiskLevel `json:"risk" yaml:"risk"`
}

// Warning is one complexity concern.
type Warning struct {
	Level       model.Severity `json:"level" yaml:"level"`
	Title       string         `json:"title" yaml:"title"`
	Message     string         `json:"message" yaml:"message"`
	Suggestions []string       `json:"suggestions" yaml:"suggestions"`
	Impact      Impact         `json:"impact" yaml:"impact"`
}

const (
	fileWarnThreshold     = 15
	lineWarnThreshold     = 500
	criticalWarnThreshold = 3
	breakingErrThreshold  = 2
	lowCoverage           = 0.3
	coverageMinFiles      = 5
)

// warnings evaluates each metric on its own; any number may fire together.
func warnings(m Metrics, b *budget.TokenBudget) []Warning {
	var w []Warning

	if m.FileCount > fileWarnThreshold {
		w = append(w, Warning{
			Level:   model.SeverityWarning,
			Title:   "Many files changed",
			Message: fmt.Sprintf("%d files changed; reviews lose focus above %d", m.FileCount, fileWarnThreshold),
			Suggestions: []string{
				"Split the change set by feature area",
				"Commit configuration and test updates separately",
			},
			Impact: Impact{Reviewability: model.RiskHigh, AIQuality: model.RiskMedium, Risk: model.RiskMedium},
		})
	}

	if m.TotalLines > lineWarnThreshold {
		w = append(w, Warning{
			Level:   model.SeverityWarning,
			Title:   "Large change volume",
			Message: fmt.Sprintf("%d lines changed; generated commit messages degrade above %d", m.TotalLines, lineWarnThreshold),
			Suggestions: []string{
				"Commit mechanical changes (renames, formatting) on their own",
				"Write the commit body by hand for the largest pieces",
			},
			Impact: Impact{Reviewability: model.RiskMedium, AIQuality: model.RiskHigh, Risk: model.RiskMedium},
		})
	}

	if m.CriticalChanges > criticalWarnThreshold {
		w = append(w, Warning{
			Level:   model.SeverityError,
			Title:   "Many critical changes",
			Message: fmt.Sprintf("%d critical changes in one commit", m.CriticalChanges),
			Suggestions: []string{
				"Isolate each critical change in its own commit",
				"Ask for a focused review of public API and schema changes",
			},
			Impact: Impact{Reviewability: model.RiskHigh, AIQuality: model.RiskMedium, Risk: model.RiskHigh},
		})
	}

	if m.BreakingChanges > 0 {
		level, risk := model.SeverityWarning, model.RiskMedium
		if m.BreakingChanges > breakingErrThreshold {
			level, risk = model.SeverityError, model.RiskHigh
		}
		w = append(w, Warning{
			Level:   level,
			Title:   "Breaking changes detected",
			Message: fmt.Sprintf("%d changes remove or alter public surface", m.BreakingChanges),
			Suggestions: []string{
				"Commit breaking changes first and mark them with a BREAKING CHANGE footer",
				"Check downstream callers before committing",
			},
			Impact: Impact{Reviewability: model.RiskMedium, AIQuality: model.RiskLow, Risk: risk},
		})
	}

	if m.TestCoverage < lowCoverage && m.FileCount > coverageMinFiles {
		w = append(w, Warning{
			Level:   model.SeverityWarning,
			Title:   "Low test coverage",
			Message: fmt.Sprintf("only %.0f%% of changed files are tests", m.TestCoverage*100),
			Suggestions: []string{
				"Add tests for the new behavior in the same change set",
			},
			Impact: Impact{Reviewability: model.RiskLow, AIQuality: model.RiskLow, Risk: model.RiskMedium},
		})
	}

	if b != nil {
		if est := EstimateTokens(m); est > b.Available {
			w = append(w, Warning{
				Level:   model.SeverityError,
				Title:   "Token budget exceeded",
				Message: fmt.Sprintf("about %d tokens needed, %d available", est, b.Available),
				Suggestions: []string{
					"Use a model with a larger context window",
					"Split the change set so each commit fits the budget",
				},
				Impact: Impact{Reviewability: model.RiskLow, AIQuality: model.RiskHigh, Risk: model.RiskLow},
			})
		}
	}

	return w
}

func recommendations(a *Analysis, b *budget.TokenBudget) []string {
	var r []string
	switch a.Category {
	case CategorySimple:
		r = append(r, "Commit as a single unit")
	case CategoryModerate:
		r = append(r, "A single commit works; consider separating tests if the message gets long")
	default:
		r = append(r, "Split into the suggested commits before generating messages")
	}

	m := a.Metrics
	if m.BreakingChanges > 0 {
		r = append(r, "Document breaking changes in the commit body")
	}
	if m.TestCoverage < lowCoverage && m.FileCount > coverageMinFiles {
		r = append(r, "Add or update tests alongside the implementation")
	}
	if m.CriticalChanges > criticalWarnThreshold {
		r = append(r, "Review critical changes one at a time")
	}
	if b != nil && EstimateTokens(m) > b.Available {
		r = append(r, "Enable aggressive compression or pick a larger model")
	}
	return r
}
