package boundary

import (
	"fmt"
	"path"
	"strings"

	"github.com/sprite-ai/stagehand/internal/model"
)

// Mode is how the proposed commits relate to each other.
type Mode int

const (
	// ModeParallel: commits are independent and may land in any order.
	ModeParallel Mode = iota
	// ModeProgressive: independent, but risky commits deserve a pause.
	ModeProgressive
	// ModeSequential: dependencies force an order.
	ModeSequential
)

func (m Mode) String() string {
	switch m {
	case ModeParallel:
		return "parallel"
	case ModeProgressive:
		return "progressive"
	case ModeSequential:
		return "sequential"
	default:
		return "unknown"
	}
}

// MarshalText renders the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// CommitMessage is a conventional-commit draft.
type CommitMessage struct {
	Title       string `json:"title" yaml:"title"`
	Type        string `json:"type" yaml:"type"`
	Scope       string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Description string `json:"description" yaml:"description"`
	Body        string `json:"body,omitempty" yaml:"body,omitempty"`
}

// StagedCommit is one step of a staging plan.
type StagedCommit struct {
	Boundary         Boundary        `json:"boundary" yaml:"boundary"`
	Message          CommitMessage   `json:"suggested_message" yaml:"suggested_message"`
	Rationale        string          `json:"rationale" yaml:"rationale"`
	Risk             model.RiskLevel `json:"risk" yaml:"risk"`
	EstimatedMinutes int             `json:"estimated_minutes" yaml:"estimated_minutes"`
}

// StagingStrategy is the ordered commit plan for a set of boundaries.
type StagingStrategy struct {
	Commits     []StagedCommit  `json:"commits" yaml:"commits"`
	Mode        Mode            `json:"mode" yaml:"mode"`
	Warnings    []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	OverallRisk model.RiskLevel `json:"overall_risk" yaml:"overall_risk"`
}

const (
	highRiskComplexity   = 500
	mediumRiskComplexity = 200
	manyCommits          = 5
)

var themeDescriptions = map[string]string{
	"authentication":  "update authentication flow",
	"user interface":  "update user interface",
	"api development": "update API endpoints",
	"testing":         "update tests",
	"configuration":   "update configuration",
	"documentation":   "update documentation",
	mixedTheme:        "miscellaneous updates",
	defaultTheme:      "improve code structure",
}

// SuggestStagingStrategy drafts a commit message, risk and time estimate for
// each boundary and orders them so dependencies land first.
func SuggestStagingStrategy(boundaries []Boundary) *StagingStrategy {
	s := &StagingStrategy{Commits: []StagedCommit{}}

	ordered, cyclic := topoOrder(boundaries)
	if len(cyclic) > 0 {
		s.Warnings = append(s.Warnings,
			fmt.Sprintf("dependency cycle between %s; keeping proposed order", strings.Join(cyclic, ", ")))
	}

	hasDeps, hasHigh := false, false
	elevated := 0
	for _, b := range ordered {
		risk := riskOf(b.Complexity)
		c := StagedCommit{
			Boundary:         b,
			Message:          suggestMessage(b),
			Rationale:        rationale(b),
			Risk:             risk,
			EstimatedMinutes: max(2, (len(b.Changes)+1)/2),
		}
		s.Commits = append(s.Commits, c)

		if len(b.Dependencies) > 0 {
			hasDeps = true
			s.Warnings = append(s.Warnings,
				fmt.Sprintf("%s must be committed after %s", b.ID, strings.Join(b.Dependencies, ", ")))
		}
		if risk == model.RiskHigh {
			hasHigh = true
			s.Warnings = append(s.Warnings,
				fmt.Sprintf("%s is high risk (complexity %d); review it on its own", b.ID, b.Complexity))
		}
		if risk >= model.RiskMedium {
			elevated++
		}
	}

	if len(boundaries) > manyCommits {
		s.Warnings = append(s.Warnings,
			fmt.Sprintf("%d commits proposed; consider whether some belong together", len(boundaries)))
	}

	switch {
	case hasDeps:
		s.Mode = ModeSequential
	case hasHigh:
		s.Mode = ModeProgressive
	default:
		s.Mode = ModeParallel
	}

	switch {
	case hasHigh:
		s.OverallRisk = model.RiskHigh
	case elevated*2 > len(boundaries):
		s.OverallRisk = model.RiskMedium
	default:
		s.OverallRisk = model.RiskLow
	}
	return s
}

func riskOf(complexity int) model.RiskLevel {
	switch {
	case complexity > highRiskComplexity:
		return model.RiskHigh
	case complexity > mediumRiskComplexity:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// topoOrder emits each boundary once all of its dependencies have been
// emitted, preferring the original order. Boundaries caught in a cycle are
// appended in original order and their ids returned.
func topoOrder(boundaries []Boundary) ([]Boundary, []string) {
	known := make(map[string]bool, len(boundaries))
	for _, b := range boundaries {
		known[b.ID] = true
	}

	done := make(map[string]bool, len(boundaries))
	emitted := make([]bool, len(boundaries))
	out := make([]Boundary, 0, len(boundaries))

	for len(out) < len(boundaries) {
		progressed := false
		for i, b := range boundaries {
			if emitted[i] || !ready(b, known, done) {
				continue
			}
			emitted[i] = true
			done[b.ID] = true
			out = append(out, b)
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}

	var cyclic []string
	for i, b := range boundaries {
		if !emitted[i] {
			cyclic = append(cyclic, b.ID)
			out = append(out, b)
		}
	}
	return out, cyclic
}

func ready(b Boundary, known, done map[string]bool) bool {
	for _, dep := range b.Dependencies {
		if known[dep] && !done[dep] {
			return false
		}
	}
	return true
}

func suggestMessage(b Boundary) CommitMessage {
	m := CommitMessage{
		Type:        commitType(b),
		Scope:       commonScope(b.Files()),
		Description: themeDescriptions[b.Theme],
	}
	if m.Description == "" {
		m.Description = "update " + b.Theme
	}

	if m.Scope != "" {
		m.Title = fmt.Sprintf("%s(%s): %s", m.Type, m.Scope, m.Description)
	} else {
		m.Title = fmt.Sprintf("%s: %s", m.Type, m.Description)
	}

	if len(b.Changes) > 1 {
		var body strings.Builder
		for _, c := range b.Changes {
			fmt.Fprintf(&body, "- %s\n", c)
		}
		m.Body = strings.TrimRight(body.String(), "\n")
	}
	return m
}

// commitType infers the conventional-commit type from the theme.
func commitType(b Boundary) string {
	t := strings.ToLower(b.Theme)
	switch {
	case strings.Contains(t, "test"):
		return "test"
	case strings.Contains(t, "doc"):
		return "docs"
	case strings.Contains(t, "config"), t == mixedTheme:
		return "chore"
	case t == defaultTheme:
		return "refactor"
	default:
		return "feat"
	}
}

// commonScope is the last element of the deepest directory shared by all
// paths, or "" when they share none.
func commonScope(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	common := strings.Split(path.Dir(paths[0]), "/")
	for _, p := range paths[1:] {
		dirs := strings.Split(path.Dir(p), "/")
		n := 0
		for n < len(common) && n < len(dirs) && common[n] == dirs[n] {
			n++
		}
		common = common[:n]
	}
	if len(common) == 0 {
		return ""
	}
	last := common[len(common)-1]
	if last == "." {
		return ""
	}
	return last
}

func rationale(b Boundary) string {
	r := fmt.Sprintf("%s priority: %s", b.Priority, b.Reasoning)
	if len(b.Dependencies) > 0 {
		r += fmt.Sprintf("; builds on %s", strings.Join(b.Dependencies, ", "))
	}
	return r
}
