package budget

import (
	"errors"
	"fmt"
	"math"

	"github.com/sprite-ai/stagehand/internal/ranking"
)

// ErrInvalidBudget is returned when a budget leaves no room at all.
var ErrInvalidBudget = errors.New("invalid token budget")

// TokenUsage reports how much of the budget an allocation consumes.
type TokenUsage struct {
	Used       int     `json:"used" yaml:"used"`
	Available  int     `json:"available" yaml:"available"`
	Efficiency float64 `json:"efficiency" yaml:"efficiency"`
}

// Allocation is the outcome of fitting ranked changes into a budget.
type Allocation struct {
	Level              CompressionLevel       `json:"compression_level" yaml:"compression_level"`
	SelectedChanges    []ranking.RankedChange `json:"selected_changes" yaml:"selected_changes"`
	CompressionSummary string                 `json:"compression_summary" yaml:"compression_summary"`
	TokenUsage         TokenUsage             `json:"token_usage" yaml:"token_usage"`
	Dropped            int                    `json:"dropped" yaml:"dropped"`
	Warnings           []string               `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Fits reports whether the selected changes stay inside the budget.
func (a *Allocation) Fits() bool {
	return a.TokenUsage.Used <= a.TokenUsage.Available
}

const lowEfficiency = 70

// AllocateTokens picks a compression level from the ratio of estimated to
// available tokens, compresses, and drops whole changes by importance when
// the compressed set still does not fit. With prioritizeQuality false the
// level starts one step more aggressive. The ranking is not modified.
func AllocateTokens(result *ranking.Result, b TokenBudget, prioritizeQuality bool) (*Allocation, error) {
	if b.Available < 0 {
		return nil, fmt.Errorf("%w: %d tokens available for %s (limit %d)",
			ErrInvalidBudget, b.Available, modelLabel(b), b.Total)
	}
	if result == nil {
		result = &ranking.Result{}
	}

	level := SelectLevel(result.TotalTokens, b.Available)
	if !prioritizeQuality && len(result.RankedChanges) > 0 {
		level = nextLevel(level)
	}

	compressed := Compress(level, result.RankedChanges)
	compressedTokens := ranking.SumTokens(compressed)

	selected := compressed
	if compressedTokens > b.Available {
		selected = SelectChangesByImportance(compressed, b.Available)
	}
	if selected == nil {
		selected = []ranking.RankedChange{}
	}

	used := ranking.SumTokens(selected)
	alloc := &Allocation{
		Level:           level,
		SelectedChanges: selected,
		TokenUsage: TokenUsage{
			Used:       used,
			Available:  b.Available,
			Efficiency: efficiency(ranking.SumScores(selected), result.TotalScore()),
		},
		Dropped: len(compressed) - len(selected),
	}
	alloc.CompressionSummary = summarize(alloc, result.TotalTokens)
	alloc.Warnings = allocationWarnings(alloc, len(compressed))
	return alloc, nil
}

// SelectChangesByImportance fits whole changes into tokenBudget: every
// critical change that fits, then high, then medium and low, each in ranked
// order.
func SelectChangesByImportance(changes []ranking.RankedChange, tokenBudget int) []ranking.RankedChange {
	return ranking.SelectOptimalChanges(changes, tokenBudget)
}

// efficiency is the share of total importance retained, in percent.
func efficiency(selected, total float64) float64 {
	if total <= 0 {
		return 100
	}
	e := selected / total * 100
	e = math.Max(0, math.Min(100, e))
	return math.Round(e*10) / 10
}

func summarize(a *Allocation, originalTokens int) string {
	s := fmt.Sprintf("%s compression (%s): %d -> %d tokens",
		a.Level.Level, a.Level.Description, originalTokens, a.TokenUsage.Used)
	if a.Dropped > 0 {
		s += fmt.Sprintf(", %d changes dropped", a.Dropped)
	}
	return s
}

func allocationWarnings(a *Allocation, total int) []string {
	var w []string
	if a.Level.Level >= LevelAggressive {
		w = append(w, fmt.Sprintf("%s compression applied: %s", a.Level.Level, a.Level.Description))
	}
	if a.Dropped > 0 {
		w = append(w, fmt.Sprintf("%d of %d changes excluded to fit %d available tokens",
			a.Dropped, total, a.TokenUsage.Available))
	}
	if a.TokenUsage.Efficiency < lowEfficiency {
		w = append(w, fmt.Sprintf("only %.1f%% of change importance fits in the budget", a.TokenUsage.Efficiency))
	}
	return w
}

func modelLabel(b TokenBudget) string {
	if b.Model == "" {
		return "model"
	}
	return b.Model
}
