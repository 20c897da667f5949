// Package ranking scores changed files by semantic importance and estimates
// what each one costs in model context.
package ranking

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"github.com/sprite-ai/stagehand/internal/model"
)

// Category buckets an importance score.
type Category int

const (
	CategoryLow Category = iota
	CategoryMedium
	CategoryHigh
	CategoryCritical
)

func (c Category) String() string {
	switch c {
	case CategoryLow:
		return "low"
	case CategoryMedium:
		return "medium"
	case CategoryHigh:
		return "high"
	case CategoryCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText renders the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CategoryForScore maps a score onto its category (thresholds 0.8/0.6/0.4).
func CategoryForScore(score float64) Category {
	switch {
	case score >= 0.8:
		return CategoryCritical
	case score >= 0.6:
		return CategoryHigh
	case score >= 0.4:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

// Importance is the derived significance of one change.
type Importance struct {
	Score           float64  `json:"score" yaml:"score"`
	Category        Category `json:"category" yaml:"category"`
	Reasons         []string `json:"reasons" yaml:"reasons"`
	EstimatedTokens int      `json:"estimated_tokens" yaml:"estimated_tokens"`
}

// RankedChange pairs a change with its importance.
type RankedChange struct {
	Change     model.Change `json:"change" yaml:"change"`
	Importance Importance   `json:"importance" yaml:"importance"`
}

// Breakdown counts ranked changes per category.
type Breakdown struct {
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`
	Low      int `json:"low" yaml:"low"`
}

func (b *Breakdown) add(c Category) {
	switch c {
	case CategoryCritical:
		b.Critical++
	case CategoryHigh:
		b.High++
	case CategoryMedium:
		b.Medium++
	default:
		b.Low++
	}
}

// Result is the output of Rank. RankedChanges is sorted by descending score;
// equal scores keep their input order.
type Result struct {
	RankedChanges []RankedChange `json:"ranked_changes" yaml:"ranked_changes"`
	TotalTokens   int            `json:"total_tokens" yaml:"total_tokens"`
	Breakdown     Breakdown      `json:"breakdown" yaml:"breakdown"`
}

// TotalScore sums the importance scores of every ranked change.
func (r *Result) TotalScore() float64 {
	return SumScores(r.RankedChanges)
}

// CountCategory returns how many changes fall in a category.
func (r *Result) CountCategory(c Category) int {
	n := 0
	for _, rc := range r.RankedChanges {
		if rc.Importance.Category == c {
			n++
		}
	}
	return n
}

// Factor weights. They sum to 1.0.
const (
	weightFileType = 0.3
	weightKind     = 0.2
	weightContent  = 0.4
	weightSize     = 0.1

	// removed lines are more likely to break callers than added ones
	removalWeight = 1.2
)

var kindImportance = map[model.ChangeKind]float64{
	model.KindDeleted:  0.9,
	model.KindRenamed:  0.8,
	model.KindModified: 0.7,
	model.KindAdded:    0.6,
}

// Rank scores every change and returns them sorted by importance.
// An empty input yields an empty result.
func Rank(changes []model.Change) *Result {
	result := &Result{RankedChanges: make([]RankedChange, 0, len(changes))}

	for _, c := range changes {
		imp := Score(c)
		result.RankedChanges = append(result.RankedChanges, RankedChange{Change: c, Importance: imp})
		result.TotalTokens += imp.EstimatedTokens
		result.Breakdown.add(imp.Category)
	}

	sort.SliceStable(result.RankedChanges, func(i, j int) bool {
		return result.RankedChanges[i].Importance.Score > result.RankedChanges[j].Importance.Score
	})

	return result
}

// Score computes the importance of a single change.
func Score(c model.Change) Importance {
	fileScore := fileTypeScore(c.Path)
	kindScore := kindImportance[c.Kind]
	content := analyzeContent(c)
	sizeScore := sizeScore(c.TotalLines())

	score := weightFileType*fileScore +
		weightKind*kindScore +
		weightContent*content.score +
		weightSize*sizeScore
	score = math.Round(clamp(score, 0, 1)*10000) / 10000

	return Importance{
		Score:           score,
		Category:        CategoryForScore(score),
		Reasons:         reasons(c, fileScore, content),
		EstimatedTokens: EstimateTokens(c),
	}
}

type contentAnalysis struct {
	score    float64
	critical []string // distinct critical labels in first-seen order
	high     []string
}

// analyzeContent scores each hunk as the sum of its changed-line scores and
// the file as the mean of its hunks, capped at 1.0.
// Hunks holding only context lines score zero.
func analyzeContent(c model.Change) contentAnalysis {
	var ca contentAnalysis
	seen := make(map[string]bool)

	var total float64
	for _, h := range c.Hunks {
		for _, l := range h.Lines {
			if l.Kind == model.LineContext {
				continue
			}
			s, label, cat := classifyLine(l.Content)
			if l.Kind == model.LineRemoved {
				s *= removalWeight
			}
			total += s

			if label != "" && !seen[label] {
				seen[label] = true
				if cat == CategoryCritical {
					ca.critical = append(ca.critical, label)
				} else {
					ca.high = append(ca.high, label)
				}
			}
		}
	}

	if len(c.Hunks) > 0 {
		ca.score = math.Min(1, total/float64(len(c.Hunks)))
	}
	return ca
}

func sizeScore(lines int) float64 {
	switch {
	case lines <= 10:
		return 0.2
	case lines <= 50:
		return 0.4
	case lines <= 200:
		return 0.6
	default:
		return 0.8
	}
}

func reasons(c model.Change, fileScore float64, ca contentAnalysis) []string {
	var r []string

	switch {
	case fileScore >= 0.9:
		r = append(r, fmt.Sprintf("critical file %s", filepath.Base(c.Path)))
	case fileScore >= 0.8:
		r = append(r, "core source file")
	case fileScore <= 0.2:
		r = append(r, "generated or low-signal file")
	}

	switch c.Kind {
	case model.KindDeleted:
		r = append(r, "file deleted")
	case model.KindRenamed:
		if c.OldPath != "" {
			r = append(r, fmt.Sprintf("renamed from %s", c.OldPath))
		} else {
			r = append(r, "file renamed")
		}
	case model.KindAdded:
		r = append(r, "new file")
	}

	for _, label := range ca.critical {
		r = append(r, "touches "+label)
	}
	for _, label := range ca.high {
		r = append(r, "changes "+label)
	}

	if n := c.TotalLines(); n > 200 {
		r = append(r, fmt.Sprintf("large change (%d lines)", n))
	}
	return r
}

// EstimateTokens approximates the context cost of a change at four
// characters per token: the path, every hunk header, each line plus ten
// characters of diff formatting, and a fixed fifty tokens of metadata.
func EstimateTokens(c model.Change) int {
	chars := len(c.Path)
	for _, h := range c.Hunks {
		chars += len(h.Header)
		for _, l := range h.Lines {
			chars += len(l.Content) + 10
		}
	}
	return (chars+3)/4 + 50
}

// SumScores totals the importance scores of a slice of ranked changes.
func SumScores(changes []RankedChange) float64 {
	var total float64
	for _, rc := range changes {
		total += rc.Importance.Score
	}
	return total
}

// SumTokens totals the estimated tokens of a slice of ranked changes.
func SumTokens(changes []RankedChange) int {
	total := 0
	for _, rc := range changes {
		total += rc.Importance.EstimatedTokens
	}
	return total
}

// SelectOptimalChanges picks whole changes that fit in tokenBudget. Critical
// changes are considered first, then high, then the rest, each tier in ranked
// order. A change that does not fit is skipped, never truncated.
func SelectOptimalChanges(ranked []RankedChange, tokenBudget int) []RankedChange {
	var selected []RankedChange
	used := 0

	take := func(match func(Category) bool) {
		for _, rc := range ranked {
			if !match(rc.Importance.Category) {
				continue
			}
			if used+rc.Importance.EstimatedTokens > tokenBudget {
				continue
			}
			selected = append(selected, rc)
			used += rc.Importance.EstimatedTokens
		}
	}

	take(func(c Category) bool { return c == CategoryCritical })
	take(func(c Category) bool { return c == CategoryHigh })
	take(func(c Category) bool { return c == CategoryMedium || c == CategoryLow })

	return selected
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
