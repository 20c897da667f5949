package budget

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/ranking"
)

// Level is a degree of lossy compression.
type Level int

const (
	LevelFull Level = iota
	LevelModerate
	LevelAggressive
	LevelMinimal
)

func (l Level) String() string {
	switch l {
	case LevelFull:
		return "full"
	case LevelModerate:
		return "moderate"
	case LevelAggressive:
		return "aggressive"
	case LevelMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// MarshalText renders the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Strategy is one compression transform.
type Strategy int

const (
	StrategyTestSummarize Strategy = iota
	StrategySignatureOnly
	StrategyDocCompress
	StrategyFileSummaryOnly
)

func (s Strategy) String() string {
	switch s {
	case StrategyTestSummarize:
		return "test-summarize"
	case StrategySignatureOnly:
		return "signature-only"
	case StrategyDocCompress:
		return "doc-compress"
	case StrategyFileSummaryOnly:
		return "file-summary-only"
	default:
		return "unknown"
	}
}

// MarshalText renders the strategy by name.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CompressionLevel pairs a level with the largest estimate/available ratio
// it handles and the transforms it applies, in order.
type CompressionLevel struct {
	Level       Level      `json:"level" yaml:"level"`
	MaxRatio    float64    `json:"max_ratio" yaml:"max_ratio"`
	Strategies  []Strategy `json:"strategies" yaml:"strategies"`
	Description string     `json:"description" yaml:"description"`
}

var compressionLevels = []CompressionLevel{
	{
		Level:       LevelFull,
		MaxRatio:    0.8,
		Description: "full content",
	},
	{
		Level:       LevelModerate,
		MaxRatio:    1.5,
		Strategies:  []Strategy{StrategyTestSummarize},
		Description: "test files summarized",
	},
	{
		Level:       LevelAggressive,
		MaxRatio:    3,
		Strategies:  []Strategy{StrategyTestSummarize, StrategySignatureOnly, StrategyDocCompress},
		Description: "tests and docs summarized, large files reduced to signatures",
	},
	{
		Level:       LevelMinimal,
		MaxRatio:    math.Inf(1),
		Strategies:  []Strategy{StrategyFileSummaryOnly},
		Description: "every file reduced to a summary",
	},
}

// Levels returns the compression levels from least to most aggressive.
func Levels() []CompressionLevel {
	out := make([]CompressionLevel, len(compressionLevels))
	copy(out, compressionLevels)
	return out
}

// SelectLevel picks the least aggressive level whose ratio threshold covers
// estimated/available.
func SelectLevel(estimated, available int) CompressionLevel {
	if estimated <= 0 {
		return compressionLevels[0]
	}
	if available <= 0 {
		return compressionLevels[len(compressionLevels)-1]
	}
	ratio := float64(estimated) / float64(available)
	for _, cl := range compressionLevels {
		if ratio <= cl.MaxRatio {
			return cl
		}
	}
	return compressionLevels[len(compressionLevels)-1]
}

func nextLevel(cl CompressionLevel) CompressionLevel {
	if int(cl.Level)+1 < len(compressionLevels) {
		return compressionLevels[cl.Level+1]
	}
	return cl
}

const (
	signatureTokenThreshold = 1000
	maxSignatures           = 5
	summaryHeader           = "@@ summary @@"
)

var signaturePattern = regexp.MustCompile(
	`^\s*(export\s+|pub\s+|public\s+|private\s+|protected\s+)?(default\s+)?(abstract\s+|static\s+)?(async\s+)?` +
		`(function|class|interface|type|struct|enum|trait|def|fn|func)\b`)

// Apply runs the strategy over every change and returns new values;
// the input slice is left untouched.
func (s Strategy) Apply(changes []ranking.RankedChange) []ranking.RankedChange {
	out := make([]ranking.RankedChange, len(changes))
	for i, rc := range changes {
		out[i] = s.applyOne(rc)
	}
	return out
}

func (s Strategy) applyOne(rc ranking.RankedChange) ranking.RankedChange {
	c := rc.Change
	switch s {
	case StrategyTestSummarize:
		if !ranking.IsTestFile(c.Path) {
			return rc
		}
		return rewrite(rc, summaryHunk(fmt.Sprintf("test file: +%d -%d lines in %d hunks",
			c.Insertions, c.Deletions, len(c.Hunks))))

	case StrategySignatureOnly:
		if rc.Importance.EstimatedTokens <= signatureTokenThreshold {
			return rc
		}
		return rewrite(rc, signatureHunk(c))

	case StrategyDocCompress:
		if !ranking.IsDocFile(c.Path) {
			return rc
		}
		return rewrite(rc, summaryHunk(fmt.Sprintf("documentation: +%d -%d lines", c.Insertions, c.Deletions)))

	case StrategyFileSummaryOnly:
		imp := rc.Importance
		reasons := "none"
		if len(imp.Reasons) > 0 {
			reasons = strings.Join(imp.Reasons, "; ")
		}
		return rewrite(rc, summaryHunk(
			fmt.Sprintf("[%s] score=%.2f +%d -%d", imp.Category, imp.Score, c.Insertions, c.Deletions),
			"reasons: "+reasons,
		))
	}
	return rc
}

// rewrite swaps a change's hunks and re-estimates its tokens. Score,
// category and reasons describe the real change and are kept.
func rewrite(rc ranking.RankedChange, hunks ...model.Hunk) ranking.RankedChange {
	c := rc.Change.WithHunks(hunks)
	imp := rc.Importance
	imp.EstimatedTokens = ranking.EstimateTokens(c)
	return ranking.RankedChange{Change: c, Importance: imp}
}

func summaryHunk(lines ...string) model.Hunk {
	h := model.Hunk{Header: summaryHeader}
	for _, l := range lines {
		h.Lines = append(h.Lines, model.Line{Kind: model.LineContext, Content: l})
	}
	return h
}

// signatureHunk keeps the first few declarations visible after the change
// and replaces everything else with a truncation marker.
func signatureHunk(c model.Change) model.Hunk {
	h := model.Hunk{Header: "@@ signatures @@"}
	total := 0
	for _, hunk := range c.Hunks {
		for _, l := range hunk.Lines {
			total++
			if l.Kind == model.LineRemoved || len(h.Lines) >= maxSignatures {
				continue
			}
			if signaturePattern.MatchString(l.Content) {
				h.Lines = append(h.Lines, l)
			}
		}
	}
	h.Lines = append(h.Lines, model.Line{
		Kind:    model.LineContext,
		Content: fmt.Sprintf("... [truncated: %d of %d lines omitted]", total-len(h.Lines), total),
	})
	return h
}

// Compress applies every strategy of a level in order.
func Compress(cl CompressionLevel, changes []ranking.RankedChange) []ranking.RankedChange {
	out := changes
	for _, s := range cl.Strategies {
		out = s.Apply(out)
	}
	return out
}
