package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sprite-ai/stagehand/internal/diff"
	"github.com/sprite-ai/stagehand/internal/model"
)

// renderedLine is a single line of diff output ready for display.
type renderedLine struct {
	Num     int // 0 if unknown
	Kind    model.LineKind
	Content string
	IsHunk  bool

	// Syntax highlighting tokens (nil = no highlighting)
	Tokens []diff.Token
}

// renderChange produces renderedLines for a change's hunks.
func renderChange(c model.Change, hl *diff.Highlighter) []renderedLine {
	var lines []renderedLine
	highlighted := hl.Change(c)

	for i, h := range c.Hunks {
		lines = append(lines, renderedLine{IsHunk: true, Content: h.Header})

		for j, l := range h.Lines {
			rl := renderedLine{
				Num:     l.Number,
				Kind:    l.Kind,
				Content: l.Content,
			}
			if j < len(highlighted[i]) {
				rl.Tokens = highlighted[i][j].Tokens
			}
			lines = append(lines, rl)
		}

		// Blank separator between hunks (but not after the last)
		if i < len(c.Hunks)-1 {
			lines = append(lines, renderedLine{})
		}
	}
	return lines
}

// renderHighlightedContent renders line content with syntax tokens.
func renderHighlightedContent(rl renderedLine, prefix string) string {
	if len(rl.Tokens) == 0 {
		return contextLineStyle.Render(prefix + rl.Content)
	}

	var b strings.Builder
	b.WriteString(prefix)
	for _, tok := range rl.Tokens {
		if tok.Color != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(tok.Text))
		} else {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

func lineNum(n int) string {
	if n <= 0 {
		return lineNumberStyle.Render("")
	}
	return lineNumberStyle.Render(fmt.Sprintf("%4d", n))
}

// styleLine applies styling to a rendered line for unified view.
func styleLine(rl renderedLine, width int) string {
	if rl.IsHunk {
		return hunkHeaderStyle.Width(width).Render(truncate(rl.Content, width))
	}

	prefix := rl.Kind.Prefix()
	maxContent := width - 6

	var content string
	switch rl.Kind {
	case model.LineAdded:
		content = addedLineStyle.Render(truncate(prefix+rl.Content, maxContent))
	case model.LineRemoved:
		content = deletedLineStyle.Render(truncate(prefix+rl.Content, maxContent))
	default:
		// Context lines get syntax highlighting unless they need truncating.
		if len(prefix+rl.Content) > maxContent {
			content = contextLineStyle.Render(truncate(prefix+rl.Content, maxContent))
		} else {
			content = renderHighlightedContent(rl, prefix)
		}
	}
	return lineNum(rl.Num) + " " + content
}

// styleLineSplit renders a line for split (side-by-side) view.
func styleLineSplit(rl renderedLine, halfWidth int) (left, right string) {
	if rl.IsHunk {
		return hunkHeaderStyle.Width(halfWidth).Render(truncate(rl.Content, halfWidth)), ""
	}

	maxContent := halfWidth - 7
	blank := strings.Repeat(" ", halfWidth)

	switch rl.Kind {
	case model.LineRemoved:
		left = lineNum(rl.Num) + " " + deletedLineStyle.Render("-"+truncate(rl.Content, maxContent))
		right = blank
	case model.LineAdded:
		left = blank
		right = lineNum(rl.Num) + " " + addedLineStyle.Render("+"+truncate(rl.Content, maxContent))
	default:
		content := contextLineStyle.Render(" " + truncate(rl.Content, maxContent))
		left = lineNum(rl.Num) + " " + content
		right = left
	}
	return left, right
}

func riskStyle(r model.RiskLevel) lipgloss.Style {
	switch r {
	case model.RiskHigh:
		return riskHighStyle
	case model.RiskMedium:
		return riskMediumStyle
	default:
		return riskLowStyle
	}
}

func fileStyle(c model.Change, selected bool) lipgloss.Style {
	switch {
	case selected:
		return fileItemSelectedStyle
	case c.Kind == model.KindAdded:
		return fileItemNewStyle
	case c.Kind == model.KindDeleted:
		return fileItemDeletedStyle
	default:
		return fileItemStyle
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
