package diff

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/sprite-ai/stagehand/internal/model"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "dracula"

// HighlightedLine represents a line with syntax-highlighted tokens.
type HighlightedLine struct {
	Tokens []Token
}

// Token is a syntax-highlighted chunk of text.
type Token struct {
	Text  string
	Color string // hex color, empty for default
}

// Plain returns the concatenated plain text of all tokens.
func (hl HighlightedLine) Plain() string {
	var b strings.Builder
	for _, t := range hl.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Highlighter colors change content with a fixed chroma style.
type Highlighter struct {
	style *chroma.Style
}

// NewHighlighter returns a highlighter for the named style, falling back
// to chroma's default when the name is unknown.
func NewHighlighter(styleName string) *Highlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{style: style}
}

// Language returns the lexer name for a path, or "" if none matches.
func Language(path string) string {
	lexer := lexerForFile(path)
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}

// HighlightLines colors lines with the default style.
func HighlightLines(filename string, lines []string) []HighlightedLine {
	return NewHighlighter(DefaultStyle).Lines(filename, lines)
}

// Lines tokenizes the lines as one block, so that comments and strings
// spanning several lines keep their color, and returns exactly one
// HighlightedLine per input line. Adjacent tokens of the same color are
// merged. Unknown languages come back as plain text.
func (h *Highlighter) Lines(filename string, lines []string) []HighlightedLine {
	lexer := lexerForFile(filename)
	if lexer == nil {
		return plainLines(lines)
	}
	iterator, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return plainLines(lines)
	}

	out := make([]HighlightedLine, len(lines))
	row := 0
	emit := func(text, color string) {
		if text == "" || row >= len(out) {
			return
		}
		toks := out[row].Tokens
		if n := len(toks); n > 0 && toks[n-1].Color == color {
			toks[n-1].Text += text
			return
		}
		out[row].Tokens = append(toks, Token{Text: text, Color: color})
	}

	for _, tok := range iterator.Tokens() {
		color := h.tokenColor(tok.Type)
		rest := tok.Value
		for {
			before, after, found := strings.Cut(rest, "\n")
			emit(before, color)
			if !found {
				break
			}
			row++
			rest = after
		}
	}

	for i := range out {
		if out[i].Tokens == nil {
			out[i].Tokens = []Token{{Text: ""}}
		}
	}
	return out
}

// Change highlights every hunk of a change. The outer slice is indexed
// by hunk, the inner one by line within that hunk.
func (h *Highlighter) Change(c model.Change) [][]HighlightedLine {
	var all []string
	for _, hunk := range c.Hunks {
		for _, l := range hunk.Lines {
			all = append(all, l.Content)
		}
	}
	lit := h.Lines(c.Path, all)

	out := make([][]HighlightedLine, len(c.Hunks))
	idx := 0
	for i, hunk := range c.Hunks {
		out[i] = lit[idx : idx+len(hunk.Lines)]
		idx += len(hunk.Lines)
	}
	return out
}

func plainLines(lines []string) []HighlightedLine {
	result := make([]HighlightedLine, len(lines))
	for i, line := range lines {
		result[i] = HighlightedLine{Tokens: []Token{{Text: line}}}
	}
	return result
}

func lexerForFile(filename string) chroma.Lexer {
	lexer := lexers.Match(filepath.Base(filename))
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	return lexer
}

func (h *Highlighter) tokenColor(tt chroma.TokenType) string {
	entry := h.style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
