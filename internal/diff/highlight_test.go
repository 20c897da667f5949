package diff

import (
	"testing"

	"github.com/sprite-ai/stagehand/internal/model"
)

func TestHighlightLines(t *testing.T) {
	lines := []string{
		"package main",
		"",
		"func main() {",
		`	fmt.Println("hello")`,
		"}",
	}

	highlighted := HighlightLines("main.go", lines)

	if len(highlighted) != len(lines) {
		t.Fatalf("expected %d highlighted lines, got %d", len(lines), len(highlighted))
	}
	if len(highlighted[0].Tokens) == 0 {
		t.Error("expected tokens in first line")
	}
	if highlighted[0].Plain() != "package main" {
		t.Errorf("plain text mismatch: %q", highlighted[0].Plain())
	}
}

func TestHighlightLinesUnknownLanguage(t *testing.T) {
	lines := []string{"some content", "more content"}
	highlighted := HighlightLines("unknown.xyz123", lines)

	if len(highlighted) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(highlighted))
	}
	if highlighted[0].Plain() != "some content" {
		t.Errorf("expected plain passthrough, got %q", highlighted[0].Plain())
	}
}

func TestHighlightChangeSplitsByHunk(t *testing.T) {
	c := model.Change{
		Path: "main.go",
		Hunks: []model.Hunk{
			{Lines: []model.Line{{Content: "package main"}, {Content: ""}}},
			{Lines: []model.Line{{Kind: model.LineAdded, Content: "func f() {}"}}},
		},
	}

	out := NewHighlighter("no-such-style").Change(c)
	if len(out) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(out))
	}
	if len(out[0]) != 2 || len(out[1]) != 1 {
		t.Fatalf("hunk sizes = %d, %d", len(out[0]), len(out[1]))
	}
	if out[1][0].Plain() != "func f() {}" {
		t.Errorf("second hunk text = %q", out[1][0].Plain())
	}
}

func TestLanguage(t *testing.T) {
	if got := Language("cmd/main.go"); got != "Go" {
		t.Errorf("Language(main.go) = %q, want Go", got)
	}
	if got := Language("data.xyz123"); got != "" {
		t.Errorf("Language(unknown) = %q, want empty", got)
	}
}
