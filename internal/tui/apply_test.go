package tui

import (
	"strings"
	"testing"

	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/diff"
)

func TestPatchRoundTrip(t *testing.T) {
	changes := testChanges(t)
	r := &Result{Strategy: boundary.SuggestStagingStrategy([]boundary.Boundary{
		{ID: "all", Changes: changes, Theme: "code improvements"},
	})}

	patch := r.Patch(r.Strategy.Commits[0])
	for _, want := range []string{
		"diff --git a/util.go b/util.go\nnew file mode 100644\n--- /dev/null\n+++ b/util.go\n",
		"@@ -0,0 +1,5 @@\n+package main\n",
		"-\tprintln(\"hello\")\n",
	} {
		if !strings.Contains(patch, want) {
			t.Errorf("patch missing %q:\n%s", want, patch)
		}
	}

	reparsed, err := diff.ParseChanges(patch)
	if err != nil {
		t.Fatalf("patch does not parse: %v", err)
	}
	if len(reparsed) != 2 {
		t.Fatalf("expected 2 files, got %d", len(reparsed))
	}
	for i := range changes {
		if reparsed[i].String() != changes[i].String() {
			t.Errorf("file %d: got %s, want %s", i, reparsed[i], changes[i])
		}
	}
}

func TestScriptCommitBody(t *testing.T) {
	changes := testChanges(t)
	r := &Result{Strategy: boundary.SuggestStagingStrategy([]boundary.Boundary{
		{ID: "all", Changes: changes, Theme: "code improvements"},
	})}

	script := r.Script()
	want := "git commit -m 'refactor: improve code structure' -m '- M main.go +2 -1\n- A util.go +5 -0'\n"
	if !strings.Contains(script, want) {
		t.Errorf("script missing %q:\n%s", want, script)
	}
	if !strings.HasPrefix(script, "git reset --quiet\n") {
		t.Errorf("script should reset the index first:\n%s", script)
	}
}

func TestScriptEmpty(t *testing.T) {
	r := &Result{
		Strategy: boundary.SuggestStagingStrategy([]boundary.Boundary{{ID: "a", Changes: testChanges(t)}}),
		Skipped:  map[string]bool{"a": true},
	}
	if s := r.Script(); s != "" {
		t.Errorf("expected empty script, got %q", s)
	}
}

func TestShellQuote(t *testing.T) {
	tests := map[string]string{
		"plain":      "'plain'",
		"it's":       `'it'\''s'`,
		"with space": "'with space'",
	}
	for in, want := range tests {
		if got := shellQuote(in); got != want {
			t.Errorf("shellQuote(%q) = %s, want %s", in, got, want)
		}
	}
}
