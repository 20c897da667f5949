package ranking

import (
	"math"
	"strings"
	"testing"

	"github.com/sprite-ai/stagehand/internal/model"
)

func buildChange(path string, kind model.ChangeKind, added, removed []string) model.Change {
	var lines []model.Line
	for _, r := range removed {
		lines = append(lines, model.Line{Kind: model.LineRemoved, Content: r})
	}
	for _, a := range added {
		lines = append(lines, model.Line{Kind: model.LineAdded, Content: a})
	}
	return model.Change{
		Path:       path,
		Kind:       kind,
		Insertions: len(added),
		Deletions:  len(removed),
		Hunks: []model.Hunk{{
			Header:    "@@ -1,5 +1,40 @@",
			StartLine: 1,
			EndLine:   len(added),
			Lines:     lines,
		}},
	}
}

func repeat(line string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = line
	}
	return out
}

func authFixture() []model.Change {
	authAdded := append([]string{"export function login(user: string, pass: string) {"},
		repeat("  const session = createSession(user);", 39)...)
	auth := buildChange("src/auth.ts", model.KindModified, authAdded, repeat("  return legacyLogin(user);", 5))

	var testAdded []string
	for i := 0; i < 20; i++ {
		testAdded = append(testAdded,
			`it("logs in", () => {`,
			`  expect(login("a", "b")).toBe(true);`,
			`});`,
		)
	}
	authTest := buildChange("src/auth.test.ts", model.KindAdded, testAdded, nil)
	return []model.Change{auth, authTest}
}

func TestRankAuthScenario(t *testing.T) {
	result := Rank(authFixture())

	if len(result.RankedChanges) != 2 {
		t.Fatalf("expected 2 ranked changes, got %d", len(result.RankedChanges))
	}

	first := result.RankedChanges[0]
	if first.Change.Path != "src/auth.ts" {
		t.Errorf("expected auth.ts ranked first, got %s", first.Change.Path)
	}
	if cat := first.Importance.Category; cat != CategoryHigh && cat != CategoryCritical {
		t.Errorf("auth.ts category = %s, want high or critical", cat)
	}

	// Both saturate on content; the test file's larger size offsets its
	// lower kind prior, so it ties at best.
	second := result.RankedChanges[1]
	if second.Importance.Score > first.Importance.Score {
		t.Errorf("test file score %.3f should not exceed %.3f", second.Importance.Score, first.Importance.Score)
	}

	found := false
	for _, r := range first.Importance.Reasons {
		if strings.Contains(r, "public API surface") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected public API reason, got %v", first.Importance.Reasons)
	}

	if result.TotalTokens != first.Importance.EstimatedTokens+second.Importance.EstimatedTokens {
		t.Errorf("TotalTokens = %d, want sum of estimates", result.TotalTokens)
	}
	b := result.Breakdown
	if b.Critical+b.High+b.Medium+b.Low != 2 {
		t.Errorf("breakdown does not cover all changes: %+v", b)
	}
}

func TestRankEmpty(t *testing.T) {
	result := Rank(nil)
	if len(result.RankedChanges) != 0 {
		t.Errorf("expected no ranked changes, got %d", len(result.RankedChanges))
	}
	if result.TotalTokens != 0 {
		t.Errorf("expected 0 tokens, got %d", result.TotalTokens)
	}
	if result.Breakdown != (Breakdown{}) {
		t.Errorf("expected zero breakdown, got %+v", result.Breakdown)
	}
}

func TestRankDeterministicAndSorted(t *testing.T) {
	changes := append(authFixture(),
		buildChange("package-lock.json", model.KindModified, repeat(`    "version": "1.2.3",`, 300), nil),
		buildChange("README.md", model.KindModified, []string{"# Title", "Some words"}, nil),
		buildChange("migrations/001.sql", model.KindAdded, []string{"CREATE TABLE users (id int);"}, nil),
		buildChange("src/old.go", model.KindDeleted, nil, []string{"func Legacy() error {", "\treturn nil", "}"}),
	)

	a := Rank(changes)
	b := Rank(changes)

	for i := range a.RankedChanges {
		if a.RankedChanges[i].Change.Path != b.RankedChanges[i].Change.Path {
			t.Fatalf("order differs at %d: %s vs %s", i, a.RankedChanges[i].Change.Path, b.RankedChanges[i].Change.Path)
		}
		if a.RankedChanges[i].Importance.Score != b.RankedChanges[i].Importance.Score {
			t.Fatalf("score differs at %d", i)
		}
		if i > 0 && a.RankedChanges[i-1].Importance.Score < a.RankedChanges[i].Importance.Score {
			t.Errorf("not sorted at %d: %.3f < %.3f", i, a.RankedChanges[i-1].Importance.Score, a.RankedChanges[i].Importance.Score)
		}
	}

	last := a.RankedChanges[len(a.RankedChanges)-1]
	if last.Change.Path != "README.md" && last.Change.Path != "package-lock.json" {
		t.Errorf("expected a low-signal file last, got %s", last.Change.Path)
	}
}

func TestRankStableTies(t *testing.T) {
	changes := []model.Change{
		buildChange("a.go", model.KindModified, []string{"x := 1"}, nil),
		buildChange("b.go", model.KindModified, []string{"x := 1"}, nil),
		buildChange("c.go", model.KindModified, []string{"x := 1"}, nil),
	}
	result := Rank(changes)
	for i, want := range []string{"a.go", "b.go", "c.go"} {
		if got := result.RankedChanges[i].Change.Path; got != want {
			t.Errorf("position %d = %s, want %s", i, got, want)
		}
	}
}

func TestFileTypeScore(t *testing.T) {
	tests := []struct {
		path string
		want float64
	}{
		{"package.json", 0.95},
		{"app/.env", 0.95},
		{"yarn.lock", 0.1},
		{"src/index.ts", 0.8},
		{"README.md", 0.3},
		{"src/Makefile.inc", 0.8},
		{"test/fixtures/data", 0.4},
		{"docs/guide", 0.3},
		{"bin/tool", 0.5},
	}
	for _, tt := range tests {
		if got := fileTypeScore(tt.path); got != tt.want {
			t.Errorf("fileTypeScore(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want float64
	}{
		{"export const handler = () => {}", criticalLineScore},
		{`router.post("/login", handle)`, criticalLineScore},
		{"ALTER TABLE users ADD COLUMN age int;", criticalLineScore},
		{"const apiKey = load()", criticalLineScore},
		{"func (s *Server) Start() error {", criticalLineScore},
		{"func helper() {", highLineScore},
		{"class Widget {", highLineScore},
		{"} catch (e) {", highLineScore},
		{"await fetchUser(id)", highLineScore},
		{`import axios from "axios"`, highLineScore},
		{"total += price", normalLineScore},
		{"// just a comment", trivialLineScore},
		{"", trivialLineScore},
		{"});", trivialLineScore},
	}
	for _, tt := range tests {
		if got, _, _ := classifyLine(tt.line); got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestContentScoreSumsHunkLines(t *testing.T) {
	c := buildChange("x/y.unknownext", model.KindModified, []string{"export const a = 1", "foo(bar)"}, nil)
	// 0.9 + 0.5 in one hunk, capped
	if got := analyzeContent(c).score; got != 1 {
		t.Errorf("content score = %v, want 1", got)
	}
	// 0.3*0.5 + 0.2*0.7 + 0.4*1 + 0.1*0.2
	imp := Score(c)
	if imp.Score != 0.71 || imp.Category != CategoryHigh {
		t.Errorf("score = %v (%s), want 0.71 (high)", imp.Score, imp.Category)
	}

	two := model.Change{Path: "a.go", Kind: model.KindModified, Hunks: []model.Hunk{
		{Lines: []model.Line{{Kind: model.LineAdded, Content: "// note"}}},
		{Lines: []model.Line{
			{Kind: model.LineContext, Content: "export const ignored = 1"},
			{Kind: model.LineAdded, Content: "total += price"},
		}},
	}}
	// (0.2 + 0.5) / 2 hunks
	if got := analyzeContent(two).score; math.Abs(got-0.35) > 1e-9 {
		t.Errorf("two-hunk content score = %v, want 0.35", got)
	}
}

func TestRemovedLinesWeighMore(t *testing.T) {
	added := Score(buildChange("a.go", model.KindModified, []string{"total += price"}, nil))
	removed := Score(buildChange("a.go", model.KindModified, nil, []string{"total += price"}))
	if removed.Score <= added.Score {
		t.Errorf("removed %.4f should outrank added %.4f", removed.Score, added.Score)
	}
}

func TestEstimateTokens(t *testing.T) {
	c := model.Change{
		Path: "a.go",
		Hunks: []model.Hunk{{
			Header: "@@ -1 +1 @@",
			Lines:  []model.Line{{Kind: model.LineAdded, Content: "x"}},
		}},
	}
	// 4 (path) + 11 (header) + 1+10 (line) = 26 chars -> 7 tokens + 50 overhead
	if got := EstimateTokens(c); got != 57 {
		t.Errorf("EstimateTokens() = %d, want 57", got)
	}
	if got := EstimateTokens(model.Change{}); got != 50 {
		t.Errorf("EstimateTokens(empty) = %d, want 50", got)
	}
}

func rc(path string, cat Category, score float64, tokens int) RankedChange {
	return RankedChange{
		Change:     model.Change{Path: path},
		Importance: Importance{Score: score, Category: cat, EstimatedTokens: tokens},
	}
}

func TestSelectOptimalChanges(t *testing.T) {
	ranked := []RankedChange{
		rc("c1", CategoryCritical, 0.9, 400),
		rc("c2", CategoryCritical, 0.85, 700),
		rc("h1", CategoryHigh, 0.7, 300),
		rc("m1", CategoryMedium, 0.5, 200),
		rc("l1", CategoryLow, 0.2, 50),
	}

	selected := SelectOptimalChanges(ranked, 1000)

	var paths []string
	used := 0
	for _, s := range selected {
		paths = append(paths, s.Change.Path)
		used += s.Importance.EstimatedTokens
	}
	// c2 does not fit after c1; h1 and m1 do; l1 fills the rest.
	want := "c1,h1,m1,l1"
	if got := strings.Join(paths, ","); got != want {
		t.Errorf("selected = %s, want %s", got, want)
	}
	if used > 1000 {
		t.Errorf("used %d exceeds budget", used)
	}
}

func TestSelectOptimalChangesZeroBudget(t *testing.T) {
	ranked := []RankedChange{rc("a", CategoryCritical, 0.9, 10)}
	if got := SelectOptimalChanges(ranked, 0); len(got) != 0 {
		t.Errorf("expected nothing selected, got %d", len(got))
	}
}
