package complexity

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/ranking"
)

func lines(kind model.LineKind, content string, n int) []model.Line {
	out := make([]model.Line, n)
	for i := range out {
		out[i] = model.Line{Kind: kind, Content: content}
	}
	return out
}

func mkChange(path string, kind model.ChangeKind, hunkLines ...[]model.Line) model.Change {
	c := model.Change{Path: path, Kind: kind}
	var all []model.Line
	for _, ls := range hunkLines {
		all = append(all, ls...)
	}
	for _, l := range all {
		switch l.Kind {
		case model.LineAdded:
			c.Insertions++
		case model.LineRemoved:
			c.Deletions++
		}
	}
	c.Hunks = []model.Hunk{{Header: "@@ -1,48 +1,48 @@", StartLine: 1, EndLine: 48, Lines: all}}
	return c
}

func authChanges() []model.Change {
	auth := mkChange("src/auth.ts", model.KindModified,
		lines(model.LineAdded, "export function login(user: string, pass: string) {", 1),
		lines(model.LineAdded, "  const session = createSession(user);", 39),
		lines(model.LineRemoved, "  return legacyLogin(user);", 5),
	)
	test := mkChange("src/auth.test.ts", model.KindAdded,
		lines(model.LineAdded, `  expect(login("a", "b")).toBe(true);`, 60),
	)
	return []model.Change{auth, test}
}

// 25 files, 1200 lines: one deleted public interface, fourteen API handlers
// that rewrite exports, ten React components.
func largeChanges() []model.Change {
	changes := []model.Change{
		mkChange("src/types/public.ts", model.KindDeleted,
			lines(model.LineRemoved, "export interface User { id: string }", 48)),
	}
	for i := 0; i < 14; i++ {
		changes = append(changes, mkChange(fmt.Sprintf("src/api/handler%d.ts", i), model.KindModified,
			lines(model.LineRemoved, "export const limit = 10", 24),
			lines(model.LineAdded, "export const limit = 20", 24),
		))
	}
	for i := 0; i < 10; i++ {
		changes = append(changes, mkChange(fmt.Sprintf("src/components/Widget%d.jsx", i), model.KindModified,
			lines(model.LineAdded, `import React from "react"`, 48)))
	}
	return changes
}

func TestAnalyzeSimpleAuthScenario(t *testing.T) {
	changes := authChanges()
	b := budget.CalculateBudget("gpt-4", budget.PromptCommit)
	a := Analyze(changes, ranking.Rank(changes), &b)

	if a.Category != CategorySimple || a.Score > 25 {
		t.Errorf("got %s (%d), want simple", a.Category, a.Score)
	}
	if a.Metrics.FileCount != 2 || a.Metrics.TotalLines != 105 {
		t.Errorf("metrics = %+v", a.Metrics)
	}
	if a.Metrics.TestCoverage != 0.5 {
		t.Errorf("test coverage = %v, want 0.5", a.Metrics.TestCoverage)
	}
	if len(a.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", a.Warnings)
	}
	if a.Split != nil || a.ShouldSplit() {
		t.Errorf("simple change set should not split: %+v", a.Split)
	}
	if len(a.Recommendations) != 1 || a.Recommendations[0] != "Commit as a single unit" {
		t.Errorf("recommendations = %v", a.Recommendations)
	}
}

func TestAnalyzeVeryComplex(t *testing.T) {
	changes := largeChanges()
	ranked := ranking.Rank(changes)
	b := budget.CalculateBudget("gpt-4", budget.PromptCommit)

	if !IsBreakingChange(changes[0]) {
		t.Error("deleted public interface should be breaking")
	}
	if ranked.Breakdown.Critical < 1 {
		t.Errorf("expected critical changes, breakdown %+v", ranked.Breakdown)
	}

	a := Analyze(changes, ranked, &b)
	if a.Category != CategoryVeryComplex {
		t.Fatalf("got %s (%d), want very-complex; metrics %+v", a.Category, a.Score, a.Metrics)
	}
	if a.Metrics.FileCount != 25 || a.Metrics.TotalLines != 1200 {
		t.Errorf("metrics = %+v", a.Metrics)
	}
	if a.Metrics.BreakingChanges != 15 || a.Metrics.CriticalChanges != 15 {
		t.Errorf("breaking=%d critical=%d, want 15 and 15", a.Metrics.BreakingChanges, a.Metrics.CriticalChanges)
	}
	if a.Metrics.FrameworksAffected != 1 || a.Metrics.Frameworks[0] != "react" {
		t.Errorf("frameworks = %v", a.Metrics.Frameworks)
	}

	var titles []string
	for _, w := range a.Warnings {
		titles = append(titles, w.Title)
	}
	want := []string{
		"Many files changed",
		"Large change volume",
		"Many critical changes",
		"Breaking changes detected",
		"Low test coverage",
		"Token budget exceeded",
	}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("warnings = %v, want %v", titles, want)
	}
	if !a.HasErrors() {
		t.Error("expected error-level warnings")
	}

	if !a.ShouldSplit() {
		t.Fatal("expected a split suggestion")
	}
	commits := a.Split.SuggestedCommits
	if !strings.Contains(commits[0].Title, "breaking changes") {
		t.Errorf("first suggested commit = %q, want breaking changes", commits[0].Title)
	}
	if len(commits[0].Files) != 15 || len(commits) != 2 || len(commits[1].Files) != 10 {
		t.Errorf("unexpected split: %+v", commits)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	changes := largeChanges()
	ranked := ranking.Rank(changes)
	a := Analyze(changes, ranked, nil)
	b := Analyze(changes, ranked, nil)
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated analysis differs")
	}
}

func TestAnalyzeWithoutRankingOrBudget(t *testing.T) {
	a := Analyze(largeChanges(), nil, nil)
	if a.Metrics.CriticalChanges != 0 {
		t.Errorf("critical changes without ranking = %d", a.Metrics.CriticalChanges)
	}
	for _, w := range a.Warnings {
		if w.Title == "Token budget exceeded" {
			t.Error("budget warning without a budget")
		}
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(nil, nil, nil)
	if a.Score != 0 || a.Category != CategorySimple || len(a.Warnings) != 0 || a.Split != nil {
		t.Errorf("empty analysis = %+v", a)
	}
}

func TestBreakingWarningEscalates(t *testing.T) {
	one := Analyze([]model.Change{mkChange("old.go", model.KindDeleted, lines(model.LineRemoved, "x", 1))}, nil, nil)
	if len(one.Warnings) != 1 || one.Warnings[0].Level != model.SeverityWarning {
		t.Errorf("one breaking change: %+v", one.Warnings)
	}

	var changes []model.Change
	for i := 0; i < 3; i++ {
		changes = append(changes, mkChange(fmt.Sprintf("old%d.go", i), model.KindDeleted, lines(model.LineRemoved, "x", 1)))
	}
	three := Analyze(changes, nil, nil)
	if len(three.Warnings) != 1 || three.Warnings[0].Level != model.SeverityError {
		t.Errorf("three breaking changes: %+v", three.Warnings)
	}
}

func TestFrameworkScore(t *testing.T) {
	c := mkChange("src/app.js", model.KindModified, []model.Line{
		{Kind: model.LineAdded, Content: `const React = require("react")`},
		{Kind: model.LineAdded, Content: `const app = express()`},
		{Kind: model.LineRemoved, Content: `# Django settings`},
		{Kind: model.LineContext, Content: `angular.module("x")`},
	})
	a := Analyze([]model.Change{c}, nil, nil)
	if a.Metrics.FrameworksAffected != 3 {
		t.Errorf("frameworks = %v, want react, express, django", a.Metrics.Frameworks)
	}
	// 1 file (1) + 3 lines (0.05) + 3 frameworks (9)
	if a.Score != 10 {
		t.Errorf("score = %d, want 10", a.Score)
	}
}

func TestIsBreakingChange(t *testing.T) {
	tests := []struct {
		name   string
		change model.Change
		want   bool
	}{
		{"deleted", mkChange("a.go", model.KindDeleted), true},
		{"api path", mkChange("src/API/users.go", model.KindModified), true},
		{"interface path", mkChange("src/interfaces.ts", model.KindAdded), true},
		{"removed export", mkChange("src/a.ts", model.KindModified, lines(model.LineRemoved, "export const x = 1", 1)), true},
		{"removed public", mkChange("A.java", model.KindModified, lines(model.LineRemoved, "public void run()", 1)), true},
		{"added export", mkChange("src/a.ts", model.KindModified, lines(model.LineAdded, "export const x = 1", 1)), false},
		{"plain", mkChange("src/a.ts", model.KindModified, lines(model.LineRemoved, "x = 1", 1)), false},
	}
	for _, tt := range tests {
		if got := IsBreakingChange(tt.change); got != tt.want {
			t.Errorf("%s: IsBreakingChange = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCategoryForScore(t *testing.T) {
	tests := []struct {
		score int
		want  Category
	}{
		{0, CategorySimple}, {25, CategorySimple}, {26, CategoryModerate}, {50, CategoryModerate},
		{51, CategoryComplex}, {75, CategoryComplex}, {76, CategoryVeryComplex}, {100, CategoryVeryComplex},
	}
	for _, tt := range tests {
		if got := CategoryForScore(tt.score); got != tt.want {
			t.Errorf("CategoryForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestAnalyzeOptimalSplitBuckets(t *testing.T) {
	changes := []model.Change{
		mkChange("docs/guide.md", model.KindModified),
		mkChange("src/app_test.go", model.KindModified),
		mkChange("src/app.go", model.KindModified),
		mkChange("src/config/app_test.go", model.KindModified),
		mkChange("deploy/api.yaml", model.KindModified),
	}

	if s := AnalyzeOptimalSplit(changes, CategoryModerate); s != nil {
		t.Errorf("moderate should not split, got %+v", s)
	}

	s := AnalyzeOptimalSplit(changes, CategoryComplex)
	var order []string
	for _, c := range s.SuggestedCommits {
		order = append(order, strings.SplitN(c.Title, ":", 2)[0])
	}
	wantOrder := []string{"feat!", "chore(config)", "feat", "test", "docs"}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Errorf("commit order = %v, want %v", order, wantOrder)
	}
	if files := s.SuggestedCommits[1].Files; len(files) != 1 || files[0] != "src/config/app_test.go" {
		t.Errorf("config bucket = %v", files)
	}
	if files := s.SuggestedCommits[0].Files; len(files) != 1 || files[0] != "deploy/api.yaml" {
		t.Errorf("breaking bucket = %v", files)
	}
}

func TestClassifyCoreBeforeTest(t *testing.T) {
	tests := []struct {
		path string
		want bucket
	}{
		{"src/testing/util.go", bucketCore},
		{"src/contest/score.ts", bucketCore},
		{"src/app.go", bucketCore},
		{"src/app_test.go", bucketTest},
		{"src/auth.spec.ts", bucketTest},
		{"test/helpers.go", bucketTest},
		{"pkg/__tests__/render.js", bucketTest},
		{"fixtures/test_data.json", bucketTest},
		{"src/config/app_test.go", bucketConfig},
		{"docs/testing.md", bucketTest},
		{"docs/guide.md", bucketDoc},
		{"assets/logo.svg", bucketCore},
	}
	for _, tt := range tests {
		if got := classify(mkChange(tt.path, model.KindModified)); got != tt.want {
			t.Errorf("classify(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	m := Metrics{FileCount: 2, TotalLines: 100, CriticalChanges: 5}
	// (200 + 200) * 1.5
	if got := EstimateTokens(m); got != 600 {
		t.Errorf("EstimateTokens = %d, want 600", got)
	}
}
