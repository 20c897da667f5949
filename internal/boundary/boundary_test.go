package boundary

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/sprite-ai/stagehand/internal/model"
)

func ch(path string, added ...string) model.Change {
	lines := make([]model.Line, len(added))
	for i, a := range added {
		lines[i] = model.Line{Kind: model.LineAdded, Content: a}
	}
	return model.Change{
		Path:       path,
		Kind:       model.KindModified,
		Insertions: len(added),
		Hunks:      []model.Hunk{{Header: "@@ -1 +1 @@", StartLine: 1, EndLine: len(added), Lines: lines}},
	}
}

func ids(bs []Boundary) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func assertPartition(t *testing.T, changes []model.Change, bs []Boundary) {
	t.Helper()
	seen := make(map[string]int)
	for _, b := range bs {
		if len(b.Changes) == 0 {
			t.Errorf("boundary %s is empty", b.ID)
		}
		for _, c := range b.Changes {
			seen[c.Path]++
		}
	}
	for _, c := range changes {
		if seen[c.Path] != 1 {
			t.Errorf("%s appears in %d boundaries", c.Path, seen[c.Path])
		}
	}
	if len(seen) != len(changes) {
		t.Errorf("boundaries hold %d files, input has %d", len(seen), len(changes))
	}
}

func TestAnalyzeSmallSetAuth(t *testing.T) {
	changes := []model.Change{
		ch("src/auth.ts", "export function login(user: string, pass: string) {"),
		ch("src/auth.test.ts", `it("logs in", () => {`),
	}
	bs := AnalyzeCommitBoundaries(changes)
	if len(bs) != 1 {
		t.Fatalf("expected one boundary, got %v", ids(bs))
	}
	if bs[0].Theme != "authentication" {
		t.Errorf("theme = %q, want authentication", bs[0].Theme)
	}
	if len(bs[0].Changes) != 2 {
		t.Errorf("boundary holds %d changes", len(bs[0].Changes))
	}
	if !strings.Contains(bs[0].Reasoning, "test_pair") {
		t.Errorf("reasoning should cite the test pair: %q", bs[0].Reasoning)
	}
	if bs[0].Priority != model.PriorityHigh {
		t.Errorf("priority = %s, want high", bs[0].Priority)
	}
}

func TestAnalyzeSmallSetShortcut(t *testing.T) {
	for n := 1; n <= 3; n++ {
		var changes []model.Change
		for i := 0; i < n; i++ {
			changes = append(changes, ch(fmt.Sprintf("pkg%d/file.go", i), "x := 1"))
		}
		bs := AnalyzeCommitBoundaries(changes)
		if len(bs) != 1 {
			t.Errorf("%d changes gave %d boundaries", n, len(bs))
			continue
		}
		assertPartition(t, changes, bs)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	bs := AnalyzeCommitBoundaries(nil)
	if bs == nil || len(bs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", bs)
	}
}

func TestAnalyzeSplitsLargeBoundary(t *testing.T) {
	var changes []model.Change
	for i := 0; i < 9; i++ {
		changes = append(changes, ch(fmt.Sprintf("src/core/mod%d.go", i), "x := 1"))
	}

	bs := AnalyzeCommitBoundaries(changes)
	want := []string{"business_logic-part1", "business_logic-part2", "business_logic-part3"}
	if got := ids(bs); !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i, size := range []int{4, 4, 1} {
		if len(bs[i].Changes) != size {
			t.Errorf("%s has %d files, want %d", bs[i].ID, len(bs[i].Changes), size)
		}
	}
	if !strings.Contains(bs[0].Reasoning, "part 1 of 3") {
		t.Errorf("reasoning = %q", bs[0].Reasoning)
	}
	assertPartition(t, changes, bs)

	// A looser merge limit lets the trailing singleton join the first part.
	loose := NewAnalyzer(Options{SplitThreshold: 8, ChunkSize: 4, MergeLimit: 5}).Analyze(changes)
	if len(loose) != 2 || len(loose[0].Changes) != 5 {
		t.Errorf("expected singleton merged into part1, got %v", ids(loose))
	}
	assertPartition(t, changes, loose)
}

func TestAnalyzeMergesSingletonBySameTheme(t *testing.T) {
	changes := []model.Change{
		ch("src/auth/login.go", "x := 1"),
		ch("src/auth/session.go", "y := 2"),
		ch("src/api/users.go", "z := 3"),
		ch("README.md", "Intro"),
	}

	bs := AnalyzeCommitBoundaries(changes)
	if got := ids(bs); !reflect.DeepEqual(got, []string{"documentation", "business_logic"}) {
		t.Fatalf("ids = %v", got)
	}
	logic := bs[1]
	if len(logic.Changes) != 3 || logic.Changes[2].Path != "src/api/users.go" {
		t.Errorf("users.go not merged: %v", logic.Files())
	}
	if !strings.Contains(logic.Reasoning, "absorbed src/api/users.go") {
		t.Errorf("reasoning = %q", logic.Reasoning)
	}
	if bs[0].Theme != "documentation" || len(bs[0].Changes) != 1 {
		t.Errorf("README should stay alone: %+v", bs[0])
	}
	assertPartition(t, changes, bs)
}

func TestAnalyzeDependencies(t *testing.T) {
	changes := []model.Change{
		ch("db/schema.sql", "CREATE TABLE invoices (id int);"),
		ch("src/auth/billing.go", "rows := db.Query(schema.Invoices)"),
		ch("docs/billing.md", "Payments overview"),
		ch("config/app.yaml", "port: 8080"),
	}

	bs := AnalyzeCommitBoundaries(changes)
	want := []string{"documentation", "configuration", "database", "business_logic"}
	if got := ids(bs); !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if deps := bs[3].Dependencies; len(deps) != 1 || deps[0] != "database" {
		t.Errorf("business_logic deps = %v, want [database]", deps)
	}
	for _, b := range bs[:3] {
		if len(b.Dependencies) != 0 {
			t.Errorf("%s should have no deps, got %v", b.ID, b.Dependencies)
		}
	}
	if bs[2].Priority != model.PriorityHigh || bs[1].Priority != model.PriorityMedium || bs[0].Priority != model.PriorityLow {
		t.Errorf("priorities = %s %s %s", bs[0].Priority, bs[1].Priority, bs[2].Priority)
	}

	s := SuggestStagingStrategy(bs)
	if s.Mode != ModeSequential {
		t.Errorf("mode = %s, want sequential", s.Mode)
	}
	found := false
	for _, w := range s.Warnings {
		if strings.Contains(w, "business_logic must be committed after database") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing dependency warning: %v", s.Warnings)
	}
}

func TestAnalyzePartitionMixedSet(t *testing.T) {
	paths := []string{
		"src/auth/login.ts", "src/auth/login.test.ts", "src/auth/session.ts",
		"src/components/Button.tsx", "src/components/Modal.tsx", "src/styles/main.css",
		"src/api/routes.ts", "src/api/handlers/user.ts", "server/index.js",
		"migrations/001_init.sql", "src/models/invoice.ts",
		"package.json", "tsconfig.json", ".env.example",
		"docs/setup.md", "CHANGELOG.md",
		"scripts/deploy.sh", "assets/logo.svg",
		"src/lib/format.ts", "src/lib/parse.ts", "src/lib/math.ts", "src/lib/dates.ts",
		"src/lib/strings.ts", "src/lib/numbers.ts", "src/lib/arrays.ts", "src/lib/maps.ts",
		"src/lib/sets.ts",
	}
	var changes []model.Change
	for _, p := range paths {
		changes = append(changes, ch(p, "const value = compute()"))
	}

	for _, opts := range []Options{DefaultOptions(), StrictOptions()} {
		bs := NewAnalyzer(opts).Analyze(changes)
		assertPartition(t, changes, bs)

		seen := make(map[string]bool)
		for _, b := range bs {
			if seen[b.ID] {
				t.Errorf("duplicate boundary id %s", b.ID)
			}
			seen[b.ID] = true
			for _, dep := range b.Dependencies {
				if dep == b.ID {
					t.Errorf("%s depends on itself", b.ID)
				}
			}
		}
	}

	bs := AnalyzeCommitBoundaries(changes)
	for _, b := range bs {
		if b.Group == GroupMixed && (b.Theme != "miscellaneous" || b.Priority != model.PriorityLow) {
			t.Errorf("mixed boundary = %+v", b)
		}
		if len(b.Changes) > DefaultOptions().SplitThreshold {
			t.Errorf("%s has %d files after optimization", b.ID, len(b.Changes))
		}
	}
}

func TestGroupOf(t *testing.T) {
	tests := []struct {
		path string
		want ImpactGroup
	}{
		{"src/auth.test.ts", GroupTests},
		{"pkg/spec/helpers.rb", GroupTests},
		{"docs/setup.md", GroupDocumentation},
		{"config/app.yaml", GroupConfiguration},
		{"package.json", GroupConfiguration},
		{"migrations/001_init.sql", GroupDatabase},
		{"src/models/user.ts", GroupDatabase},
		{"src/api/routes.ts", GroupAPI},
		{"internal/server/http.go", GroupAPI},
		{"src/components/Button.tsx", GroupUI},
		{"web/site.css", GroupUI},
		{"src/auth/login.go", GroupBusinessLogic},
		{"tools/gen.py", GroupBusinessLogic},
		{"scripts/deploy.sh", GroupMixed},
		{"assets/logo.svg", GroupMixed},
	}
	for _, tt := range tests {
		if got := groupOf(tt.path); got != tt.want {
			t.Errorf("groupOf(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestDetectTheme(t *testing.T) {
	tests := []struct {
		paths []string
		want  string
	}{
		{[]string{"src/auth.ts", "src/auth.test.ts"}, "authentication"},
		{[]string{"src/UserService.ts"}, "authentication"},
		{[]string{"src/components/Button.tsx", "src/styles/main.css"}, "user interface"},
		{[]string{"src/api/routes.ts"}, "api development"},
		{[]string{"docs/guide.md"}, "documentation"},
		{[]string{"config/app.yaml", ".env"}, "configuration"},
		{[]string{"src/lib/math.go"}, "code improvements"},
		{nil, "code improvements"},
	}
	for _, tt := range tests {
		var changes []model.Change
		for _, p := range tt.paths {
			changes = append(changes, ch(p))
		}
		if got := DetectTheme(changes); got != tt.want {
			t.Errorf("DetectTheme(%v) = %q, want %q", tt.paths, got, tt.want)
		}
	}
}

func TestDetectThemeTieGoesToFirstSeen(t *testing.T) {
	changes := []model.Change{ch("src/api/routes.ts"), ch("src/auth/login.ts")}
	if got := DetectTheme(changes); got != "api development" {
		t.Errorf("DetectTheme = %q, want api development", got)
	}
}

func TestComplexityOf(t *testing.T) {
	c := ch("a.go", "x", "y", "z")
	c.Deletions = 2
	c.Hunks = append(c.Hunks, model.Hunk{Header: "@@ -9 +9 @@"})
	// 5 lines + 2 hunks * 0.5
	if got := complexityOf([]model.Change{c}); got != 6 {
		t.Errorf("complexityOf = %d, want 6", got)
	}
}

func TestFindRelationships(t *testing.T) {
	changes := []model.Change{
		ch("src/auth.ts", `import { hash } from "./crypto"`),
		ch("src/crypto.ts", "export const hash = (s) => s"),
		ch("src/auth.test.ts", `expect(true)`),
		ch("src/alpha.go", "func Encode(v any) error {", "func Decode(b []byte) error {"),
		ch("src/beta.go", "func Encode(v any) error {", "func Decode(b []byte) error {"),
		ch("src/util.go", "func Normalize(s string) string {"),
		ch("src/handler.go", "out := Normalize(input)"),
		ch("config/app.yaml", "port: 1"),
		ch("settings.json", "{}"),
	}
	rels := FindRelationships(changes)

	type key struct {
		from, to string
		typ      RelationType
	}
	got := make(map[key]float64)
	for _, r := range rels {
		got[key{r.From, r.To, r.Type}] = r.Strength
	}

	want := map[key]float64{
		{"src/auth.ts", "src/crypto.ts", RelImport}:            1.0,
		{"src/auth.ts", "src/auth.test.ts", RelTestPair}:       0.9,
		{"src/alpha.go", "src/beta.go", RelSimilarChanges}:     0.7,
		{"src/util.go", "src/handler.go", RelSharedFunction}:   0.5,
		{"config/app.yaml", "settings.json", RelConfigRelated}: 0.8,
	}
	for k, s := range want {
		if g, ok := got[k]; !ok || g != s {
			t.Errorf("%s %s->%s = %v (present %v), want %v", k.typ, k.from, k.to, g, ok, s)
		}
	}
	if _, ok := got[key{"src/alpha.go", "src/beta.go", RelSharedFunction}]; ok {
		t.Error("functions both files define should not count as shared calls")
	}
}

func TestImportMentionWithoutStatement(t *testing.T) {
	a := newFileFacts(ch("src/report.go", "data := invoice.Total()"))
	b := newFileFacts(ch("src/invoice.go", "x := 1"))
	if s := importScore(a, b); s != importMention {
		t.Errorf("importScore = %v, want %v", s, importMention)
	}
}

func TestBuildDependencyGraph(t *testing.T) {
	changes := []model.Change{
		ch("src/report.go", "total := invoice.Sum()"),
		ch("src/invoice.go", "x := 1"),
		ch("src/digest.go", "report invoice"),
	}
	g := BuildDependencyGraph(changes)
	if deps := g["src/report.go"]; !reflect.DeepEqual(deps, []string{"src/invoice.go"}) {
		t.Errorf("report deps = %v", deps)
	}
	if deps := g["src/invoice.go"]; len(deps) != 0 {
		t.Errorf("invoice deps = %v", deps)
	}
	got := g["src/digest.go"]
	sort.Strings(got)
	if !reflect.DeepEqual(got, []string{"src/invoice.go", "src/report.go"}) {
		t.Errorf("digest.go deps = %v", got)
	}
}

func TestShortFileNames(t *testing.T) {
	changes := []model.Change{
		ch("src/db.ts", "export const q = (sql) => sql"),
		ch("src/io.ts", `import { q } from "./db"`),
		ch("README.md", "Usage"),
		ch("src/ui/x.css", "body {}"),
	}

	var imp *Relationship
	for _, r := range FindRelationships(changes) {
		if r.Type == RelImport && r.From == "src/db.ts" && r.To == "src/io.ts" {
			imp = &r
		}
	}
	if imp == nil || imp.Strength != 1.0 {
		t.Errorf("import edge between db.ts and io.ts = %+v, want strength 1", imp)
	}

	g := BuildDependencyGraph(changes)
	if deps := g["src/io.ts"]; !reflect.DeepEqual(deps, []string{"src/db.ts"}) {
		t.Errorf("io.ts deps = %v, want [src/db.ts]", deps)
	}

	dotfile := []model.Change{ch(".env", "A=1"), ch("src/app.ts", "const a = 1")}
	if g := BuildDependencyGraph(dotfile); len(g) != 0 {
		t.Errorf("a dotfile with no base name should not match everything: %v", g)
	}
}
