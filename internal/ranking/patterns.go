package ranking

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Known file names and their base importance.
var fileNameImportance = map[string]float64{
	"package.json":       0.95,
	".env":               0.95,
	"go.mod":             0.9,
	"Cargo.toml":         0.9,
	"pyproject.toml":     0.9,
	"requirements.txt":   0.85,
	"tsconfig.json":      0.85,
	"Dockerfile":         0.85,
	"docker-compose.yml": 0.85,
	"Makefile":           0.7,
	"package-lock.json":  0.1,
	"yarn.lock":          0.1,
	"pnpm-lock.yaml":     0.1,
	"go.sum":             0.1,
	"Cargo.lock":         0.1,
	"poetry.lock":        0.1,
	"Gemfile.lock":       0.1,
	"composer.lock":      0.1,
}

// Extensions and their base importance.
var extensionImportance = map[string]float64{
	".ts":    0.8,
	".tsx":   0.8,
	".js":    0.7,
	".jsx":   0.7,
	".go":    0.8,
	".py":    0.8,
	".rs":    0.8,
	".java":  0.8,
	".kt":    0.8,
	".rb":    0.75,
	".cs":    0.8,
	".php":   0.7,
	".sql":   0.85,
	".proto": 0.85,
	".vue":   0.75,
	".json":  0.6,
	".yaml":  0.6,
	".yml":   0.6,
	".toml":  0.6,
	".css":   0.5,
	".scss":  0.5,
	".html":  0.5,
	".md":    0.3,
	".txt":   0.2,
	".lock":  0.1,
	".svg":   0.2,
	".png":   0.1,
	".jpg":   0.1,
}

// Path fragments consulted only when neither name nor extension is known.
var pathImportance = []struct {
	fragment string
	score    float64
}{
	{"src/", 0.8},
	{"test/", 0.4},
	{"docs/", 0.3},
}

const defaultFileImportance = 0.5

// fileTypeScore returns the static prior for a path.
func fileTypeScore(path string) float64 {
	base := filepath.Base(path)
	if s, ok := fileNameImportance[base]; ok {
		return s
	}
	if s, ok := extensionImportance[strings.ToLower(filepath.Ext(base))]; ok {
		return s
	}
	for _, p := range pathImportance {
		if strings.Contains(path, p.fragment) {
			return p.score
		}
	}
	return defaultFileImportance
}

type linePattern struct {
	pattern *regexp.Regexp
	label   string
}

// Lines that touch public surface, routing, schema, secrets or configuration.
// Evaluated in order; the first match names the reason.
var criticalPatterns = []linePattern{
	{regexp.MustCompile(`^\s*export\s+`), "public API surface"},
	{regexp.MustCompile(`\bpublic\s+(static\s+)?(class|interface|enum|record|\w+\s*\()`), "public API surface"},
	{regexp.MustCompile(`^\s*func\s+(\([^)]*\)\s*)?[A-Z]\w*\s*[\[(]`), "public API surface"},
	{regexp.MustCompile(`\b(app|router|r|mux|server)\.(get|post|put|patch|delete|route|use|Handle|HandleFunc|GET|POST|PUT|PATCH|DELETE)\s*\(`), "route registration"},
	{regexp.MustCompile(`@(Get|Post|Put|Patch|Delete|RequestMapping|app\.route)\b`), "route registration"},
	{regexp.MustCompile(`(?i)\b(CREATE|ALTER|DROP)\s+(TABLE|INDEX|VIEW|SCHEMA|DATABASE|TYPE|SEQUENCE)\b`), "schema change"},
	{regexp.MustCompile(`(?i)\b(ADD|DROP|RENAME|MODIFY)\s+COLUMN\b`), "schema change"},
	{regexp.MustCompile(`(?i)\b(password|passwd|secret|credentials?|api[_-]?key|private[_-]?key|jwt|oauth|bearer)\b`), "authentication or secrets"},
	{regexp.MustCompile(`(?i)\b(authenticate|authorize|authorization|access[_-]?token|refresh[_-]?token)\b`), "authentication or secrets"},
	{regexp.MustCompile(`\b(process\.env|os\.Getenv|os\.environ|import\.meta\.env)\b`), "configuration"},
	{regexp.MustCompile(`(?i)\b(config|settings)\.\w+\s*=`), "configuration"},
}

// Declarations, error handling, concurrency and external dependencies.
var highPatterns = []linePattern{
	{regexp.MustCompile(`^\s*(export\s+)?(default\s+)?(abstract\s+)?(class|interface|struct|enum|trait)\s+\w+`), "type declaration"},
	{regexp.MustCompile(`^\s*type\s+\w+\s+(struct|interface)\b`), "type declaration"},
	{regexp.MustCompile(`^\s*(async\s+)?function\s*\*?\s*\w+\s*\(`), "function declaration"},
	{regexp.MustCompile(`^\s*func\s+`), "function declaration"},
	{regexp.MustCompile(`^\s*(async\s+)?def\s+\w+\s*\(`), "function declaration"},
	{regexp.MustCompile(`^\s*(pub\s+)?(async\s+)?fn\s+\w+`), "function declaration"},
	{regexp.MustCompile(`^\s*(const|let|var)\s+\w+\s*=\s*(async\s+)?(\([^)]*\)|\w+)\s*=>`), "function declaration"},
	{regexp.MustCompile(`\b(try|catch|throw|throws|raise|except|finally|rescue)\b`), "error handling"},
	{regexp.MustCompile(`\bif\s+err\s*!=\s*nil\b|\bpanic\(|\berrors\.(New|Is|As)\b|\bfmt\.Errorf\(`), "error handling"},
	{regexp.MustCompile(`\b(async|await|Promise|Observable)\b|\.then\(`), "asynchronous code"},
	{regexp.MustCompile(`\bgo\s+(func\b|\w+\()|\bchan\s+\w+|\bsync\.(Mutex|WaitGroup|Once)\b`), "asynchronous code"},
	{regexp.MustCompile(`^\s*import\s+.*\bfrom\s+['"][^./'"]`), "external import"},
	{regexp.MustCompile(`^\s*import\s+['"][^./'"]`), "external import"},
	{regexp.MustCompile(`\brequire\(\s*['"][^./'"]`), "external import"},
	{regexp.MustCompile(`^\s*from\s+[A-Za-z_][\w.]*\s+import\b`), "external import"},
}

// Blank lines, comments and lone punctuation.
var trivialPattern = regexp.MustCompile(`^\s*$|^\s*(//|#|/\*|\*|\*/|<!--|--\s)|^\s*[{}()\[\];,]+\s*$`)

const (
	criticalLineScore = 0.9
	highLineScore     = 0.7
	normalLineScore   = 0.5
	trivialLineScore  = 0.2
)

// classifyLine scores one line of content and names the pattern that matched.
// Lines that match no pattern return an empty label.
func classifyLine(line string) (float64, string, Category) {
	for _, p := range criticalPatterns {
		if p.pattern.MatchString(line) {
			return criticalLineScore, p.label, CategoryCritical
		}
	}
	for _, p := range highPatterns {
		if p.pattern.MatchString(line) {
			return highLineScore, p.label, CategoryHigh
		}
	}
	if trivialPattern.MatchString(line) {
		return trivialLineScore, "", CategoryLow
	}
	return normalLineScore, "", CategoryMedium
}

// IsTestFile reports whether a path looks like a test or spec file.
func IsTestFile(path string) bool {
	p := strings.ToLower(path)
	return strings.Contains(p, "test") || strings.Contains(p, "spec")
}

// IsDocFile reports whether a path looks like documentation.
func IsDocFile(path string) bool {
	if _, known := fileNameImportance[filepath.Base(path)]; known {
		return false
	}
	p := strings.ToLower(path)
	switch filepath.Ext(p) {
	case ".md", ".mdx", ".rst", ".adoc", ".txt":
		return true
	}
	return strings.HasPrefix(p, "docs/") || strings.Contains(p, "/docs/")
}
