package boundary

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/sprite-ai/stagehand/internal/ranking"
)

// Function and method definitions across common languages. The first
// capture group is the name.
var funcDefPatterns = []*regexp.Regexp{
	// Go: func Name(
	regexp.MustCompile(`^\s*func\s+(\w+)\s*[\[(]`),
	// Go method: func (r *Type) Name(
	regexp.MustCompile(`^\s*func\s+\([^)]+\)\s+(\w+)\s*\(`),
	// Python and Ruby: def name
	regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)`),
	// JS/TS: function name(  or  const name = (
	regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`),
	regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?(?:\([^)]*\)|\w+)\s*=>`),
	// Rust: fn name(  or  pub fn name(
	regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+(\w+)\s*[(<]`),
	// Java/C#: visibility type name(
	regexp.MustCompile(`^\s*(?:public|private|protected|static|final|abstract|override)\s+[\w<>\[\],\s]*?(\w+)\s*\(`),
}

// Schema and migration paths.
var schemaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)migrat`),
	regexp.MustCompile(`(?i)schema`),
	regexp.MustCompile(`\.(sql|prisma)$`),
	regexp.MustCompile(`(?i)(^|/)(db|database|models?|entities|repositor(y|ies))/`),
}

var configKeywords = []string{"config", "settings", ".env", "package.json", "tsconfig", "go.mod", "dockerfile", "makefile"}

var configExtensions = map[string]bool{".yaml": true, ".yml": true, ".toml": true, ".ini": true}

func isConfigPath(path string) bool {
	p := strings.ToLower(path)
	for _, kw := range configKeywords {
		if strings.Contains(p, kw) {
			return true
		}
	}
	return configExtensions[filepath.Ext(p)]
}

type groupRule struct {
	group ImpactGroup
	match func(path string) bool
}

func containsAny(path string, fragments ...string) bool {
	p := strings.ToLower(path)
	for _, f := range fragments {
		if strings.Contains(p, f) {
			return true
		}
	}
	return false
}

// Evaluated in order; the first match wins and anything unmatched is mixed.
var groupRules = []groupRule{
	{GroupTests, ranking.IsTestFile},
	{GroupDocumentation, ranking.IsDocFile},
	{GroupConfiguration, isConfigPath},
	{GroupDatabase, func(p string) bool {
		for _, re := range schemaPatterns {
			if re.MatchString(p) {
				return true
			}
		}
		return false
	}},
	{GroupAPI, func(p string) bool {
		return containsAny(p, "api/", "/api", "route", "endpoint", "controller", "handler", "server")
	}},
	{GroupUI, func(p string) bool {
		if containsAny(p, "components/", "ui/", "views/", "pages/", "styles/", "layouts/") {
			return true
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".css", ".scss", ".less", ".tsx", ".jsx", ".vue", ".svelte", ".html":
			return true
		}
		return false
	}},
	{GroupBusinessLogic, func(p string) bool {
		if containsAny(p, "src/", "lib/", "internal/", "pkg/", "services/", "core/", "app/") {
			return true
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".go", ".ts", ".js", ".py", ".rb", ".rs", ".java", ".kt", ".cs", ".php", ".swift":
			return true
		}
		return false
	}},
}

// groupOf classifies a path into exactly one impact group.
func groupOf(path string) ImpactGroup {
	for _, r := range groupRules {
		if r.match(path) {
			return r.group
		}
	}
	return GroupMixed
}

type themeKeywords struct {
	theme    string
	keywords []string
}

// Vote order doubles as the tie-break order for themes first seen together.
var themes = []themeKeywords{
	{"authentication", []string{"auth", "login", "logout", "user", "session", "password", "oauth"}},
	{"user interface", []string{"ui", "component", "style", "view", "page", "css", "layout"}},
	{"api development", []string{"api", "route", "endpoint", "controller", "handler"}},
	{"testing", []string{"test", "spec"}},
	{"configuration", []string{"config", "env", "settings"}},
	{"documentation", []string{"doc", "readme", "changelog", "guide"}},
}

const (
	defaultTheme = "code improvements"
	mixedTheme   = "miscellaneous"
)

// pathWords splits a path into lowercase words at separators and camelCase
// humps: "src/UserService.ts" -> [src user service ts].
func pathWords(path string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(path)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

// matchesKeyword reports whether any word starts with the keyword, so
// "components" matches "component" but "guide" does not match "ui".
func matchesKeyword(words []string, kw string) bool {
	for _, w := range words {
		if strings.HasPrefix(w, kw) {
			return true
		}
	}
	return false
}

// baseName is the file name without directory or extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
