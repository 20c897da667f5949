// Package budget fits ranked changes into a model's context window.
package budget

import (
	"fmt"
	"sort"
	"strings"
)

// PromptType selects the system prompt a request is built around.
type PromptType string

const (
	PromptCommit  PromptType = "commit"
	PromptExplain PromptType = "explain"
	PromptPR      PromptType = "pr"
	PromptReview  PromptType = "review"
)

// PromptTypes lists the supported prompt types.
var PromptTypes = []PromptType{PromptCommit, PromptExplain, PromptPR, PromptReview}

// ParsePromptType validates a prompt type name.
func ParsePromptType(s string) (PromptType, error) {
	pt := PromptType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PromptTypes {
		if pt == known {
			return pt, nil
		}
	}
	return "", fmt.Errorf("unknown prompt type %q (want commit, explain, pr or review)", s)
}

// System prompt overhead per prompt type, in tokens.
var systemPromptTokens = map[PromptType]int{
	PromptCommit:  500,
	PromptExplain: 600,
	PromptPR:      700,
	PromptReview:  650,
}

const (
	// DefaultModelLimit applies to any model missing from the table.
	DefaultModelLimit = 4000

	userPromptOverhead = 200
	minReserved        = 1000
)

// Context window sizes by model name.
var modelLimits = map[string]int{
	"gpt-3.5-turbo":     4096,
	"gpt-3.5-turbo-16k": 16384,
	"gpt-4":             8192,
	"gpt-4-32k":         32768,
	"gpt-4-turbo":       128000,
	"gpt-4o":            128000,
	"gpt-4o-mini":       128000,
	"gpt-4.1":           1047576,
	"o1":                200000,
	"o3-mini":           200000,
	"claude-3-haiku":    200000,
	"claude-3-sonnet":   200000,
	"claude-3-opus":     200000,
	"claude-3-5-sonnet": 200000,
	"claude-3-5-haiku":  200000,
	"gemini-pro":        32768,
	"gemini-1.5-flash":  1048576,
	"gemini-1.5-pro":    2097152,
	"llama2":            4096,
	"llama3":            8192,
	"codellama":         16384,
	"mistral":           8192,
	"mixtral":           32768,
}

// TokenBudget describes how many tokens are left for change content once
// prompt overhead and the response reservation are subtracted.
type TokenBudget struct {
	Model        string `json:"model" yaml:"model"`
	Total        int    `json:"total" yaml:"total"`
	SystemPrompt int    `json:"system_prompt" yaml:"system_prompt"`
	UserPrompt   int    `json:"user_prompt" yaml:"user_prompt"`
	Reserved     int    `json:"reserved" yaml:"reserved"`
	Available    int    `json:"available" yaml:"available"`
}

// NewTokenBudget derives a budget from a raw context limit. Available may be
// negative for very small limits.
func NewTokenBudget(total int, pt PromptType) TokenBudget {
	sys, ok := systemPromptTokens[pt]
	if !ok {
		sys = systemPromptTokens[PromptCommit]
	}
	reserved := total / 10
	if reserved < minReserved {
		reserved = minReserved
	}
	return TokenBudget{
		Total:        total,
		SystemPrompt: sys,
		UserPrompt:   userPromptOverhead,
		Reserved:     reserved,
		Available:    total - sys - userPromptOverhead - reserved,
	}
}

// Manager resolves model limits. The zero value is not usable; use NewManager.
type Manager struct {
	limits map[string]int
}

// NewManager returns a manager over the built-in model table plus any extra
// limits. Extra entries win over built-in ones; the built-in table is copied,
// never modified.
func NewManager(extra map[string]int) *Manager {
	limits := make(map[string]int, len(modelLimits)+len(extra))
	for name, limit := range modelLimits {
		limits[name] = limit
	}
	for name, limit := range extra {
		if limit > 0 {
			limits[strings.ToLower(name)] = limit
		}
	}
	return &Manager{limits: limits}
}

var defaultManager = NewManager(nil)

// ModelLimit returns the context window for a model. Names match exactly
// (case-insensitive) or by the longest known prefix, so "gpt-4o-2024-08-06"
// resolves to "gpt-4o". Unknown models get DefaultModelLimit.
func (m *Manager) ModelLimit(name string) int {
	key := strings.ToLower(strings.TrimSpace(name))
	if limit, ok := m.limits[key]; ok {
		return limit
	}

	best := ""
	for known := range m.limits {
		if strings.HasPrefix(key, known) && len(known) > len(best) {
			best = known
		}
	}
	if best != "" {
		return m.limits[best]
	}
	return DefaultModelLimit
}

// Models returns the known model names in sorted order.
func (m *Manager) Models() []string {
	names := make([]string, 0, len(m.limits))
	for name := range m.limits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CalculateBudget computes the token budget for a model and prompt type.
func (m *Manager) CalculateBudget(modelName string, pt PromptType) TokenBudget {
	b := NewTokenBudget(m.ModelLimit(modelName), pt)
	b.Model = modelName
	return b
}

// CalculateBudget computes a budget against the built-in model table.
func CalculateBudget(modelName string, pt PromptType) TokenBudget {
	return defaultManager.CalculateBudget(modelName, pt)
}
