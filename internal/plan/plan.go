// Package plan runs the full analysis pipeline over a change set: ranking,
// budgeting, complexity and commit boundaries.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/complexity"
	"github.com/sprite-ai/stagehand/internal/config"
	"github.com/sprite-ai/stagehand/internal/logging"
	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/ranking"
)

// Options control a planning run.
type Options struct {
	Model             string
	PromptType        budget.PromptType
	PrioritizeQuality bool
	Boundaries        boundary.Options
	// Re-run boundary detection with boundary.StrictOptions when the
	// complexity analysis suggests splitting.
	StrictOnComplex bool
}

// DefaultOptions mirror config.Default.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig extracts planning options from a loaded config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Model:             cfg.Model,
		PromptType:        cfg.Prompt(),
		PrioritizeQuality: cfg.PrioritizeQuality,
		Boundaries:        cfg.Boundaries.Options,
		StrictOnComplex:   cfg.Boundaries.StrictOnComplex,
	}
}

// Stats summarize the input change set.
type Stats struct {
	Files   int `json:"files" yaml:"files"`
	Added   int `json:"added" yaml:"added"`
	Deleted int `json:"deleted" yaml:"deleted"`
}

// Report is everything one planning run produces.
type Report struct {
	Stats          Stats                           `json:"stats" yaml:"stats"`
	Ranking        *ranking.Result                 `json:"ranking" yaml:"ranking"`
	Budget         budget.TokenBudget              `json:"budget" yaml:"budget"`
	Allocation     *budget.Allocation              `json:"allocation" yaml:"allocation"`
	Recommendation budget.CommitSizeRecommendation `json:"recommendation" yaml:"recommendation"`
	Complexity     *complexity.Analysis            `json:"complexity" yaml:"complexity"`
	Boundaries     []boundary.Boundary             `json:"boundaries" yaml:"boundaries"`
	Staging        *boundary.StagingStrategy       `json:"staging" yaml:"staging"`
	// Strict is set when boundaries were recomputed with strict options.
	Strict bool `json:"strict" yaml:"strict"`
}

// Planner runs the pipeline. It is safe for concurrent use.
type Planner struct {
	opts    Options
	budgets *budget.Manager
	log     *slog.Logger
}

// New returns a planner. A nil manager uses the built-in model table and a
// nil logger discards output.
func New(opts Options, budgets *budget.Manager, log *slog.Logger) *Planner {
	if budgets == nil {
		budgets = budget.NewManager(nil)
	}
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	if opts.PromptType == "" {
		opts.PromptType = budget.PromptCommit
	}
	return &Planner{opts: opts, budgets: budgets, log: log}
}

// Options returns the planner's options.
func (p *Planner) Options() Options {
	return p.opts
}

// With returns a planner sharing the model table and logger but using opts.
func (p *Planner) With(opts Options) *Planner {
	return New(opts, p.budgets, p.log)
}

// Budgets returns the model table the planner resolves limits from.
func (p *Planner) Budgets() *budget.Manager {
	return p.budgets
}

// Budget computes the token budget for the configured model.
func (p *Planner) Budget() budget.TokenBudget {
	return p.budgets.CalculateBudget(p.opts.Model, p.opts.PromptType)
}

// Rank scores the changes.
func (p *Planner) Rank(changes []model.Change) *ranking.Result {
	defer p.stage("rank", time.Now(), "changes", len(changes))
	return ranking.Rank(changes)
}

// Allocate fits ranked changes into the configured budget.
func (p *Planner) Allocate(ranked *ranking.Result) (budget.TokenBudget, *budget.Allocation, error) {
	b := p.Budget()
	start := time.Now()
	alloc, err := budget.AllocateTokens(ranked, b, p.opts.PrioritizeQuality)
	if err != nil {
		return b, nil, fmt.Errorf("allocating tokens: %w", err)
	}
	p.stage("allocate", start,
		"model", b.Model,
		"available", b.Available,
		"level", alloc.Level.Level.String(),
		"selected", len(alloc.SelectedChanges),
		"dropped", alloc.Dropped)
	return b, alloc, nil
}

// Boundaries detects commit boundaries with the given options.
func (p *Planner) Boundaries(changes []model.Change, opts boundary.Options) []boundary.Boundary {
	start := time.Now()
	bs := boundary.NewAnalyzer(opts).Analyze(changes)
	p.stage("boundaries", start, "boundaries", len(bs), "split_threshold", opts.SplitThreshold)
	return bs
}

// Run executes the whole pipeline. The context is checked between stages.
func (p *Planner) Run(ctx context.Context, changes []model.Change) (*Report, error) {
	r := &Report{}
	r.Stats.Files, r.Stats.Added, r.Stats.Deleted = model.Stats(changes)

	r.Ranking = p.Rank(changes)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var err error
	r.Budget, r.Allocation, err = p.Allocate(r.Ranking)
	if err != nil {
		return nil, err
	}
	r.Recommendation = budget.AnalyzeCommitSizeRecommendation(r.Ranking, r.Budget)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.Boundaries = p.Boundaries(changes, p.opts.Boundaries)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	r.Complexity = complexity.Analyze(changes, r.Ranking, &r.Budget)
	p.stage("complexity", start,
		"score", r.Complexity.Score,
		"category", r.Complexity.Category.String(),
		"warnings", len(r.Complexity.Warnings))

	if p.opts.StrictOnComplex && r.Complexity.ShouldSplit() {
		strict := boundary.StrictOptions()
		p.log.Warn("complex change set, recomputing boundaries with strict options",
			"category", r.Complexity.Category.String(),
			"boundaries", len(r.Boundaries))
		r.Boundaries = p.Boundaries(changes, strict)
		r.Strict = true
	}

	start = time.Now()
	r.Staging = boundary.SuggestStagingStrategy(r.Boundaries)
	p.stage("staging", start, "commits", len(r.Staging.Commits), "mode", r.Staging.Mode.String())
	return r, nil
}

func (p *Planner) stage(name string, start time.Time, attrs ...any) {
	attrs = append([]any{"stage", name, "elapsed", time.Since(start)}, attrs...)
	p.log.Debug("pipeline stage done", attrs...)
}
