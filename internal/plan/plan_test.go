package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/complexity"
	"github.com/sprite-ai/stagehand/internal/logging"
	"github.com/sprite-ai/stagehand/internal/model"
)

func change(path string, kind model.ChangeKind, content string, n int) model.Change {
	c := model.Change{Path: path, Kind: kind}
	h := model.Hunk{Header: fmt.Sprintf("@@ -1,%d +1,%d @@", n, n), StartLine: 1, EndLine: n}
	lk := model.LineAdded
	if kind == model.KindDeleted {
		lk = model.LineRemoved
	}
	for i := 0; i < n; i++ {
		h.Lines = append(h.Lines, model.Line{Kind: lk, Content: content, Number: i + 1})
	}
	if lk == model.LineAdded {
		c.Insertions = n
	} else {
		c.Deletions = n
	}
	c.Hunks = []model.Hunk{h}
	return c
}

func authChanges() []model.Change {
	return []model.Change{
		change("src/auth.ts", model.KindModified, "export function login(user) {", 45),
		change("src/auth.test.ts", model.KindAdded, `expect(login("a")).toBe(true)`, 60),
	}
}

func largeChanges() []model.Change {
	changes := []model.Change{
		change("src/types/public.ts", model.KindDeleted, "export interface User { id: string }", 48),
	}
	for i := 0; i < 14; i++ {
		changes = append(changes, change(fmt.Sprintf("src/api/handler%d.ts", i), model.KindModified,
			"export const limit = 20", 48))
	}
	for i := 0; i < 10; i++ {
		changes = append(changes, change(fmt.Sprintf("src/components/Widget%d.tsx", i), model.KindModified,
			`import React from "react"`, 48))
	}
	return changes
}

func files(bs []boundary.Boundary) map[string]int {
	seen := make(map[string]int)
	for _, b := range bs {
		for _, p := range b.Files() {
			seen[p]++
		}
	}
	return seen
}

func TestRunSimple(t *testing.T) {
	p := New(DefaultOptions(), nil, nil)
	r, err := p.Run(context.Background(), authChanges())
	require.NoError(t, err)

	assert.Equal(t, Stats{Files: 2, Added: 105}, r.Stats)
	assert.Equal(t, 6492, r.Budget.Available)
	assert.Equal(t, budget.LevelFull, r.Allocation.Level.Level)
	assert.Len(t, r.Allocation.SelectedChanges, 2)
	assert.False(t, r.Recommendation.ShouldSplit)
	assert.Equal(t, complexity.CategorySimple, r.Complexity.Category)
	assert.False(t, r.Strict)

	require.Len(t, r.Boundaries, 1)
	assert.Equal(t, "authentication", r.Boundaries[0].Theme)
	require.Len(t, r.Staging.Commits, 1)
	assert.Equal(t, boundary.ModeParallel, r.Staging.Mode)
}

func TestRunComplexUsesStrictBoundaries(t *testing.T) {
	changes := largeChanges()
	p := New(DefaultOptions(), nil, nil)

	r, err := p.Run(context.Background(), changes)
	require.NoError(t, err)
	require.True(t, r.Complexity.ShouldSplit())
	assert.True(t, r.Strict)

	loose := p.Boundaries(changes, boundary.DefaultOptions())
	assert.Greater(t, len(r.Boundaries), len(loose))
	for _, b := range r.Boundaries {
		assert.LessOrEqual(t, len(b.Changes), boundary.StrictOptions().SplitThreshold, b.ID)
	}

	seen := files(r.Boundaries)
	assert.Len(t, seen, len(changes))
	for path, n := range seen {
		assert.Equal(t, 1, n, path)
	}
	assert.Len(t, r.Staging.Commits, len(r.Boundaries))
}

func TestRunWithoutStrictOnComplex(t *testing.T) {
	opts := DefaultOptions()
	opts.StrictOnComplex = false
	changes := largeChanges()
	p := New(opts, nil, nil)

	r, err := p.Run(context.Background(), changes)
	require.NoError(t, err)
	assert.False(t, r.Strict)
	assert.Equal(t, p.Boundaries(changes, boundary.DefaultOptions()), r.Boundaries)
}

func TestRunLogsStages(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, slog.LevelDebug, logging.FormatJSON)
	p := New(DefaultOptions(), nil, log)

	_, err := p.Run(context.Background(), largeChanges())
	require.NoError(t, err)

	out := buf.String()
	for _, stage := range []string{"rank", "allocate", "boundaries", "complexity", "staging"} {
		assert.Contains(t, out, `"stage":"`+stage+`"`)
	}
	assert.Contains(t, out, "recomputing boundaries with strict options")
}

func TestRunInvalidBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.Model = "tiny"
	p := New(opts, budget.NewManager(map[string]int{"tiny": 10}), nil)

	_, err := p.Run(context.Background(), authChanges())
	require.Error(t, err)
	assert.True(t, errors.Is(err, budget.ErrInvalidBudget))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultOptions(), nil, nil).Run(ctx, authChanges())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmpty(t *testing.T) {
	r, err := New(DefaultOptions(), nil, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, r.Boundaries)
	assert.Empty(t, r.Staging.Commits)
	assert.Empty(t, r.Allocation.SelectedChanges)
	assert.Equal(t, 0, r.Complexity.Score)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "gpt-4", opts.Model)
	assert.Equal(t, budget.PromptCommit, opts.PromptType)
	assert.True(t, opts.PrioritizeQuality)
	assert.True(t, opts.StrictOnComplex)
	assert.Equal(t, boundary.DefaultOptions(), opts.Boundaries)
}
