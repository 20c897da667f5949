package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/complexity"
	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/plan"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Shared request shape ---

// planRequest carries a diff plus optional per-request overrides of the
// server's planning options.
type planRequest struct {
	Diff              string `json:"diff"`
	Model             string `json:"model,omitempty"`
	PromptType        string `json:"prompt_type,omitempty"`
	PrioritizeQuality *bool  `json:"prioritize_quality,omitempty"`
	Strict            bool   `json:"strict,omitempty"`
}

// plannerFor applies request overrides on top of base.
func plannerFor(base *plan.Planner, req planRequest) (*plan.Planner, error) {
	opts := base.Options()
	if req.Model != "" {
		opts.Model = req.Model
	}
	if req.PromptType != "" {
		pt, err := budget.ParsePromptType(req.PromptType)
		if err != nil {
			return nil, err
		}
		opts.PromptType = pt
	}
	if req.PrioritizeQuality != nil {
		opts.PrioritizeQuality = *req.PrioritizeQuality
	}
	if req.Strict {
		opts.Boundaries = boundary.StrictOptions()
	}
	return base.With(opts), nil
}

// decode reads a planRequest, applies its overrides and parses its diff. It writes the error
// response itself and returns ok=false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, diffRequired bool) (*plan.Planner, []model.Change, bool) {
	var req planRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return nil, nil, false
	}

	p, err := plannerFor(s.planner, req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	if strings.TrimSpace(req.Diff) == "" {
		if diffRequired {
			s.writeError(w, http.StatusBadRequest, "diff is required")
			return nil, nil, false
		}
		return p, nil, true
	}

	changes, err := s.parse(req.Diff)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	return p, changes, true
}

// --- Parse ---

type diffStatsJSON struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

type fileJSON struct {
	Name         string `json:"name"`
	OldName      string `json:"old_name,omitempty"`
	Kind         string `json:"kind"`
	AddedLines   int    `json:"added_lines"`
	DeletedLines int    `json:"deleted_lines"`
	Hunks        int    `json:"hunks"`
}

type parseResponse struct {
	Files []fileJSON    `json:"files"`
	Stats diffStatsJSON `json:"stats"`
}

func newParseResponse(changes []model.Change) parseResponse {
	var resp parseResponse
	resp.Stats.Files, resp.Stats.Added, resp.Stats.Deleted = model.Stats(changes)
	resp.Files = make([]fileJSON, 0, len(changes))
	for _, c := range changes {
		resp.Files = append(resp.Files, fileJSON{
			Name:         c.Path,
			OldName:      c.OldPath,
			Kind:         c.Kind.String(),
			AddedLines:   c.Insertions,
			DeletedLines: c.Deletions,
			Hunks:        len(c.Hunks),
		})
	}
	return resp
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	_, changes, ok := s.decode(w, r, true)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, newParseResponse(changes))
}

// --- Rank ---

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	p, changes, ok := s.decode(w, r, true)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, p.Rank(changes))
}

// --- Budget ---

type budgetResponse struct {
	Budget         budget.TokenBudget               `json:"budget"`
	Allocation     *budget.Allocation               `json:"allocation,omitempty"`
	Recommendation *budget.CommitSizeRecommendation `json:"recommendation,omitempty"`
	Prompt         string                           `json:"prompt,omitempty"`
}

// handleBudget returns the token budget for a model. With a diff it also
// allocates the ranked changes and renders the prompt text.
func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	p, changes, ok := s.decode(w, r, false)
	if !ok {
		return
	}
	if changes == nil {
		s.writeJSON(w, http.StatusOK, budgetResponse{Budget: p.Budget()})
		return
	}

	ranked := p.Rank(changes)
	b, alloc, err := p.Allocate(ranked)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, budget.ErrInvalidBudget) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err.Error())
		return
	}
	rec := budget.AnalyzeCommitSizeRecommendation(ranked, b)
	s.writeJSON(w, http.StatusOK, budgetResponse{
		Budget:         b,
		Allocation:     alloc,
		Recommendation: &rec,
		Prompt:         budget.Render(alloc.SelectedChanges),
	})
}

// --- Complexity ---

func (s *Server) handleComplexity(w http.ResponseWriter, r *http.Request) {
	p, changes, ok := s.decode(w, r, true)
	if !ok {
		return
	}
	b := p.Budget()
	s.writeJSON(w, http.StatusOK, complexity.Analyze(changes, p.Rank(changes), &b))
}

// --- Boundaries ---

type boundariesResponse struct {
	Boundaries []boundary.Boundary       `json:"boundaries"`
	Staging    *boundary.StagingStrategy `json:"staging"`
	Options    boundary.Options          `json:"options"`
}

func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	p, changes, ok := s.decode(w, r, true)
	if !ok {
		return
	}
	opts := p.Options().Boundaries
	bs := p.Boundaries(changes, opts)
	s.writeJSON(w, http.StatusOK, boundariesResponse{
		Boundaries: bs,
		Staging:    boundary.SuggestStagingStrategy(bs),
		Options:    boundary.NewAnalyzer(opts).Options(),
	})
}

// --- Plan ---

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	p, changes, ok := s.decode(w, r, true)
	if !ok {
		return
	}
	report, err := p.Run(r.Context(), changes)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, budget.ErrInvalidBudget) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}
