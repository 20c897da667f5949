// Package api implements the HTTP and WebSocket server for stagehand.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sprite-ai/stagehand/internal/diff"
	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/plan"
)

// Clients tend to resend the same diff with different options, so parsed
// change sets are kept by content hash.
const parseCacheSize = 64

// Server is the stagehand HTTP API server.
type Server struct {
	addr    string
	mux     *http.ServeMux
	server  *http.Server
	planner *plan.Planner
	log     *slog.Logger
	parsed  *lru.Cache[string, []model.Change]
}

// New creates a new API server that plans with p.
func New(addr string, p *plan.Planner, log *slog.Logger) *Server {
	parsed, err := lru.New[string, []model.Change](parseCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size
	}
	s := &Server{addr: addr, planner: p, log: log, parsed: parsed}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("POST /api/rank", s.handleRank)
	s.mux.HandleFunc("POST /api/budget", s.handleBudget)
	s.mux.HandleFunc("POST /api/complexity", s.handleComplexity)
	s.mux.HandleFunc("POST /api/boundaries", s.handleBoundaries)
	s.mux.HandleFunc("POST /api/plan", s.handlePlan)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("stagehand API server listening", "addr", s.addr)
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down API server")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Error("json encode", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "status", status, "error", msg)
	} else {
		s.log.Debug("bad request", "status", status, "error", msg)
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// parse parses a unified diff, reusing the result for a diff seen recently.
// Cached change sets are shared and must not be modified.
func (s *Server) parse(raw string) ([]model.Change, error) {
	sum := sha256.Sum256([]byte(raw))
	key := hex.EncodeToString(sum[:])
	if changes, ok := s.parsed.Get(key); ok {
		s.log.Debug("parsed diff cache hit", "key", key[:12])
		return changes, nil
	}

	changes, err := diff.ParseChanges(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}
	s.parsed.Add(key, changes)
	return changes, nil
}
