package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sprite-ai/stagehand/internal/boundary"
	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/model"
	"github.com/sprite-ai/stagehand/internal/plan"
	"github.com/sprite-ai/stagehand/internal/ranking"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool; the server binds to loopback by default
	},
}

// WebSocket message types from client.
const (
	wsMsgLoadDiff = "load_diff"
	wsMsgAllocate = "allocate"
	wsMsgSplit    = "split"
	wsMsgFinish   = "finish"
)

// WebSocket message types to client.
const (
	wsMsgSession    = "session"
	wsMsgParsed     = "parsed"
	wsMsgRanked     = "ranked"
	wsMsgAllocation = "allocation"
	wsMsgBoundaries = "boundaries"
	wsMsgReport     = "report"
	wsMsgError      = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsSessionResponse is sent once, right after the upgrade.
type wsSessionResponse struct {
	ID string `json:"id"`
}

// planSession holds the state of one interactive planning session. A
// session is owned by its connection's read loop and is never shared.
type planSession struct {
	id      string
	conn    *websocket.Conn
	log     *slog.Logger
	planner *plan.Planner
	parse   func(string) ([]model.Change, error)
	changes []model.Change
	ranked  *ranking.Result
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	session := &planSession{
		id:      id,
		conn:    conn,
		log:     s.log.With("session", id),
		planner: s.planner,
		parse:   s.parse,
	}
	session.log.Debug("websocket session opened", "remote", r.RemoteAddr)
	session.send(wsMsgSession, wsSessionResponse{ID: id})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				session.log.Warn("websocket read", "error", err)
			}
			session.log.Debug("websocket session closed")
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			session.sendError("invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgLoadDiff:
			handleWSLoadDiff(session, msg.Data)
		case wsMsgAllocate:
			handleWSAllocate(session, msg.Data)
		case wsMsgSplit:
			handleWSSplit(session, msg.Data)
		case wsMsgFinish:
			handleWSFinish(r.Context(), session)
		default:
			session.sendError("unknown message type: " + msg.Type)
		}
	}
}

// overrides applies the request's options to the session planner.
func overrides(session *planSession, data json.RawMessage) bool {
	var req planRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			session.sendError("invalid data: " + err.Error())
			return false
		}
	}
	p, err := plannerFor(session.planner, req)
	if err != nil {
		session.sendError(err.Error())
		return false
	}
	session.planner = p
	return true
}

func handleWSLoadDiff(session *planSession, data json.RawMessage) {
	var req planRequest
	if err := json.Unmarshal(data, &req); err != nil {
		session.sendError("invalid load_diff data")
		return
	}
	if strings.TrimSpace(req.Diff) == "" {
		session.sendError("diff is required")
		return
	}
	if !overrides(session, data) {
		return
	}

	changes, err := session.parse(req.Diff)
	if err != nil {
		session.sendError(err.Error())
		return
	}

	session.changes = changes
	session.ranked = session.planner.Rank(changes)
	session.log.Debug("diff loaded", "changes", len(changes))

	session.send(wsMsgParsed, newParseResponse(changes))
	session.send(wsMsgRanked, session.ranked)
}

func handleWSAllocate(session *planSession, data json.RawMessage) {
	if session.ranked == nil {
		session.sendError("no diff loaded")
		return
	}
	if !overrides(session, data) {
		return
	}

	b, alloc, err := session.planner.Allocate(session.ranked)
	if err != nil {
		session.sendError(err.Error())
		return
	}
	rec := budget.AnalyzeCommitSizeRecommendation(session.ranked, b)
	session.send(wsMsgAllocation, budgetResponse{
		Budget:         b,
		Allocation:     alloc,
		Recommendation: &rec,
		Prompt:         budget.Render(alloc.SelectedChanges),
	})
}

func handleWSSplit(session *planSession, data json.RawMessage) {
	if session.ranked == nil {
		session.sendError("no diff loaded")
		return
	}
	var req struct {
		Strict bool `json:"strict"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			session.sendError("invalid split data")
			return
		}
	}

	opts := session.planner.Options().Boundaries
	if req.Strict {
		opts = boundary.StrictOptions()
	}
	bs := session.planner.Boundaries(session.changes, opts)
	session.send(wsMsgBoundaries, boundariesResponse{
		Boundaries: bs,
		Staging:    boundary.SuggestStagingStrategy(bs),
		Options:    boundary.NewAnalyzer(opts).Options(),
	})
}

func handleWSFinish(ctx context.Context, session *planSession) {
	if session.ranked == nil {
		session.sendError("no diff loaded")
		return
	}
	report, err := session.planner.Run(ctx, session.changes)
	if err != nil {
		session.sendError(err.Error())
		return
	}
	session.send(wsMsgReport, report)
}

func (ps *planSession) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		ps.log.Error("ws marshal", "type", msgType, "error", err)
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := ps.conn.WriteJSON(msg); err != nil {
		ps.log.Warn("ws write", "type", msgType, "error", err)
	}
}

func (ps *planSession) sendError(errMsg string) {
	ps.send(wsMsgError, map[string]string{"message": errMsg})
}
