package game

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/scrawlparty/scrawlparty-backend/internal"
)

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Inbound messages are throttled per session: drawing streams are chatty but
// bounded, anything past this is a misbehaving client.
const (
	sessionRateLimit = rate.Limit(60)
	sessionRateBurst = 120
)

// WSHandler upgrades connections and pumps inbound messages into the engine.
type WSHandler struct {
	engine *Engine
	hub    *Hub
}

func NewWSHandler(engine *Engine, hub *Hub) *WSHandler {
	return &WSHandler{engine: engine, hub: hub}
}

// ServeWS handles GET /ws/{roomId}?name=...&player_id=...
// An existing player_id resumes that player's entry; otherwise a new player
// joins the room.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomCode := mux.Vars(r)["roomId"]
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Anonymous"
	}
	playerID := r.URL.Query().Get("player_id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("[ServeWS] upgrade failed: %v", err)
		return
	}

	room, playerID, err := h.engine.JoinRoom(r.Context(), roomCode, playerID, name)
	if err != nil {
		logrus.Infof("[ServeWS] room=%s: join rejected for %s: %v", roomCode, name, err)
		_ = conn.WriteJSON(internal.Message[internal.ErrorData]{
			Type: internal.MsgError,
			Data: internal.ErrorData{Message: err.Error()},
		})
		_ = conn.Close()
		return
	}

	s := &session{
		conn:     conn,
		playerID: playerID,
		roomCode: roomCode,
		limiter:  rate.NewLimiter(sessionRateLimit, sessionRateBurst),
	}
	h.hub.Register(s)

	// Initial snapshot so the client can render before the next change event.
	if err := s.writeJSON(internal.Message[internal.JoinedData]{
		Type: "joined",
		Data: internal.JoinedData{PlayerID: playerID, Room: room.View(playerID)},
	}); err != nil {
		logrus.Warnf("[ServeWS] room=%s: initial snapshot to %s failed: %v", roomCode, playerID, err)
	}

	go h.readLoop(s)
}

// readLoop processes inbound messages until the connection drops, then flips
// the player offline. Presence is connection-scoped: the websocket closing is
// the disconnect signal.
func (h *WSHandler) readLoop(s *session) {
	defer func() {
		_ = s.conn.Close()
		h.hub.Unregister(s)
		h.engine.HandleDisconnect(context.Background(), s.roomCode, s.playerID)
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			logrus.Debugf("[readLoop] room=%s player=%s: read ended: %v", s.roomCode, s.playerID, err)
			return
		}
		if !s.limiter.Allow() {
			logrus.Warnf("[readLoop] room=%s player=%s: rate limit exceeded, dropping message",
				s.roomCode, s.playerID)
			continue
		}

		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &msg); err != nil {
			logrus.Debugf("[readLoop] room=%s player=%s: malformed message: %v", s.roomCode, s.playerID, err)
			continue
		}
		h.dispatch(s, msg)
	}
}

func (h *WSHandler) dispatch(s *session, msg internal.Message[json.RawMessage]) {
	ctx := context.Background()

	switch msg.Type {
	case internal.MsgStartGame:
		if err := h.engine.StartGame(ctx, s.roomCode, s.playerID); err != nil {
			s.sendError(err.Error())
		}

	case internal.MsgChooseWord, internal.MsgCustomWord:
		var word string
		if err := json.Unmarshal(msg.Data, &word); err != nil {
			return
		}
		custom := msg.Type == internal.MsgCustomWord
		if err := h.engine.ChooseWord(ctx, s.roomCode, s.playerID, word, custom); err != nil {
			s.sendError(err.Error())
		}

	case internal.MsgGuess:
		var text string
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			return
		}
		if err := h.engine.SubmitGuess(ctx, s.roomCode, s.playerID, text); err != nil {
			s.sendError(err.Error())
		}

	case internal.MsgDraw:
		var pt internal.DrawingPoint
		if err := json.Unmarshal(msg.Data, &pt); err != nil {
			return
		}
		if err := h.engine.AppendDrawingPoint(ctx, s.roomCode, s.playerID, pt); err != nil {
			s.sendError(err.Error())
		}

	case internal.MsgClearCanvas:
		if err := h.engine.ClearCanvas(ctx, s.roomCode, s.playerID); err != nil {
			s.sendError(err.Error())
		}

	case internal.MsgRestartGame:
		if err := h.engine.RestartGame(ctx, s.roomCode, s.playerID); err != nil {
			s.sendError(err.Error())
		}

	default:
		logrus.Debugf("[dispatch] room=%s player=%s: unknown message type %q",
			s.roomCode, s.playerID, msg.Type)
	}
}
