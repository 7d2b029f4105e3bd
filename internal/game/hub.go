package game

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
)

// session is one player's live websocket connection.
type session struct {
	conn     *websocket.Conn
	playerID string
	roomCode string
	limiter  *rate.Limiter

	writeMu sync.Mutex
}

// writeJSON serializes writes: gorilla connections allow one concurrent writer.
func (s *session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *session) sendError(msg string) {
	err := s.writeJSON(internal.Message[internal.ErrorData]{
		Type: internal.MsgError,
		Data: internal.ErrorData{Message: msg},
	})
	if err != nil {
		logrus.Debugf("[sendError] room=%s player=%s: %v", s.roomCode, s.playerID, err)
	}
}

// Hub fans room change events out to the room's connected sessions. It is a
// passive reader: it subscribes to the store's per-room feed and pushes each
// committed record to every session, tailored per viewer (the drawer sees
// the full word, guessers the masked one). The engine never talks to
// sessions directly; everything clients see flows through the store.
type Hub struct {
	store store.RoomStore

	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
	watchers map[string]func()
}

func NewHub(st store.RoomStore) *Hub {
	return &Hub{
		store:    st,
		sessions: make(map[string]map[*session]struct{}),
		watchers: make(map[string]func()),
	}
}

// Register attaches a session to its room, starting the room's store watcher
// with the first session.
func (h *Hub) Register(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[s.roomCode] == nil {
		h.sessions[s.roomCode] = make(map[*session]struct{})
	}
	h.sessions[s.roomCode][s] = struct{}{}

	if _, watching := h.watchers[s.roomCode]; !watching {
		h.startWatcherLocked(s.roomCode)
	}
}

// Unregister detaches a session, tearing the watcher down with the last one.
func (h *Hub) Unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions[s.roomCode], s)
	if len(h.sessions[s.roomCode]) == 0 {
		delete(h.sessions, s.roomCode)
		if cancel, ok := h.watchers[s.roomCode]; ok {
			cancel()
			delete(h.watchers, s.roomCode)
		}
	}
}

func (h *Hub) startWatcherLocked(code string) {
	ch, cancel, err := h.store.Subscribe(context.Background(), code)
	if err != nil {
		logrus.Errorf("[startWatcher] room=%s: subscribe failed: %v", code, err)
		return
	}
	h.watchers[code] = cancel

	go func() {
		logrus.Debugf("[startWatcher] room=%s: watcher started", code)
		for room := range ch {
			h.Broadcast(room)
		}
		logrus.Debugf("[startWatcher] room=%s: watcher stopped", code)
	}()
}

// Broadcast pushes one committed room record to every connected session,
// sanitized per viewer.
func (h *Hub) Broadcast(room *internal.Room) {
	h.mu.RLock()
	sessions := make([]*session, 0, len(h.sessions[room.Code]))
	for s := range h.sessions[room.Code] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		msg := internal.Message[*internal.Room]{
			Type: internal.MsgRoomUpdate,
			Data: room.View(s.playerID),
		}
		if err := s.writeJSON(msg); err != nil {
			logrus.Debugf("[Broadcast] room=%s: write to player %s failed: %v",
				room.Code, s.playerID, err)
		}
	}
}
