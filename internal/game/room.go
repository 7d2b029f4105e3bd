package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
	"github.com/scrawlparty/scrawlparty-backend/internal/utils"
)

// =============================================================================
// ROOM MANAGEMENT
// =============================================================================

// CreateRoom makes a fresh waiting room with a generated join code and the
// creator as host. Returns the room and the creator's player id.
func (e *Engine) CreateRoom(ctx context.Context, hostName string) (*internal.Room, string, error) {
	playerID := uuid.NewString()
	player := internal.NewPlayer(playerID, hostName, true)

	for attempt := 0; attempt < 5; attempt++ {
		code := utils.GenerateRoomCode(internal.RoomCodeLength)
		room := internal.NewRoom(code, e.cfg)
		room.HostID = playerID
		room.Players[playerID] = player

		err := e.store.Create(ctx, room)
		if err == nil {
			logrus.Infof("[CreateRoom] room=%s: created by %s (%s)", code, hostName, playerID)
			return room, playerID, nil
		}
		if !errors.Is(err, store.ErrRoomExists) {
			return nil, "", err
		}
		logrus.Debugf("[CreateRoom] code collision on %s, regenerating", code)
	}
	return nil, "", fmt.Errorf("game: could not allocate a unique room code")
}

// JoinRoom adds a player to the room, or resumes an existing entry (same
// player id) with identity and score intact. An empty playerID gets a fresh
// one. Returns the committed room and the effective player id.
func (e *Engine) JoinRoom(ctx context.Context, code, playerID, name string) (*internal.Room, string, error) {
	if playerID == "" {
		playerID = uuid.NewString()
	}

	room, err := e.store.Transact(ctx, code, func(r *internal.Room) error {
		if existing := r.Players[playerID]; existing != nil {
			existing.IsOnline = true
			if name != "" {
				existing.Name = name
			}
			deriveHost(r)
			return nil
		}
		if len(r.Players) >= r.Config.MaxPlayers {
			return ErrRoomFull
		}
		r.Players[playerID] = internal.NewPlayer(playerID, name, false)
		deriveHost(r)
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	logrus.Infof("[JoinRoom] room=%s: player %s (%s) online, %d player(s) connected",
		code, name, playerID, room.OnlinePlayerCount())
	return room, playerID, nil
}

// HandleDisconnect flips the player offline (the entry persists so a
// returning player resumes identity and score), re-derives host authority,
// and unwinds any turn that can no longer proceed.
func (e *Engine) HandleDisconnect(ctx context.Context, code, playerID string) {
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		p := r.Players[playerID]
		if p == nil || !p.IsOnline {
			return store.ErrAborted
		}
		p.IsOnline = false
		deriveHost(r)
		return nil
	})
	if err != nil {
		logrus.Warnf("[HandleDisconnect] room=%s: failed to mark %s offline: %v", code, playerID, err)
		return
	}
	if room == nil {
		return
	}

	logrus.Infof("[HandleDisconnect] room=%s: player %s offline, %d player(s) remain online",
		code, playerID, room.OnlinePlayerCount())

	inGame := room.GameState == internal.StateWordSelection || room.GameState == internal.StateDrawing
	switch {
	case inGame && room.OnlinePlayerCount() < internal.MinPlayersToStart:
		// Not enough players to continue is a normal end condition, not a
		// fault: drive an explicit game_over.
		e.forceGameOver(ctx, code)
	case room.GameState == internal.StateWordSelection && room.CurrentDrawerID == playerID:
		e.handleWordSelectionTimeout(ctx, code, playerID)
	case room.GameState == internal.StateDrawing && room.CurrentDrawerID == playerID:
		e.endTurn(ctx, code, room.CurrentPattern, "drawer_disconnected")
	}

	// Everyone gone: the room record stays for the cleanup policy, but stop
	// all host-side timers for it.
	if room.OnlinePlayerCount() == 0 {
		e.cancelAllTimers(code)
	}
}

func (e *Engine) forceGameOver(ctx context.Context, code string) {
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState == internal.StateGameOver || r.GameState == internal.StateWaiting {
			return store.ErrAborted
		}
		r.GameState = internal.StateGameOver
		r.RoundEndsAt = 0
		r.WordSelectionEndsAt = 0
		return nil
	})
	if err != nil {
		logrus.Warnf("[forceGameOver] room=%s: transition failed: %v", code, err)
		return
	}
	if room != nil {
		logrus.Infof("[forceGameOver] room=%s: ended with %d online player(s)", code, room.OnlinePlayerCount())
		e.finishGame(room)
	}
}

// deriveHost re-establishes the invariant that exactly one online player
// holds host authority: if the current host is gone or offline, the
// earliest-joined online player takes over.
func deriveHost(r *internal.Room) {
	if h := r.Players[r.HostID]; h != nil && h.IsOnline {
		syncHostFlags(r)
		return
	}
	online := r.OnlinePlayerIDs()
	if len(online) == 0 {
		syncHostFlags(r)
		return
	}
	r.HostID = online[0]
	syncHostFlags(r)
	logrus.Infof("[deriveHost] room=%s: host is now %s", r.Code, r.HostID)
}

// syncHostFlags keeps the advisory IsHost flags consistent with HostID.
func syncHostFlags(r *internal.Room) {
	for id, p := range r.Players {
		p.IsHost = id == r.HostID
	}
}

// FindJoinableRoom returns the code of a room still waiting for players with
// a free slot, or "" when none exists.
func (e *Engine) FindJoinableRoom(ctx context.Context) string {
	codes, err := e.store.List(ctx)
	if err != nil {
		logrus.Warnf("[FindJoinableRoom] listing rooms failed: %v", err)
		return ""
	}
	for _, code := range codes {
		room, err := e.store.Get(ctx, code)
		if err != nil {
			continue
		}
		if room.GameState == internal.StateWaiting && len(room.Players) < room.Config.MaxPlayers {
			logrus.Debugf("[FindJoinableRoom] found room %s with %d player(s)", code, len(room.Players))
			return code
		}
	}
	return ""
}

// GetRoom reads the current room record.
func (e *Engine) GetRoom(ctx context.Context, code string) (*internal.Room, error) {
	return e.store.Get(ctx, code)
}
