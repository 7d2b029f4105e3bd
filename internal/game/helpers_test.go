package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
	"github.com/scrawlparty/scrawlparty-backend/internal/words"
)

func newTestEngine(t *testing.T) (*Engine, *store.MemoryRoomStore) {
	t.Helper()
	st := store.NewMemoryRoomStore()
	e := NewEngine(st, words.NewEngine(nil), nil, internal.DefaultRoomConfig())
	return e, st
}

// seedRoom creates a waiting room with the given players already joined.
// players[0] is the host. Join times increase monotonically so the rotation
// order is exactly the argument order.
func seedRoom(t *testing.T, st *store.MemoryRoomStore, playerIDs ...string) *internal.Room {
	t.Helper()
	room := internal.NewRoom("TEST01", internal.DefaultRoomConfig())
	base := time.Now().UnixMilli()
	for i, id := range playerIDs {
		p := internal.NewPlayer(id, "name-"+id, i == 0)
		p.JoinedAt = base + int64(i)
		room.Players[id] = p
	}
	if len(playerIDs) > 0 {
		room.HostID = playerIDs[0]
	}
	require.NoError(t, st.Create(context.Background(), room))
	return room
}

// putInDrawingState drives a seeded room straight into the drawing state with
// a known word, bypassing the word offer round-trip.
func putInDrawingState(t *testing.T, st *store.MemoryRoomStore, code, drawerID, word string) *internal.Room {
	t.Helper()
	now := time.Now()
	room, err := st.Transact(context.Background(), code, func(r *internal.Room) error {
		r.GameState = internal.StateDrawing
		r.CurrentRoundNumber = 1
		r.CurrentTurnInRound = 1
		r.PlayerOrder = r.OnlinePlayerIDs()
		r.CurrentDrawerID = drawerID
		r.CurrentPattern = word
		r.RevealedPattern = maskFor(word)
		r.AddUsedWord(word)
		r.DrawingData = []internal.DrawingPoint{{Type: internal.PointClear, Timestamp: now.UnixMilli()}}
		r.PlayersAtTurnStart = r.OnlinePlayerIDs()
		r.ActiveGuesserCountAtTurnStart = len(r.PlayersAtTurnStart) - 1
		r.TurnStartedAt = now.UnixMilli()
		r.RoundEndsAt = now.Add(time.Duration(r.Config.RoundSeconds) * time.Second).UnixMilli()
		return nil
	})
	require.NoError(t, err)
	return room
}

func maskFor(word string) []string {
	masked := make([]string, 0, len([]rune(word)))
	for _, r := range word {
		if r == ' ' {
			masked = append(masked, " ")
		} else {
			masked = append(masked, "_")
		}
	}
	return masked
}

// setSelectable stands in for the word offer round-trip.
func setSelectable(t *testing.T, st *store.MemoryRoomStore, code string, choices []string) {
	t.Helper()
	_, err := st.Transact(context.Background(), code, func(r *internal.Room) error {
		r.SelectableWords = choices
		return nil
	})
	require.NoError(t, err)
}

func mustGet(t *testing.T, st *store.MemoryRoomStore, code string) *internal.Room {
	t.Helper()
	room, err := st.Get(context.Background(), code)
	require.NoError(t, err, fmt.Sprintf("room %s must exist", code))
	return room
}
