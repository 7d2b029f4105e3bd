package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
	"github.com/scrawlparty/scrawlparty-backend/internal/words"
)

// Archiver persists a finished game's summary. Archiving is best-effort:
// a failure never blocks or fails the game_over transition.
type Archiver interface {
	SaveGameResult(ctx context.Context, result internal.GameResult) error
}

// Engine is the host side of the room state machine. The process running the
// engine is the single authorized writer for serialized transitions; every
// transition re-reads the room through the store's transaction primitive and
// verifies its precondition before writing, so stale timer firings and
// duplicate callbacks degrade to silent no-ops.
type Engine struct {
	store   store.RoomStore
	words   *words.Engine
	archive Archiver
	cfg     internal.RoomConfig

	timersMu sync.Mutex
	timers   map[string]map[string]*time.Timer
}

func NewEngine(st store.RoomStore, wordEngine *words.Engine, archive Archiver, cfg internal.RoomConfig) *Engine {
	return &Engine{
		store:   st,
		words:   wordEngine,
		archive: archive,
		cfg:     cfg,
		timers:  make(map[string]map[string]*time.Timer),
	}
}

// transact wraps store.Transact and swallows aborted transactions: an abort
// means the expected source state no longer held, which is the normal way a
// superseded timer or duplicate callback dies.
func (e *Engine) transact(ctx context.Context, code string, mutate func(*internal.Room) error) (*internal.Room, error) {
	room, err := e.store.Transact(ctx, code, mutate)
	if err != nil {
		if errors.Is(err, store.ErrAborted) {
			return nil, nil
		}
		return nil, err
	}
	return room, nil
}

// finishGame runs the side effects of a committed game_over transition.
func (e *Engine) finishGame(room *internal.Room) {
	e.cancelAllTimers(room.Code)

	if e.archive == nil {
		return
	}
	result := internal.GameResult{
		RoomCode:     room.Code,
		RoundsPlayed: room.CurrentRoundNumber,
		Scores:       make(map[string]int, len(room.Players)),
		Standings:    room.FinalStandings(),
		FinishedAt:   time.Now(),
	}
	if result.RoundsPlayed > room.Config.MaxRounds {
		result.RoundsPlayed = room.Config.MaxRounds
	}
	for id, p := range room.Players {
		result.Scores[id] = p.Score
	}
	if len(result.Standings) > 0 {
		result.WinnerID = result.Standings[0].PlayerID
		result.WinnerName = result.Standings[0].PlayerName
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.archive.SaveGameResult(ctx, result); err != nil {
			logrus.Warnf("[finishGame] room=%s: failed to archive game result: %v", room.Code, err)
		}
	}()
}
