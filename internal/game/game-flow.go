package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
	"github.com/scrawlparty/scrawlparty-backend/internal/utils"
	"github.com/scrawlparty/scrawlparty-backend/internal/words"
)

// =============================================================================
// GAME FLOW - ROUND MANAGEMENT
// =============================================================================

// StartGame moves a waiting room into the first word_selection turn. Only the
// host may start, and at least MinPlayersToStart players must be online.
func (e *Engine) StartGame(ctx context.Context, code, playerID string) error {
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState != internal.StateWaiting {
			return ErrWrongState
		}
		if r.HostID != playerID {
			return ErrNotHost
		}
		if r.OnlinePlayerCount() < internal.MinPlayersToStart {
			return ErrNotEnoughPlayers
		}

		r.CurrentRoundNumber = 1
		r.CurrentTurnInRound = 1
		r.PlayerOrder = r.OnlinePlayerIDs()
		r.CurrentDrawerID = r.PlayerOrder[0]
		beginWordSelection(r)
		return nil
	})
	if err != nil {
		return err
	}
	if room == nil {
		return nil
	}

	logrus.Infof("[StartGame] room=%s: game started, round=1 drawer=%s order=%v",
		code, room.CurrentDrawerID, room.PlayerOrder)

	e.afterWordSelectionEntered(room)
	return nil
}

// beginWordSelection resets all turn-scoped fields and opens the word
// selection window. Runs inside the transaction that advances game state, so
// the per-turn reset happens exactly once per turn transition.
func beginWordSelection(r *internal.Room) {
	r.GameState = internal.StateWordSelection
	r.CurrentPattern = ""
	r.SelectableWords = nil
	r.RevealedPattern = nil
	r.Guesses = nil
	r.CorrectGuessersThisRound = nil
	r.PlayersAtTurnStart = nil
	r.ActiveGuesserCountAtTurnStart = 0
	r.LastRoundScoreChanges = nil
	r.TurnStartedAt = 0
	r.RoundEndsAt = 0
	r.WordSelectionEndsAt = time.Now().Add(internal.WordSelectionDuration).UnixMilli()
}

// afterWordSelectionEntered runs the host-side effects of a committed
// word_selection transition: fetch the candidate words and arm the
// selection-timeout timer.
func (e *Engine) afterWordSelectionEntered(room *internal.Room) {
	code := room.Code
	drawerID := room.CurrentDrawerID

	e.scheduleAt(code, timerWordSelection, room.WordSelectionEndsAt, func() {
		e.handleWordSelectionTimeout(context.Background(), code, drawerID)
	})

	go e.offerWords(context.Background(), code, drawerID)
}

// offerWords obtains candidates from the word engine (external service with
// deterministic fallback) and publishes them to the room, unless the turn
// has already moved on.
func (e *Engine) offerWords(ctx context.Context, code, drawerID string) {
	room, err := e.store.Get(ctx, code)
	if err != nil {
		logrus.Warnf("[offerWords] room=%s: read failed: %v", code, err)
		return
	}
	if room.GameState != internal.StateWordSelection || room.CurrentDrawerID != drawerID {
		return
	}

	choices := e.words.Choices(ctx, room.UsedWords, internal.WordChoiceCount, room.Config.MaxWordLength)

	updated, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState != internal.StateWordSelection || r.CurrentDrawerID != drawerID || r.CurrentPattern != "" {
			return store.ErrAborted
		}
		r.SelectableWords = choices
		return nil
	})
	if err != nil {
		logrus.Warnf("[offerWords] room=%s: publish failed: %v", code, err)
		return
	}
	if updated == nil {
		// Turn moved on before the offer landed.
		return
	}
	logrus.Infof("[offerWords] room=%s: offered %v to drawer %s", code, choices, drawerID)
}

// ChooseWord confirms the drawer's pick (one of the offered words, or a
// custom word when custom is true) and starts the drawing turn.
func (e *Engine) ChooseWord(ctx context.Context, code, playerID, word string, custom bool) error {
	// Guesses are trimmed before comparison, so the stored word must be too.
	word = strings.TrimSpace(word)
	now := time.Now()
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState != internal.StateWordSelection {
			return ErrWrongState
		}
		if r.CurrentDrawerID != playerID {
			return ErrNotYourTurn
		}
		if r.CurrentPattern != "" {
			// Word already confirmed; duplicate submissions are no-ops.
			return store.ErrAborted
		}

		if custom {
			if err := words.ValidateCustomWord(word, r.Config.MaxWordLength, r.UsedWords); err != nil {
				return err
			}
		} else {
			offered := false
			for _, w := range r.SelectableWords {
				if w == word {
					offered = true
					break
				}
			}
			if !offered {
				return fmt.Errorf("%w: word was not offered", ErrWrongState)
			}
			if r.WordAlreadyUsed(word) {
				return words.ErrWordUsed
			}
		}

		r.CurrentPattern = word
		r.RevealedPattern = utils.MaskPattern(word)
		r.AddUsedWord(word)
		r.SelectableWords = nil

		// Seed the stroke log with a single clear event so every replayer
		// starts from an empty canvas.
		r.DrawingData = []internal.DrawingPoint{{Type: internal.PointClear, Timestamp: now.UnixMilli()}}
		r.Guesses = nil
		r.CorrectGuessersThisRound = nil

		r.PlayersAtTurnStart = r.OnlinePlayerIDs()
		r.ActiveGuesserCountAtTurnStart = 0
		for _, id := range r.PlayersAtTurnStart {
			if id != r.CurrentDrawerID {
				r.ActiveGuesserCountAtTurnStart++
			}
		}

		r.GameState = internal.StateDrawing
		r.TurnStartedAt = now.UnixMilli()
		r.RoundEndsAt = now.Add(time.Duration(r.Config.RoundSeconds) * time.Second).UnixMilli()
		r.WordSelectionEndsAt = 0
		return nil
	})
	if err != nil {
		return err
	}
	if room == nil {
		return nil
	}

	logrus.Infof("[ChooseWord] room=%s: drawer=%s confirmed a %d-letter word, turn ends at %d",
		code, playerID, len(word), room.RoundEndsAt)

	e.cancelTimer(code, timerWordSelection)
	e.scheduleAt(code, timerRound, room.RoundEndsAt, func() {
		e.handleRoundTimeout(context.Background(), code, room.CurrentPattern)
	})
	e.scheduleHints(room)
	return nil
}

// handleWordSelectionTimeout skips the drawer who never confirmed a word.
// Nobody is penalized; the rotation simply advances.
func (e *Engine) handleWordSelectionTimeout(ctx context.Context, code, drawerID string) {
	gameOver := false
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		// Stale-read guard: the timer may fire after the word was chosen or
		// after the room moved on entirely.
		if r.GameState != internal.StateWordSelection || r.CurrentDrawerID != drawerID || r.CurrentPattern != "" {
			return store.ErrAborted
		}
		logrus.Infof("[handleWordSelectionTimeout] room=%s: drawer %s made no choice, skipping", code, drawerID)
		if advanceRotation(r) {
			r.GameState = internal.StateGameOver
			r.WordSelectionEndsAt = 0
			gameOver = true
			return nil
		}
		beginWordSelection(r)
		return nil
	})
	if err != nil {
		logrus.Warnf("[handleWordSelectionTimeout] room=%s: transition failed: %v", code, err)
		return
	}
	if room == nil {
		return
	}
	if gameOver {
		e.finishGame(room)
		return
	}
	e.afterWordSelectionEntered(room)
}

// handleRoundTimeout ends the drawing turn when the round deadline elapses.
func (e *Engine) handleRoundTimeout(ctx context.Context, code, word string) {
	e.endTurn(ctx, code, word, "timeout")
}

// endTurn computes and applies the turn scores and moves the room to
// round_end. The word parameter pins the turn this callback belongs to; if
// the room has moved on to another word or state, the call is a no-op.
func (e *Engine) endTurn(ctx context.Context, code, word, reason string) {
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState != internal.StateDrawing || r.CurrentPattern != word {
			return store.ErrAborted
		}

		deltas := CalculateTurnScores(
			r.Guesses,
			r.CurrentDrawerID,
			r.ActiveGuesserCountAtTurnStart,
			r.TurnStartedAt,
			r.Config.RoundSeconds,
			r.PlayersAtTurnStart,
		)
		for id, delta := range deltas {
			if p := r.Players[id]; p != nil {
				p.Score += delta
			}
		}
		r.LastRoundScoreChanges = deltas

		// Reveal the word to everyone for the round summary.
		r.RevealedPattern = splitPattern(r.CurrentPattern)
		r.GameState = internal.StateRoundEnd
		r.RoundEndsAt = 0
		return nil
	})
	if err != nil {
		logrus.Warnf("[endTurn] room=%s: transition failed: %v", code, err)
		return
	}
	if room == nil {
		return
	}

	logrus.Infof("[endTurn] room=%s: turn over (%s), correct=%d deltas=%v",
		code, reason, len(room.CorrectGuessersThisRound), room.LastRoundScoreChanges)

	e.cancelTimer(code, timerRound)
	e.cancelHintTimers(code)
	e.schedule(code, timerNextTurn, internal.RoundEndDelay, func() {
		e.handleNextTurn(context.Background(), code)
	})
}

// handleNextTurn advances from round_end to the next turn's word_selection,
// or ends the game when rounds are exhausted or too few players remain.
func (e *Engine) handleNextTurn(ctx context.Context, code string) {
	gameOver := false
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState != internal.StateRoundEnd {
			return store.ErrAborted
		}
		if advanceRotation(r) {
			r.GameState = internal.StateGameOver
			gameOver = true
			return nil
		}
		beginWordSelection(r)
		return nil
	})
	if err != nil {
		logrus.Warnf("[handleNextTurn] room=%s: transition failed: %v", code, err)
		return
	}
	if room == nil {
		return
	}
	if gameOver {
		logrus.Infof("[handleNextTurn] room=%s: game over after round %d", code, room.CurrentRoundNumber)
		e.finishGame(room)
		return
	}

	logrus.Infof("[handleNextTurn] room=%s: round=%d turn=%d drawer=%s",
		code, room.CurrentRoundNumber, room.CurrentTurnInRound, room.CurrentDrawerID)
	e.afterWordSelectionEntered(room)
}

// RestartGame resets a finished room back to the waiting state: scores and
// counters cleared, used words forgotten. Host only.
func (e *Engine) RestartGame(ctx context.Context, code, playerID string) error {
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState != internal.StateGameOver {
			return ErrWrongState
		}
		if r.HostID != playerID {
			return ErrNotHost
		}
		r.GameState = internal.StateWaiting
		r.CurrentRoundNumber = 0
		r.CurrentTurnInRound = 0
		r.PlayerOrder = nil
		r.CurrentDrawerID = ""
		r.CurrentPattern = ""
		r.SelectableWords = nil
		r.UsedWords = make([]string, 0)
		r.RevealedPattern = nil
		r.TurnStartedAt = 0
		r.RoundEndsAt = 0
		r.WordSelectionEndsAt = 0
		r.DrawingData = nil
		r.Guesses = nil
		r.CorrectGuessersThisRound = nil
		r.PlayersAtTurnStart = nil
		r.ActiveGuesserCountAtTurnStart = 0
		r.LastRoundScoreChanges = nil
		for _, p := range r.Players {
			p.Score = 0
		}
		return nil
	})
	if err != nil {
		return err
	}
	if room != nil {
		logrus.Infof("[RestartGame] room=%s: reset to waiting by host %s", code, playerID)
	}
	return nil
}

// advanceRotation moves to the next drawer, skipping players who went
// offline, advancing the round (and rebuilding the rotation from currently
// online players) when the order is exhausted. Returns true when the game
// should end instead: rounds exhausted or too few players left.
func advanceRotation(r *internal.Room) bool {
	for range len(r.Players) + r.Config.MaxRounds + 2 {
		r.CurrentTurnInRound++
		if len(r.PlayerOrder) == 0 || r.CurrentTurnInRound > len(r.PlayerOrder) {
			r.CurrentRoundNumber++
			r.CurrentTurnInRound = 1
			r.PlayerOrder = r.OnlinePlayerIDs()
			if r.CurrentRoundNumber > r.Config.MaxRounds {
				return true
			}
			if len(r.PlayerOrder) < internal.MinPlayersToStart {
				return true
			}
			r.CurrentDrawerID = r.PlayerOrder[0]
			return false
		}
		if p := r.Players[r.PlayerOrder[r.CurrentTurnInRound-1]]; p != nil && p.IsOnline {
			r.CurrentDrawerID = p.ID
			return false
		}
	}
	// Unreachable with a sane room, but never spin forever on corrupt state.
	return true
}

func splitPattern(word string) []string {
	runes := []rune(word)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
