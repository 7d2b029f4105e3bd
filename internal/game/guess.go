package game

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
)

// =============================================================================
// GUESS HANDLING
// =============================================================================

// SubmitGuess evaluates one guess against the active word and appends it to
// the turn's guess log. Correctness is a case-insensitive exact match.
// Guesses from the drawer, outside the drawing state, or from a player who
// already guessed correctly are dropped silently.
//
// Points are NOT awarded here: scoring happens exactly once, at turn end, in
// CalculateTurnScores.
func (e *Engine) SubmitGuess(ctx context.Context, code, playerID, text string) error {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil
	}

	correct := false
	var word string
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState != internal.StateDrawing {
			return store.ErrAborted
		}
		if playerID == r.CurrentDrawerID {
			return store.ErrAborted
		}
		if r.IsCorrectGuesser(playerID) {
			return store.ErrAborted
		}
		player := r.Players[playerID]
		if player == nil {
			return ErrPlayerNotFound
		}

		correct = strings.EqualFold(cleaned, r.CurrentPattern)
		firstCorrect := false
		if correct {
			firstCorrect = true
			for _, g := range r.Guesses {
				if g.IsCorrect {
					firstCorrect = false
					break
				}
			}
		}

		r.Guesses = append(r.Guesses, internal.Guess{
			PlayerID:       playerID,
			PlayerName:     player.Name,
			Text:           cleaned,
			IsCorrect:      correct,
			IsFirstCorrect: firstCorrect,
			Timestamp:      time.Now().UnixMilli(),
		})
		if correct {
			r.CorrectGuessersThisRound = append(r.CorrectGuessersThisRound, playerID)
		}
		word = r.CurrentPattern
		return nil
	})
	if err != nil {
		return err
	}
	if room == nil {
		return nil
	}

	if correct {
		logrus.Infof("[SubmitGuess] room=%s: player %s guessed correctly (%d/%d)",
			code, playerID, len(room.CorrectGuessersThisRound), room.ActiveGuesserCountAtTurnStart)

		// All online non-drawer players done: end the turn early. Scores use
		// each guesser's actual guess timestamp, not the deadline.
		if room.HasEveryoneGuessed() {
			logrus.Infof("[SubmitGuess] room=%s: everyone guessed, ending turn early", code)
			e.endTurn(ctx, code, word, "all_correct")
		}
	}
	return nil
}
