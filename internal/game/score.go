package game

import (
	"math"

	"github.com/scrawlparty/scrawlparty-backend/internal"
)

// =============================================================================
// SCORING ENGINE
// =============================================================================

// CalculateTurnScores computes the end-of-turn point deltas for one turn.
// It is a pure function of the turn's guess log and timing.
//
// Every player present at turn start gets an entry, defaulting to 0, so
// summaries can show "no points" explicitly. Guessers score from their first
// correct guess: floor(clamp(10 - 10*(T_guess/T_total), 0, 10)), linearly
// decaying from 10 at the turn start to 0 at the deadline. The drawer gets a
// base 2 for drawing plus 8/activeGuessers per distinct successful guesser,
// capped at 10; the drawer never collects guesser points.
func CalculateTurnScores(
	guesses []internal.Guess,
	drawerID string,
	activeGuessers int,
	turnStartMs int64,
	totalSeconds int,
	playerIDs []string,
) map[string]int {
	deltas := make(map[string]int, len(playerIDs))
	for _, id := range playerIDs {
		deltas[id] = 0
	}

	successes := 0
	scored := make(map[string]bool)
	for _, g := range guesses {
		if !g.IsCorrect || g.PlayerID == drawerID || scored[g.PlayerID] {
			continue
		}
		scored[g.PlayerID] = true
		successes++

		elapsed := float64(g.Timestamp-turnStartMs) / 1000.0
		elapsed = clampFloat(elapsed, 0, float64(totalSeconds))

		score := 10 - 10*(elapsed/float64(totalSeconds))
		deltas[g.PlayerID] = int(math.Floor(clampFloat(score, 0, 10)))
	}

	if _, ok := deltas[drawerID]; ok {
		drawerScore := 2.0
		if successes > 0 && activeGuessers > 0 {
			drawerScore += float64(successes) * (8.0 / float64(activeGuessers))
		}
		deltas[drawerID] = int(math.Floor(clampFloat(drawerScore, 0, 10)))
	}

	return deltas
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
