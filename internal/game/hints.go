package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
	"github.com/scrawlparty/scrawlparty-backend/internal/utils"
)

// =============================================================================
// HINT REVEAL SCHEDULER
// =============================================================================

// scheduleHints arms the turn's hint-reveal timers. The effective hint count
// is min(configured, L-1) over the word's non-space length: at least one
// letter always stays masked. Reveal times are spaced evenly across the
// second half of the turn. Index selection happens once, here, at turn
// start; each firing re-verifies the turn before writing.
func (e *Engine) scheduleHints(room *internal.Room) {
	word := room.CurrentPattern
	candidates := utils.NonSpaceIndices(word)

	count := room.Config.MaxHintLetters
	if max := len(candidates) - 1; count > max {
		count = max
	}
	if count <= 0 {
		return
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	picked := candidates[:count]

	total := time.Duration(room.Config.RoundSeconds) * time.Second
	windowStart := time.UnixMilli(room.TurnStartedAt).Add(total / 2)
	step := (total / 2) / time.Duration(room.Config.MaxHintLetters)

	logrus.Infof("[scheduleHints] room=%s: %d hint(s) scheduled from %s every %s",
		room.Code, count, windowStart.Format(time.RFC3339), step)

	code := room.Code
	for i, idx := range picked {
		name := fmt.Sprintf("%s%d", hintTimerPrefix, i)
		fireAt := windowStart.Add(time.Duration(i) * step)
		index := idx
		e.scheduleAt(code, name, fireAt.UnixMilli(), func() {
			e.revealHint(context.Background(), code, word, index)
		})
	}
}

// revealHint merges one character of the secret word into revealedPattern.
// The merge is an idempotent compare-and-swap: the turn is re-verified and
// the target index is only written while still masked, so concurrent or
// duplicate firings for the same logical hint are no-ops.
func (e *Engine) revealHint(ctx context.Context, code, word string, index int) {
	room, err := e.transact(ctx, code, func(r *internal.Room) error {
		if r.GameState != internal.StateDrawing || r.CurrentPattern != word {
			// The turn ended early or moved on; drop the reveal silently.
			return store.ErrAborted
		}
		runes := []rune(word)
		if index < 0 || index >= len(runes) || len(r.RevealedPattern) != len(runes) {
			return store.ErrAborted
		}
		if r.RevealedPattern[index] != "_" {
			// Already revealed by an earlier firing.
			return store.ErrAborted
		}
		r.RevealedPattern[index] = string(runes[index])
		return nil
	})
	if err != nil {
		logrus.Warnf("[revealHint] room=%s: reveal failed: %v", code, err)
		return
	}
	if room != nil {
		logrus.Infof("[revealHint] room=%s: revealed index %d, pattern now %q",
			code, index, utils.DisplayPattern(room.RevealedPattern))
	}
}
