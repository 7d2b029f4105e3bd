package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlparty/scrawlparty-backend/internal"
)

func TestSubmitGuess(t *testing.T) {
	ctx := context.Background()

	t.Run("correct guess is case-insensitive", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2", "p3")
		putInDrawingState(t, st, "TEST01", "host", "Cat")

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p2", "  cAt "))

		room := mustGet(t, st, "TEST01")
		require.Len(t, room.Guesses, 1)
		assert.True(t, room.Guesses[0].IsCorrect)
		assert.True(t, room.Guesses[0].IsFirstCorrect)
		assert.Equal(t, []string{"p2"}, room.CorrectGuessersThisRound)
		// No points until the turn ends.
		assert.Zero(t, room.Players["p2"].Score)
	})

	t.Run("wrong guess is logged but not correct", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2", "p3")
		putInDrawingState(t, st, "TEST01", "host", "cat")

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p2", "dog"))

		room := mustGet(t, st, "TEST01")
		require.Len(t, room.Guesses, 1)
		assert.False(t, room.Guesses[0].IsCorrect)
		assert.Empty(t, room.CorrectGuessersThisRound)
	})

	t.Run("only the first correct guess carries the flag", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2", "p3")
		putInDrawingState(t, st, "TEST01", "host", "cat")

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p2", "cat"))
		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p3", "cat"))

		room := mustGet(t, st, "TEST01")
		assert.True(t, room.Guesses[0].IsFirstCorrect)
		assert.False(t, room.Guesses[1].IsFirstCorrect)
	})

	t.Run("drawer guesses are dropped", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2", "p3")
		putInDrawingState(t, st, "TEST01", "host", "cat")

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "host", "cat"))

		room := mustGet(t, st, "TEST01")
		assert.Empty(t, room.Guesses)
	})

	t.Run("already-correct guesser cannot guess again", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2", "p3")
		putInDrawingState(t, st, "TEST01", "host", "cat")

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p2", "cat"))
		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p2", "cat"))

		room := mustGet(t, st, "TEST01")
		assert.Len(t, room.Guesses, 1)
		assert.Equal(t, []string{"p2"}, room.CorrectGuessersThisRound)
	})

	t.Run("guesses outside the drawing state are dropped", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p2", "cat"))

		room := mustGet(t, st, "TEST01")
		assert.Empty(t, room.Guesses)
	})

	t.Run("blank guesses are ignored", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")
		putInDrawingState(t, st, "TEST01", "host", "cat")

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p2", "   "))

		room := mustGet(t, st, "TEST01")
		assert.Empty(t, room.Guesses)
	})

	t.Run("everyone correct ends the turn early", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2", "p3")
		putInDrawingState(t, st, "TEST01", "host", "cat")

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p2", "cat"))
		assert.Equal(t, internal.StateDrawing, mustGet(t, st, "TEST01").GameState)

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p3", "cat"))

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateRoundEnd, room.GameState)
		// Both guessed near turn start, so near-max points and a full
		// drawer share.
		assert.GreaterOrEqual(t, room.Players["p2"].Score, 9)
		assert.GreaterOrEqual(t, room.Players["p3"].Score, 9)
		assert.Equal(t, 10, room.Players["host"].Score) // 2 + 2*(8/2)
	})
}
