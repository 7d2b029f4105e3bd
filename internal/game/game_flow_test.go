package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
)

func TestStartGame(t *testing.T) {
	ctx := context.Background()

	t.Run("host starts a waiting room", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")

		require.NoError(t, e.StartGame(ctx, "TEST01", "host"))

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateWordSelection, room.GameState)
		assert.Equal(t, 1, room.CurrentRoundNumber)
		assert.Equal(t, 1, room.CurrentTurnInRound)
		assert.Equal(t, []string{"host", "p2"}, room.PlayerOrder)
		assert.Equal(t, "host", room.CurrentDrawerID)
		assert.Positive(t, room.WordSelectionEndsAt)
	})

	t.Run("non-host cannot start", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")

		assert.ErrorIs(t, e.StartGame(ctx, "TEST01", "p2"), ErrNotHost)
	})

	t.Run("needs two online players", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host")

		assert.ErrorIs(t, e.StartGame(ctx, "TEST01", "host"), ErrNotEnoughPlayers)
	})

	t.Run("only from waiting state", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")
		putInDrawingState(t, st, "TEST01", "host", "cat")

		assert.ErrorIs(t, e.StartGame(ctx, "TEST01", "host"), ErrWrongState)
	})
}

func TestChooseWord(t *testing.T) {
	ctx := context.Background()

	startSelection := func(t *testing.T) (*Engine, *store.MemoryRoomStore) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")
		require.NoError(t, e.StartGame(ctx, "TEST01", "host"))
		return e, st
	}

	t.Run("offered word starts the drawing turn", func(t *testing.T) {
		e, st := startSelection(t)
		setSelectable(t, st, "TEST01", []string{"cat", "sun", "boat"})

		require.NoError(t, e.ChooseWord(ctx, "TEST01", "host", "cat", false))

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateDrawing, room.GameState)
		assert.Equal(t, "cat", room.CurrentPattern)
		assert.Equal(t, []string{"_", "_", "_"}, room.RevealedPattern)
		assert.Equal(t, []string{"cat"}, room.UsedWords)
		assert.Nil(t, room.SelectableWords)
		assert.Equal(t, 1, room.ActiveGuesserCountAtTurnStart)
		assert.Positive(t, room.TurnStartedAt)
		assert.Greater(t, room.RoundEndsAt, room.TurnStartedAt)
		// Log starts with the canonical clear event.
		require.Len(t, room.DrawingData, 1)
		assert.Equal(t, internal.PointClear, room.DrawingData[0].Type)
	})

	t.Run("word outside the offer is rejected", func(t *testing.T) {
		e, st := startSelection(t)
		setSelectable(t, st, "TEST01", []string{"cat", "sun", "boat"})

		assert.ErrorIs(t, e.ChooseWord(ctx, "TEST01", "host", "zebra", false), ErrWrongState)
	})

	t.Run("only the drawer chooses", func(t *testing.T) {
		e, st := startSelection(t)
		setSelectable(t, st, "TEST01", []string{"cat", "sun", "boat"})

		assert.ErrorIs(t, e.ChooseWord(ctx, "TEST01", "p2", "cat", false), ErrNotYourTurn)
	})

	t.Run("custom word bypasses the offer", func(t *testing.T) {
		e, st := startSelection(t)

		require.NoError(t, e.ChooseWord(ctx, "TEST01", "host", "ice cream", true))

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, "ice cream", room.CurrentPattern)
		assert.Equal(t, []string{"_", "_", "_", " ", "_", "_", "_", "_", "_"}, room.RevealedPattern)
	})

	t.Run("custom word with surrounding whitespace stays guessable", func(t *testing.T) {
		e, st := startSelection(t)

		require.NoError(t, e.ChooseWord(ctx, "TEST01", "host", "cat ", true))

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, "cat", room.CurrentPattern)
		assert.Equal(t, []string{"cat"}, room.UsedWords)
		assert.Equal(t, []string{"_", "_", "_"}, room.RevealedPattern)

		require.NoError(t, e.SubmitGuess(ctx, "TEST01", "p2", "cat"))
		got := mustGet(t, st, "TEST01")
		require.NotEmpty(t, got.Guesses)
		assert.True(t, got.Guesses[0].IsCorrect)
	})

	t.Run("duplicate confirmation is a no-op", func(t *testing.T) {
		e, st := startSelection(t)
		setSelectable(t, st, "TEST01", []string{"cat", "sun", "boat"})

		require.NoError(t, e.ChooseWord(ctx, "TEST01", "host", "cat", false))
		before := mustGet(t, st, "TEST01")

		require.NoError(t, e.ChooseWord(ctx, "TEST01", "host", "sun", false))
		after := mustGet(t, st, "TEST01")
		assert.Equal(t, before.CurrentPattern, after.CurrentPattern)
		assert.Equal(t, before.Version, after.Version)
	})
}

func TestOfferWords_StaleTurnIsDropped(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	seedRoom(t, st, "host", "p2")
	_, err := st.Transact(ctx, "TEST01", func(r *internal.Room) error {
		r.GameState = internal.StateWordSelection
		r.CurrentDrawerID = "host"
		r.CurrentPattern = "cat" // word already confirmed
		return nil
	})
	require.NoError(t, err)
	before := mustGet(t, st, "TEST01")

	// The offer goroutine from an earlier word_selection phase lands after
	// the word was already chosen.
	e.offerWords(ctx, "TEST01", "host")

	after := mustGet(t, st, "TEST01")
	assert.Nil(t, after.SelectableWords)
	assert.Equal(t, before.Version, after.Version)
}

func TestWordSelectionTimeout(t *testing.T) {
	ctx := context.Background()

	t.Run("skips the drawer without penalty", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2", "p3")
		require.NoError(t, e.StartGame(ctx, "TEST01", "host"))

		e.handleWordSelectionTimeout(ctx, "TEST01", "host")

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateWordSelection, room.GameState)
		assert.Equal(t, "p2", room.CurrentDrawerID)
		assert.Equal(t, 2, room.CurrentTurnInRound)
		for _, p := range room.Players {
			assert.Zero(t, p.Score)
		}
	})

	t.Run("stale firing after word chosen is a no-op", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")
		require.NoError(t, e.StartGame(ctx, "TEST01", "host"))
		require.NoError(t, e.ChooseWord(ctx, "TEST01", "host", "piano", true))

		e.handleWordSelectionTimeout(ctx, "TEST01", "host")

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateDrawing, room.GameState)
		assert.Equal(t, "piano", room.CurrentPattern)
	})

	t.Run("skipping the last drawer of the last round ends the game", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")
		require.NoError(t, e.StartGame(ctx, "TEST01", "host"))

		// Force the room to the final turn of the final round.
		_, err := st.Transact(ctx, "TEST01", func(r *internal.Room) error {
			r.CurrentRoundNumber = r.Config.MaxRounds
			r.CurrentTurnInRound = len(r.PlayerOrder)
			r.CurrentDrawerID = "p2"
			return nil
		})
		require.NoError(t, err)

		e.handleWordSelectionTimeout(ctx, "TEST01", "p2")

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateGameOver, room.GameState)
	})
}

func TestEndTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("applies deltas and reveals the word", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2", "p3")
		room := putInDrawingState(t, st, "TEST01", "host", "cat")

		// p2 guesses halfway through the turn.
		_, err := st.Transact(ctx, "TEST01", func(r *internal.Room) error {
			r.Guesses = append(r.Guesses, internal.Guess{
				PlayerID:  "p2",
				Text:      "cat",
				IsCorrect: true,
				Timestamp: room.TurnStartedAt + int64(r.Config.RoundSeconds)*500,
			})
			r.CorrectGuessersThisRound = []string{"p2"}
			return nil
		})
		require.NoError(t, err)

		e.endTurn(ctx, "TEST01", "cat", "timeout")

		got := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateRoundEnd, got.GameState)
		assert.Equal(t, []string{"c", "a", "t"}, got.RevealedPattern)
		assert.Equal(t, 5, got.Players["p2"].Score)
		assert.Equal(t, 0, got.Players["p3"].Score)
		assert.Equal(t, 6, got.Players["host"].Score) // 2 + 1*(8/2)
		assert.Equal(t, got.LastRoundScoreChanges["p2"], 5)
	})

	t.Run("second invocation does not double-award", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")
		putInDrawingState(t, st, "TEST01", "host", "cat")

		e.endTurn(ctx, "TEST01", "cat", "timeout")
		first := mustGet(t, st, "TEST01")
		e.endTurn(ctx, "TEST01", "cat", "timeout")
		second := mustGet(t, st, "TEST01")

		assert.Equal(t, first.Players["host"].Score, second.Players["host"].Score)
		assert.Equal(t, first.Version, second.Version)
	})

	t.Run("mismatched word is a stale callback", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")
		putInDrawingState(t, st, "TEST01", "host", "cat")

		e.endTurn(ctx, "TEST01", "dog", "timeout")

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateDrawing, room.GameState)
	})
}

func TestHandleNextTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("advances to the next drawer", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2", "p3")
		putInDrawingState(t, st, "TEST01", "host", "cat")
		e.endTurn(ctx, "TEST01", "cat", "timeout")

		e.handleNextTurn(ctx, "TEST01")

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateWordSelection, room.GameState)
		assert.Equal(t, "p2", room.CurrentDrawerID)
		assert.Equal(t, 2, room.CurrentTurnInRound)
		assert.Equal(t, 1, room.CurrentRoundNumber)
		// Turn-scoped fields are reset.
		assert.Empty(t, room.CurrentPattern)
		assert.Nil(t, room.Guesses)
		assert.Nil(t, room.RevealedPattern)
	})

	t.Run("rolls into the next round after the last drawer", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")
		putInDrawingState(t, st, "TEST01", "p2", "cat")
		_, err := st.Transact(ctx, "TEST01", func(r *internal.Room) error {
			r.CurrentTurnInRound = 2
			return nil
		})
		require.NoError(t, err)
		e.endTurn(ctx, "TEST01", "cat", "timeout")

		e.handleNextTurn(ctx, "TEST01")

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, 2, room.CurrentRoundNumber)
		assert.Equal(t, 1, room.CurrentTurnInRound)
		assert.Equal(t, "host", room.CurrentDrawerID)
	})

	t.Run("ends the game when rounds are exhausted", func(t *testing.T) {
		e, st := newTestEngine(t)
		seedRoom(t, st, "host", "p2")
		putInDrawingState(t, st, "TEST01", "p2", "cat")
		_, err := st.Transact(ctx, "TEST01", func(r *internal.Room) error {
			r.CurrentRoundNumber = r.Config.MaxRounds
			r.CurrentTurnInRound = 2
			return nil
		})
		require.NoError(t, err)
		e.endTurn(ctx, "TEST01", "cat", "timeout")

		e.handleNextTurn(ctx, "TEST01")

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateGameOver, room.GameState)
	})
}

func TestAdvanceRotation_SkipsOfflinePlayers(t *testing.T) {
	e, st := newTestEngine(t)
	seedRoom(t, st, "host", "p2", "p3")
	require.NoError(t, e.StartGame(context.Background(), "TEST01", "host"))

	_, err := st.Transact(context.Background(), "TEST01", func(r *internal.Room) error {
		r.Players["p2"].IsOnline = false
		require.False(t, advanceRotation(r))
		return nil
	})
	require.NoError(t, err)

	room := mustGet(t, st, "TEST01")
	assert.Equal(t, "p3", room.CurrentDrawerID)
	assert.Equal(t, 3, room.CurrentTurnInRound)
}

func TestRestartGame(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	seedRoom(t, st, "host", "p2")
	putInDrawingState(t, st, "TEST01", "host", "cat")
	_, err := st.Transact(ctx, "TEST01", func(r *internal.Room) error {
		r.GameState = internal.StateGameOver
		r.Players["p2"].Score = 17
		return nil
	})
	require.NoError(t, err)

	t.Run("non-host cannot restart", func(t *testing.T) {
		assert.ErrorIs(t, e.RestartGame(ctx, "TEST01", "p2"), ErrNotHost)
	})

	t.Run("host resets the room", func(t *testing.T) {
		require.NoError(t, e.RestartGame(ctx, "TEST01", "host"))

		room := mustGet(t, st, "TEST01")
		assert.Equal(t, internal.StateWaiting, room.GameState)
		assert.Zero(t, room.CurrentRoundNumber)
		assert.Empty(t, room.CurrentDrawerID)
		assert.Empty(t, room.CurrentPattern)
		assert.Empty(t, room.UsedWords)
		assert.Nil(t, room.DrawingData)
		for _, p := range room.Players {
			assert.Zero(t, p.Score)
		}
		// Players themselves survive the reset.
		assert.Len(t, room.Players, 2)
	})

	t.Run("restart from waiting is rejected", func(t *testing.T) {
		assert.ErrorIs(t, e.RestartGame(ctx, "TEST01", "host"), ErrWrongState)
	})
}
