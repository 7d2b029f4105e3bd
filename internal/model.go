package internal

import (
	"sort"
	"strings"
	"time"
)

const (
	RoomCodeLength    = 6
	MaxPlayersPerRoom = 8
	MinPlayersToStart = 2

	DefaultMaxRounds      = 3
	DefaultRoundSeconds   = 90
	DefaultMaxHintLetters = 2
	DefaultMaxWordLength  = 20

	WordChoiceCount       = 3
	WordSelectionDuration = 15 * time.Second
	RoundEndDelay         = 5 * time.Second
)

// GameState is the room lifecycle state machine.
type GameState string

const (
	StateWaiting       GameState = "waiting"
	StateWordSelection GameState = "word_selection"
	StateDrawing       GameState = "drawing"
	StateRoundEnd      GameState = "round_end"
	StateGameOver      GameState = "game_over"
)

// RoomConfig is fixed at room creation and travels with the room record so
// every reader renders the same countdowns and limits.
type RoomConfig struct {
	RoundSeconds   int `json:"round_seconds"`
	MaxRounds      int `json:"max_rounds"`
	MaxHintLetters int `json:"max_hint_letters"`
	MaxWordLength  int `json:"max_word_length"`
	MaxPlayers     int `json:"max_players"`
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		RoundSeconds:   DefaultRoundSeconds,
		MaxRounds:      DefaultMaxRounds,
		MaxHintLetters: DefaultMaxHintLetters,
		MaxWordLength:  DefaultMaxWordLength,
		MaxPlayers:     MaxPlayersPerRoom,
	}
}

// Guess is one appended guess event for the current turn.
type Guess struct {
	PlayerID       string `json:"player_id"`
	PlayerName     string `json:"player_name"`
	Text           string `json:"text"`
	IsCorrect      bool   `json:"is_correct"`
	IsFirstCorrect bool   `json:"is_first_correct"`
	Timestamp      int64  `json:"timestamp_ms"`
}

// Room is the complete shared state of one game session, keyed by a short
// room code. It is a plain serializable record: the store is the source of
// truth and every mutation goes through the store's transaction primitive.
type Room struct {
	Code   string     `json:"code"`
	HostID string     `json:"host_id"`
	Config RoomConfig `json:"config"`

	Players map[string]*Player `json:"players"`

	GameState          GameState `json:"game_state"`
	CurrentRoundNumber int       `json:"current_round_number"`
	CurrentTurnInRound int       `json:"current_turn_in_round"`
	PlayerOrder        []string  `json:"player_order_for_current_round"`

	CurrentDrawerID string   `json:"current_drawer_id"`
	CurrentPattern  string   `json:"current_pattern,omitempty"`
	SelectableWords []string `json:"selectable_words,omitempty"`
	UsedWords       []string `json:"used_words"`

	// RevealedPattern mirrors CurrentPattern rune-for-rune: spaces verbatim,
	// masked characters as "_", monotonically revealed by the hint scheduler.
	RevealedPattern []string `json:"revealed_pattern"`

	// Absolute deadlines (epoch millis) so a reloading client can
	// reconstruct remaining time by subtracting now.
	TurnStartedAt       int64 `json:"turn_started_at,omitempty"`
	RoundEndsAt         int64 `json:"round_ends_at,omitempty"`
	WordSelectionEndsAt int64 `json:"word_selection_ends_at,omitempty"`

	DrawingData []DrawingPoint `json:"drawing_data"`
	Guesses     []Guess        `json:"guesses"`

	CorrectGuessersThisRound      []string       `json:"correct_guessers_this_round"`
	PlayersAtTurnStart            []string       `json:"players_at_turn_start,omitempty"`
	ActiveGuesserCountAtTurnStart int            `json:"active_guesser_count_at_turn_start"`
	LastRoundScoreChanges         map[string]int `json:"last_round_score_changes,omitempty"`

	CreatedAt int64 `json:"created_at"`
	Version   int64 `json:"version"`
}

func NewRoom(code string, cfg RoomConfig) *Room {
	return &Room{
		Code:      code,
		Config:    cfg,
		Players:   make(map[string]*Player),
		GameState: StateWaiting,
		UsedWords: make([]string, 0),
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Standing is one row of the final leaderboard. Equal scores share a
// position.
type Standing struct {
	Position   int    `json:"position"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}

// FinalStandings ranks every player by score descending, ties broken by
// join time so the ordering is stable. Tied scores share a position and the
// next distinct score skips past them (1, 1, 3).
func (r *Room) FinalStandings() []Standing {
	ids := make([]string, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.Players[ids[i]], r.Players[ids[j]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.JoinedAt != b.JoinedAt {
			return a.JoinedAt < b.JoinedAt
		}
		return a.ID < b.ID
	})

	standings := make([]Standing, len(ids))
	for i, id := range ids {
		p := r.Players[id]
		pos := i + 1
		if i > 0 && p.Score == standings[i-1].Score {
			pos = standings[i-1].Position
		}
		standings[i] = Standing{
			Position:   pos,
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Score:      p.Score,
		}
	}
	return standings
}

// GameResult is the archived summary of one finished game.
type GameResult struct {
	RoomCode     string         `json:"room_code"`
	RoundsPlayed int            `json:"rounds_played"`
	WinnerID     string         `json:"winner_id"`
	WinnerName   string         `json:"winner_name"`
	Scores       map[string]int `json:"scores"`
	Standings    []Standing     `json:"standings"`
	FinishedAt   time.Time      `json:"finished_at"`
}

// WordAlreadyUsed reports whether word was already drawn this game.
// Comparison is case-insensitive.
func (r *Room) WordAlreadyUsed(word string) bool {
	lower := strings.ToLower(strings.TrimSpace(word))
	for _, w := range r.UsedWords {
		if w == lower {
			return true
		}
	}
	return false
}

// AddUsedWord records word (lowercased) in the per-game exclusion set.
func (r *Room) AddUsedWord(word string) {
	lower := strings.ToLower(strings.TrimSpace(word))
	if lower == "" || r.WordAlreadyUsed(lower) {
		return
	}
	r.UsedWords = append(r.UsedWords, lower)
}

// IsCorrectGuesser reports whether playerID already guessed the word this turn.
func (r *Room) IsCorrectGuesser(playerID string) bool {
	for _, id := range r.CorrectGuessersThisRound {
		if id == playerID {
			return true
		}
	}
	return false
}

// HasEveryoneGuessed reports whether every online non-drawer player has
// guessed correctly this turn. False when there is nobody left to guess.
func (r *Room) HasEveryoneGuessed() bool {
	guessers := 0
	for _, p := range r.Players {
		if p == nil || !p.IsOnline || p.ID == r.CurrentDrawerID {
			continue
		}
		guessers++
		if !r.IsCorrectGuesser(p.ID) {
			return false
		}
	}
	return guessers > 0
}

// View returns the room as a specific viewer may see it: the secret word is
// stripped unless the viewer is the drawer or the turn/game is over, and the
// selectable word choices are only ever visible to the drawer.
func (r *Room) View(viewerID string) *Room {
	v := *r
	wordPublic := r.GameState == StateRoundEnd || r.GameState == StateGameOver
	if viewerID != r.CurrentDrawerID && !wordPublic {
		v.CurrentPattern = ""
	}
	if viewerID != r.CurrentDrawerID {
		v.SelectableWords = nil
	}
	return &v
}
