package words

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

var (
	ErrWordUsed    = errors.New("words: word already used this game")
	ErrWordTooLong = errors.New("words: word exceeds max length")
	ErrWordEmpty   = errors.New("words: word is empty")
	ErrWordInvalid = errors.New("words: word contains invalid characters")
)

// Engine produces the candidate word sets offered to a drawer. It tries the
// external suggestion service once per turn and falls back to the local pool
// on any failure; the failure is never surfaced to players.
type Engine struct {
	client *SuggestionClient
}

func NewEngine(client *SuggestionClient) *Engine {
	return &Engine{client: client}
}

// Choices returns exactly count distinct candidate words honoring the
// exclusion set and maxLength. It cannot fail.
func (e *Engine) Choices(ctx context.Context, excluded []string, count, maxLength int) []string {
	if e != nil && e.client != nil {
		suggestions, err := e.client.Suggest(ctx, excluded, count, maxLength)
		if err == nil {
			return suggestions
		}
		logrus.Infof("[Choices] suggestion service rejected, using fallback pool: %v", err)
	}
	return FallbackWords(excluded, count, maxLength)
}

// ValidateCustomWord checks a drawer-submitted word against the room rules.
// Custom words may contain spaces (multi-word answers) but must otherwise be
// alphabetic, within maxLength, and unused this game.
func ValidateCustomWord(word string, maxLength int, usedWords []string) error {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return ErrWordEmpty
	}
	if maxLength > 0 && len([]rune(trimmed)) > maxLength {
		return fmt.Errorf("%w: %d > %d", ErrWordTooLong, len([]rune(trimmed)), maxLength)
	}
	for _, r := range trimmed {
		if r != ' ' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return ErrWordInvalid
		}
	}
	lower := strings.ToLower(trimmed)
	for _, used := range usedWords {
		if used == lower {
			return ErrWordUsed
		}
	}
	return nil
}
