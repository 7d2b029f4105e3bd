package words

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrBadSuggestion covers every contract violation by the suggestion
	// service: wrong count, empty or non-alphabetic words, length overflow,
	// duplicates, excluded words offered back. The caller fails closed onto
	// the local fallback.
	ErrBadSuggestion = errors.New("words: suggestion service returned invalid response")
)

// SuggestionRequest is the word-suggestion service call contract.
type SuggestionRequest struct {
	ExcludedWords []string `json:"excludedWords"`
	Count         int      `json:"count"`
	MaxLength     int      `json:"maxLength,omitempty"`
}

// SuggestionClient calls the external word-suggestion service. One request
// attempt per turn, bounded timeout, never retried: turn progression must not
// block on this service.
type SuggestionClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewSuggestionClient(baseURL string) *SuggestionClient {
	return &SuggestionClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 3 * time.Second},
	}
}

// Suggest requests count candidate words and validates the response against
// the service contract. Any shape mismatch is an error.
func (c *SuggestionClient) Suggest(ctx context.Context, excluded []string, count, maxLength int) ([]string, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("words: no suggestion service configured")
	}
	if count < 1 || count > 5 {
		return nil, fmt.Errorf("words: suggestion count %d out of range", count)
	}

	body, err := json.Marshal(SuggestionRequest{
		ExcludedWords: excluded,
		Count:         count,
		MaxLength:     maxLength,
	})
	if err != nil {
		return nil, fmt.Errorf("words: marshal suggestion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("words: build suggestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("words: suggestion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrBadSuggestion, resp.StatusCode)
	}

	var suggestions []string
	if err := json.NewDecoder(resp.Body).Decode(&suggestions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSuggestion, err)
	}
	if err := ValidateSuggestions(suggestions, count, maxLength, excluded); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// ValidateSuggestions enforces the suggestion contract: exactly count
// results, each non-empty, alphabetic-only, within maxLength, pairwise
// distinct case-insensitively, and none already excluded.
func ValidateSuggestions(suggestions []string, count, maxLength int, excluded []string) error {
	if len(suggestions) != count {
		return fmt.Errorf("%w: got %d words, want %d", ErrBadSuggestion, len(suggestions), count)
	}
	excludedSet := make(map[string]struct{}, len(excluded))
	for _, w := range excluded {
		excludedSet[strings.ToLower(w)] = struct{}{}
	}
	seen := make(map[string]struct{}, count)
	for _, w := range suggestions {
		if w == "" {
			return fmt.Errorf("%w: empty word", ErrBadSuggestion)
		}
		if maxLength > 0 && len([]rune(w)) > maxLength {
			return fmt.Errorf("%w: %q exceeds max length %d", ErrBadSuggestion, w, maxLength)
		}
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return fmt.Errorf("%w: %q is not alphabetic", ErrBadSuggestion, w)
			}
		}
		lower := strings.ToLower(w)
		if _, dup := seen[lower]; dup {
			return fmt.Errorf("%w: duplicate word %q", ErrBadSuggestion, w)
		}
		if _, used := excludedSet[lower]; used {
			return fmt.Errorf("%w: excluded word %q offered", ErrBadSuggestion, w)
		}
		seen[lower] = struct{}{}
	}
	return nil
}
