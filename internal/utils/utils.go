package utils

import (
	"math/rand"
	"strings"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

const roomCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRoomCode returns an n-character uppercase alphanumeric code used as
// both the store key segment and the human-shareable join code.
func GenerateRoomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = roomCodeCharset[rand.Intn(len(roomCodeCharset))]
	}
	return string(b)
}

// MaskPattern builds the initial revealed-pattern array for a word: spaces
// are preserved verbatim, every other rune is masked as "_".
func MaskPattern(word string) []string {
	if word == "" {
		return nil
	}
	runes := []rune(word)
	masked := make([]string, len(runes))
	for i, r := range runes {
		if r == ' ' {
			masked[i] = " "
		} else {
			masked[i] = "_"
		}
	}
	return masked
}

// NonSpaceIndices returns the rune indices of word that are hint candidates,
// i.e. everything except spaces.
func NonSpaceIndices(word string) []int {
	var idx []int
	for i, r := range []rune(word) {
		if r != ' ' {
			idx = append(idx, i)
		}
	}
	return idx
}

// DisplayPattern renders a revealed pattern the way clients show it,
// e.g. ["_"," ","c","_"] -> "_ c_".
func DisplayPattern(revealed []string) string {
	return strings.Join(revealed, "")
}

// Shuffle permutes a string slice in place.
func Shuffle(words []string) {
	rand.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
}
