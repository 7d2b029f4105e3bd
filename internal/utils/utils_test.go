package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		code := GenerateRoomCode(6)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.Contains(t, roomCodeCharset, string(c))
		}
		seen[code] = true
	}
	// Collisions over 100 draws from 36^6 would be astonishing.
	assert.Greater(t, len(seen), 90)
}

func TestMaskPattern(t *testing.T) {
	tests := []struct {
		word string
		want []string
	}{
		{"cat", []string{"_", "_", "_"}},
		{"ice cream", []string{"_", "_", "_", " ", "_", "_", "_", "_", "_"}},
		{"", nil},
		{"a", []string{"_"}},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskPattern(tt.word))
		})
	}
}

func TestNonSpaceIndices(t *testing.T) {
	tests := []struct {
		word string
		want []int
	}{
		{"cat", []int{0, 1, 2}},
		{"a b", []int{0, 2}},
		{"  ", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, NonSpaceIndices(tt.word))
		})
	}
}

func TestDisplayPattern(t *testing.T) {
	assert.Equal(t, "_ c_", DisplayPattern([]string{"_", " ", "c", "_"}))
	assert.Equal(t, "", DisplayPattern(nil))
}
