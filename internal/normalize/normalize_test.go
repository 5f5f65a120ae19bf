package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"walk", "walk"},
		{"  walk  ", "walk"},
		{"call\ta   friend", "call a friend"},
		{"", ""},
		{"   ", ""},
		// Decomposed e + combining acute becomes a single rune.
		{"cafe\u0301", "caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Name(tt.input))
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("Morning Walk"), Key(" morning  walk"))
	assert.Equal(t, Key("STRASSE"), Key("straße"))
	assert.NotEqual(t, Key("walk"), Key("walks"))
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("Journaling", "journaling"))
	assert.False(t, SameName("sleep", "exercise"))
}
